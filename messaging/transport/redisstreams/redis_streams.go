// Package redisstreams 把目录变更订阅写入 Redis Streams。
//
// 每种实体类型一个 Stream（<prefix>changelog:<kind>），同一实体的审计记录因此保持先后顺序。
// 条目字段只有 type、entity_id 和 data，data 是 messaging.Marshal 编码的信封。
// 订阅端用一个消费组同时读取全部实体类型的 Stream，按消息类型分发，支持 "*"。
package redisstreams

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"erpcatalog/domain"
	"erpcatalog/logging"
	"erpcatalog/messaging"
)

// 条目字段
const (
	fieldType     = "type"
	fieldEntityID = "entity_id"
	fieldData     = "data"
)

// client go-redis 命令的子集，测试时替换
type client interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	Close() error
}

// Config Redis Streams 传输配置
type Config struct {
	Client   redis.UniversalClient
	Addr     string
	Username string
	Password string
	DB       int

	StreamPrefix string // 默认 erpcatalog:
	GroupName    string // 默认 erpcatalog
	ConsumerName string // 默认 consumer-<uuid>

	// Kinds 订阅端读取的实体类型，默认全部
	Kinds []domain.Kind

	// MaxLen 每个 Stream 近似保留的条目数，0 表示不裁剪
	MaxLen int64

	BlockTimeout time.Duration
	ReadCount    int64
	RetryBackoff time.Duration
	Logger       logging.Logger
}

// Transport 基于 Redis Streams 的变更订阅传输
type Transport struct {
	cfg       Config
	client    client
	ownClient bool
	logger    logging.Logger

	mu       sync.RWMutex
	handlers messaging.Handlers
	running  bool
	reading  bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewTransport 创建传输，未提供 Client 时按 Addr 建立连接（惰性连接）
func NewTransport(cfg Config) (*Transport, error) {
	if cfg.StreamPrefix == "" {
		cfg.StreamPrefix = "erpcatalog:"
	}
	if cfg.GroupName == "" {
		cfg.GroupName = "erpcatalog"
	}
	if cfg.ConsumerName == "" {
		cfg.ConsumerName = "consumer-" + uuid.NewString()
	}
	if len(cfg.Kinds) == 0 {
		cfg.Kinds = []domain.Kind{domain.KindFilament, domain.KindPackaging, domain.KindFasteners, domain.KindProduct}
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = 5 * time.Second
	}
	if cfg.ReadCount <= 0 {
		cfg.ReadCount = 10
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.ComponentLogger("transport.redisstreams")
	}

	t := &Transport{cfg: cfg, logger: cfg.Logger, handlers: make(messaging.Handlers)}
	if cfg.Client != nil {
		t.client = cfg.Client
		return t, nil
	}
	if cfg.Addr == "" {
		return nil, errors.New("redis address not configured")
	}
	t.client = redis.NewClient(&redis.Options{Addr: cfg.Addr, Username: cfg.Username, Password: cfg.Password, DB: cfg.DB})
	t.ownClient = true
	return t, nil
}

// StreamFor 实体类型对应的 Stream 名
func (t *Transport) StreamFor(kind string) string {
	return t.cfg.StreamPrefix + "changelog:" + strings.ToLower(kind)
}

// Publish 追加一条审计消息；只接受带实体类型的审计消息
func (t *Transport) Publish(ctx context.Context, message messaging.IMessage) error {
	route, ok := messaging.RouteOf(message)
	if !ok {
		return fmt.Errorf("redis streams transport only carries change logs, got %q", message.GetType())
	}
	data, err := messaging.Marshal(message)
	if err != nil {
		return err
	}
	entityID, _ := message.GetMetadata()[messaging.MetadataEntityID].(string)
	args := &redis.XAddArgs{
		Stream: t.StreamFor(route.Kind),
		Values: map[string]any{
			fieldType:     message.GetType(),
			fieldEntityID: entityID,
			fieldData:     string(data),
		},
	}
	if t.cfg.MaxLen > 0 {
		args.MaxLen = t.cfg.MaxLen
		args.Approx = true
	}
	return t.client.XAdd(ctx, args).Err()
}

// PublishAll 逐条追加，遇错即停
func (t *Transport) PublishAll(ctx context.Context, messages []messaging.IMessage) error {
	for _, msg := range messages {
		if err := t.Publish(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transport) Subscribe(messageType string, handler messaging.IMessageHandler) error {
	if messageType == "" {
		return errors.New("message type required")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers.Add(messageType, handler)
	if t.running {
		t.startReaderLocked()
	}
	return nil
}

func (t *Transport) Unsubscribe(messageType string, handler messaging.IMessageHandler) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers.Remove(messageType, handler)
	return nil
}

// Start 标记为运行；已有订阅时启动读取协程
func (t *Transport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return errors.New("redis streams transport already running")
	}
	t.ctx, t.cancel = context.WithCancel(ctx)
	t.running = true
	if len(t.handlers) > 0 {
		t.startReaderLocked()
	}
	return nil
}

// Close 停止读取协程，自建的客户端一并关闭
func (t *Transport) Close() error {
	t.mu.Lock()
	cancel := t.cancel
	t.running = false
	t.cancel = nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	t.wg.Wait()
	if t.ownClient {
		return t.client.Close()
	}
	return nil
}

func (t *Transport) Stats() messaging.TransportStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	count, types := t.handlers.Stats()
	return messaging.TransportStats{Running: t.running, HandlerCount: count, MessageTypes: types}
}

func (t *Transport) startReaderLocked() {
	if t.reading {
		return
	}
	t.reading = true
	t.wg.Add(1)
	go t.readLoop(t.ctx)
}

func (t *Transport) readLoop(ctx context.Context) {
	defer t.wg.Done()

	streams := make([]string, 0, 2*len(t.cfg.Kinds))
	for _, kind := range t.cfg.Kinds {
		stream := t.StreamFor(string(kind))
		if err := t.ensureGroup(ctx, stream); err != nil {
			t.logger.Warn(ctx, "ensure consumer group failed", logging.String("stream", stream), logging.Error(err))
		}
		streams = append(streams, stream)
	}
	for range t.cfg.Kinds {
		streams = append(streams, ">")
	}
	args := &redis.XReadGroupArgs{
		Group:    t.cfg.GroupName,
		Consumer: t.cfg.ConsumerName,
		Streams:  streams,
		Count:    t.cfg.ReadCount,
		Block:    t.cfg.BlockTimeout,
	}

	for ctx.Err() == nil {
		res, err := t.client.XReadGroup(ctx, args).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			t.logger.Warn(ctx, "xreadgroup failed", logging.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(t.cfg.RetryBackoff):
			}
			continue
		}
		for _, stream := range res {
			for _, entry := range stream.Messages {
				t.consume(ctx, stream.Stream, entry)
			}
		}
	}
}

// consume 解码并分发一条条目；无法解码的条目也确认，避免反复投递
func (t *Transport) consume(ctx context.Context, stream string, entry redis.XMessage) {
	msg, err := decodeEntry(entry)
	if err != nil {
		t.logger.Warn(ctx, "drop undecodable entry",
			logging.String("stream", stream), logging.String("entry_id", entry.ID), logging.Error(err))
	} else {
		t.dispatch(ctx, msg)
	}
	if err := t.client.XAck(ctx, stream, t.cfg.GroupName, entry.ID).Err(); err != nil {
		t.logger.Warn(ctx, "xack failed", logging.String("entry_id", entry.ID), logging.Error(err))
	}
}

func (t *Transport) ensureGroup(ctx context.Context, stream string) error {
	err := t.client.XGroupCreateMkStream(ctx, stream, t.cfg.GroupName, "0").Err()
	if err != nil && strings.Contains(err.Error(), "BUSYGROUP") {
		return nil
	}
	return err
}

func (t *Transport) dispatch(ctx context.Context, message messaging.IMessage) {
	t.mu.RLock()
	handlers := t.handlers.Match(message.GetType())
	t.mu.RUnlock()

	for _, h := range handlers {
		if err := h.Handle(ctx, message); err != nil {
			t.logger.Warn(ctx, "message handler failed",
				logging.String("message_type", message.GetType()),
				logging.String("handler", h.Type()),
				logging.Error(err))
		}
	}
}

func decodeEntry(entry redis.XMessage) (*messaging.Message, error) {
	data, ok := entry.Values[fieldData].(string)
	if !ok || data == "" {
		return nil, fmt.Errorf("entry %s has no %s field", entry.ID, fieldData)
	}
	return messaging.Unmarshal([]byte(data))
}
