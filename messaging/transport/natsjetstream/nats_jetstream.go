// Package natsjetstream 把目录变更订阅发布到 NATS JetStream。
//
// 主题为 <prefix>changelog.<kind>.<operation>，例如 erpcatalog.changelog.product.update。
// 发布时以消息 ID（changelog-<id>）作为 Nats-Msg-Id，流在去重窗口内丢弃重复的审计记录。
package natsjetstream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"erpcatalog/logging"
	"erpcatalog/messaging"
)

// Config JetStream 传输配置
type Config struct {
	URL  string
	Conn *nats.Conn

	Stream        string // 默认 ERPCATALOG
	SubjectPrefix string // 默认 erpcatalog.
	DurablePrefix string // 默认 erpcatalog-

	// MaxAge 审计消息保留时长，0 表示不过期
	MaxAge time.Duration
	// DuplicateWindow 按 Nats-Msg-Id 去重的窗口，默认 2 分钟
	DuplicateWindow time.Duration
	AckWait         time.Duration

	Logger logging.Logger
}

// Transport 基于 JetStream 的变更订阅传输
type Transport struct {
	cfg    Config
	logger logging.Logger

	mu       sync.RWMutex
	conn     *nats.Conn
	ownsConn bool
	js       nats.JetStreamContext
	handlers messaging.Handlers
	subs     map[string]*nats.Subscription
	running  bool
}

// NewTransport 创建传输，连接在 Start 时建立
func NewTransport(cfg Config) *Transport {
	if cfg.Stream == "" {
		cfg.Stream = "ERPCATALOG"
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "erpcatalog."
	}
	if cfg.DurablePrefix == "" {
		cfg.DurablePrefix = "erpcatalog-"
	}
	if cfg.DuplicateWindow <= 0 {
		cfg.DuplicateWindow = 2 * time.Minute
	}
	if cfg.AckWait <= 0 {
		cfg.AckWait = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.ComponentLogger("transport.nats")
	}
	return &Transport{
		cfg:      cfg,
		logger:   cfg.Logger,
		handlers: make(messaging.Handlers),
		subs:     make(map[string]*nats.Subscription),
	}
}

// Subject 审计消息的发布主题
func (t *Transport) Subject(route messaging.Route) string {
	return t.cfg.SubjectPrefix + "changelog." + route.Kind + "." + route.Operation
}

// filterSubject 订阅的消息类型映射为主题过滤器："*" 为全部，其余按操作过滤全部实体类型
func (t *Transport) filterSubject(messageType string) (string, error) {
	if messageType == "*" {
		return t.cfg.SubjectPrefix + "changelog.>", nil
	}
	op := strings.TrimPrefix(messageType, messaging.ChangeLogTypePrefix)
	if !messaging.IsChangeLogType(messageType) || op == "" || strings.ContainsAny(op, ".*>") {
		return "", fmt.Errorf("nats transport cannot subscribe to %q", messageType)
	}
	return t.cfg.SubjectPrefix + "changelog.*." + op, nil
}

func (t *Transport) Publish(ctx context.Context, message messaging.IMessage) error {
	route, ok := messaging.RouteOf(message)
	if !ok {
		return fmt.Errorf("nats transport only carries change logs, got %q", message.GetType())
	}
	t.mu.RLock()
	js, running := t.js, t.running
	t.mu.RUnlock()
	if !running || js == nil {
		return errors.New("nats transport not running")
	}
	data, err := messaging.Marshal(message)
	if err != nil {
		return err
	}
	_, err = js.Publish(t.Subject(route), data, nats.MsgId(message.GetID()), nats.Context(ctx))
	return err
}

func (t *Transport) PublishAll(ctx context.Context, messages []messaging.IMessage) error {
	for _, msg := range messages {
		if err := t.Publish(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transport) Subscribe(messageType string, handler messaging.IMessageHandler) error {
	if _, err := t.filterSubject(messageType); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers.Add(messageType, handler)
	if t.running {
		return t.subscribeLocked(messageType)
	}
	return nil
}

func (t *Transport) Unsubscribe(messageType string, handler messaging.IMessageHandler) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers.Remove(messageType, handler)
	if len(t.handlers[messageType]) > 0 {
		return nil
	}
	if sub, ok := t.subs[messageType]; ok {
		delete(t.subs, messageType)
		return sub.Drain()
	}
	return nil
}

// Start 建立连接、确保流存在，并为已登记的类型创建持久订阅
func (t *Transport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return errors.New("nats transport already running")
	}
	if err := t.connectLocked(); err != nil {
		return err
	}
	if err := t.ensureStreamLocked(); err != nil {
		return err
	}
	for mt := range t.handlers {
		if err := t.subscribeLocked(mt); err != nil {
			return err
		}
	}
	t.running = true
	return nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	for mt, sub := range t.subs {
		if err := sub.Drain(); err != nil {
			t.logger.Warn(context.Background(), "drain subscription failed",
				logging.String("message_type", mt), logging.Error(err))
		}
		delete(t.subs, mt)
	}
	if t.ownsConn && t.conn != nil {
		t.conn.Close()
	}
	t.conn, t.js = nil, nil
	return nil
}

func (t *Transport) Stats() messaging.TransportStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	count, types := t.handlers.Stats()
	return messaging.TransportStats{Running: t.running, HandlerCount: count, MessageTypes: types}
}

func (t *Transport) connectLocked() error {
	conn := t.cfg.Conn
	if conn == nil {
		url := t.cfg.URL
		if url == "" {
			url = nats.DefaultURL
		}
		c, err := nats.Connect(url, nats.Name("erpcatalog"))
		if err != nil {
			return err
		}
		conn = c
		t.ownsConn = true
	}
	js, err := conn.JetStream()
	if err != nil {
		if t.ownsConn {
			conn.Close()
		}
		return err
	}
	t.conn, t.js = conn, js
	return nil
}

func (t *Transport) ensureStreamLocked() error {
	_, err := t.js.StreamInfo(t.cfg.Stream)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}
	_, err = t.js.AddStream(&nats.StreamConfig{
		Name:       t.cfg.Stream,
		Subjects:   []string{t.cfg.SubjectPrefix + "changelog.>"},
		Retention:  nats.LimitsPolicy,
		Storage:    nats.FileStorage,
		MaxAge:     t.cfg.MaxAge,
		Duplicates: t.cfg.DuplicateWindow,
	})
	return err
}

func (t *Transport) subscribeLocked(messageType string) error {
	if _, exists := t.subs[messageType]; exists {
		return nil
	}
	subject, err := t.filterSubject(messageType)
	if err != nil {
		return err
	}
	sub, err := t.js.Subscribe(subject, t.handleMessage(messageType),
		nats.Durable(durableName(t.cfg.DurablePrefix+messageType)),
		nats.ManualAck(),
		nats.AckWait(t.cfg.AckWait),
		nats.DeliverAll())
	if err != nil {
		return err
	}
	t.subs[messageType] = sub
	return nil
}

// handleMessage 只分发给登记在该订阅类型下的处理器，"*" 与精确订阅不会重复投递
func (t *Transport) handleMessage(subscribed string) nats.MsgHandler {
	return func(msg *nats.Msg) {
		ctx := context.Background()
		decoded, err := messaging.Unmarshal(msg.Data)
		if err != nil {
			t.logger.Warn(ctx, "drop undecodable message", logging.String("subject", msg.Subject), logging.Error(err))
			_ = msg.Term()
			return
		}

		t.mu.RLock()
		handlers := append([]messaging.IMessageHandler(nil), t.handlers[subscribed]...)
		t.mu.RUnlock()
		for _, h := range handlers {
			if err := h.Handle(ctx, decoded); err != nil {
				t.logger.Warn(ctx, "message handler failed",
					logging.String("message_type", decoded.GetType()),
					logging.String("handler", h.Type()),
					logging.Error(err))
			}
		}
		if err := msg.Ack(); err != nil {
			t.logger.Warn(ctx, "nats ack failed", logging.Error(err))
		}
	}
}

// durableName durable 名不能包含 . * >
func durableName(name string) string {
	return strings.NewReplacer(".", "_", "*", "all", ">", "all").Replace(name)
}
