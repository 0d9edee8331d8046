// Package memory 基于内存队列的消息传输，适用于单机部署、开发环境和测试。
package memory

import (
	"context"
	"fmt"
	"sync"

	"erpcatalog/logging"
	"erpcatalog/messaging"
)

// MemoryTransport 内存消息传输实现
//
// 特性:
//   - 基于内存队列的异步消息传输
//   - Worker 池模式处理消息
//   - Close 时处理完队列中剩余的消息
type MemoryTransport struct {
	handlers    messaging.Handlers
	queue       chan messaging.IMessage
	queueSize   int
	workerCount int
	running     bool
	closed      bool
	logger      logging.Logger
	mutex       sync.RWMutex
	wg          sync.WaitGroup
}

var _ messaging.Transport = (*MemoryTransport)(nil)

// NewMemoryTransport 创建内存传输实例
//
// 参数:
//   - queueSize: 队列大小（<=0 时使用默认 1000）
//   - workerCount: Worker 数量（<=0 时使用默认 1，保证按发布顺序处理）
func NewMemoryTransport(queueSize, workerCount int) *MemoryTransport {
	if queueSize <= 0 {
		queueSize = 1000
	}
	if workerCount <= 0 {
		workerCount = 1
	}
	return &MemoryTransport{
		handlers:    make(messaging.Handlers),
		queue:       make(chan messaging.IMessage, queueSize),
		queueSize:   queueSize,
		workerCount: workerCount,
		logger:      logging.ComponentLogger("transport.memory"),
	}
}

// Publish 发布消息到队列，由 Worker 池异步处理
func (t *MemoryTransport) Publish(ctx context.Context, message messaging.IMessage) error {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	if !t.running {
		return fmt.Errorf("memory transport is not running")
	}
	return t.enqueueLocked(ctx, message)
}

// PublishAll 批量发布消息到队列，任一消息失败即返回
func (t *MemoryTransport) PublishAll(ctx context.Context, messages []messaging.IMessage) error {
	if len(messages) == 0 {
		return nil
	}

	t.mutex.RLock()
	defer t.mutex.RUnlock()

	if !t.running {
		return fmt.Errorf("memory transport is not running")
	}
	for _, message := range messages {
		if err := t.enqueueLocked(ctx, message); err != nil {
			return err
		}
	}
	return nil
}

// enqueueLocked 调用方持有读锁，Close 需要写锁才能关闭队列
func (t *MemoryTransport) enqueueLocked(ctx context.Context, message messaging.IMessage) error {
	select {
	case t.queue <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("message queue is full")
	}
}

// Stats 获取统计信息
func (t *MemoryTransport) Stats() messaging.TransportStats {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	handlerCount, messageTypes := t.handlers.Stats()
	return messaging.TransportStats{
		Running:      t.running,
		HandlerCount: handlerCount,
		MessageTypes: messageTypes,
		QueueSize:    t.queueSize,
		QueueDepth:   len(t.queue),
		WorkerCount:  t.workerCount,
	}
}
