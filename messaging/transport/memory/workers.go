package memory

import (
	"context"
	"fmt"

	"erpcatalog/logging"
	"erpcatalog/messaging"
)

// Start 启动 Worker 池开始处理消息队列。关闭后的传输不能再次启动。
func (t *MemoryTransport) Start(ctx context.Context) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.running {
		return fmt.Errorf("memory transport is already running")
	}
	if t.closed {
		return fmt.Errorf("memory transport is closed")
	}
	t.running = true

	for i := 0; i < t.workerCount; i++ {
		t.wg.Add(1)
		go t.worker(ctx)
	}
	return nil
}

// Close 停止接收新消息，等待队列中的消息处理完成
func (t *MemoryTransport) Close() error {
	t.mutex.Lock()
	if !t.running {
		t.mutex.Unlock()
		return fmt.Errorf("memory transport is not running")
	}
	t.running = false
	t.closed = true
	close(t.queue)
	t.mutex.Unlock()

	t.wg.Wait()
	return nil
}

// worker 从队列中取出消息并分发；队列关闭后处理完剩余消息再退出
func (t *MemoryTransport) worker(ctx context.Context) {
	defer t.wg.Done()

	for {
		select {
		case message, ok := <-t.queue:
			if !ok {
				return
			}
			t.dispatch(context.WithoutCancel(ctx), message)
		case <-ctx.Done():
			return
		}
	}
}

// dispatch 分发消息到订阅的处理器。处理器错误只记录日志，不会传播给发布者。
func (t *MemoryTransport) dispatch(ctx context.Context, message messaging.IMessage) {
	t.mutex.RLock()
	handlers := t.handlers.Match(message.GetType())
	t.mutex.RUnlock()

	for _, handler := range handlers {
		if err := handler.Handle(ctx, message); err != nil {
			t.logger.Warn(ctx, "message handler failed",
				logging.String("message_type", message.GetType()),
				logging.String("message_id", message.GetID()),
				logging.String("handler", handler.Type()),
				logging.Error(err))
		}
	}
}
