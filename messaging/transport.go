package messaging

import (
	"context"
)

// Transport 消息传输接口
type Transport interface {
	Publish(ctx context.Context, message IMessage) error
	PublishAll(ctx context.Context, messages []IMessage) error
	Subscribe(messageType string, handler IMessageHandler) error
	Unsubscribe(messageType string, handler IMessageHandler) error
	Start(ctx context.Context) error
	Close() error
	Stats() TransportStats
}

// TransportStats 传输层统计信息
type TransportStats struct {
	Running      bool     `json:"running"`
	HandlerCount int      `json:"handler_count"`
	MessageTypes []string `json:"message_types"`
	QueueSize    int      `json:"queue_size,omitempty"`
	QueueDepth   int      `json:"queue_depth,omitempty"`
	WorkerCount  int      `json:"worker_count,omitempty"`
}

// Handlers 按消息类型登记的处理器表，"*" 订阅全部类型。各传输共用，调用方负责加锁。
type Handlers map[string][]IMessageHandler

// Add 登记处理器
func (h Handlers) Add(messageType string, handler IMessageHandler) {
	h[messageType] = append(h[messageType], handler)
}

// Remove 移除处理器，找到时返回 true
func (h Handlers) Remove(messageType string, handler IMessageHandler) bool {
	handlers := h[messageType]
	for i, existing := range handlers {
		if existing == handler {
			h[messageType] = append(handlers[:i:i], handlers[i+1:]...)
			if len(h[messageType]) == 0 {
				delete(h, messageType)
			}
			return true
		}
	}
	return false
}

// Match 返回精确匹配与通配符处理器的拷贝
func (h Handlers) Match(messageType string) []IMessageHandler {
	exact := h[messageType]
	wildcard := h["*"]
	out := make([]IMessageHandler, 0, len(exact)+len(wildcard))
	out = append(out, exact...)
	return append(out, wildcard...)
}

// Stats 汇总处理器数量与消息类型
func (h Handlers) Stats() (count int, types []string) {
	types = make([]string, 0, len(h))
	for mt, hs := range h {
		count += len(hs)
		types = append(types, mt)
	}
	return count, types
}
