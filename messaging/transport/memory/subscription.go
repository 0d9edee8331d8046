package memory

import (
	"fmt"

	"erpcatalog/messaging"
)

// Subscribe 订阅消息处理器，支持通配符 "*" 订阅所有消息
func (t *MemoryTransport) Subscribe(messageType string, handler messaging.IMessageHandler) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.handlers.Add(messageType, handler)
	return nil
}

// Unsubscribe 取消订阅，处理器不存在时返回错误
func (t *MemoryTransport) Unsubscribe(messageType string, handler messaging.IMessageHandler) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.handlers.Remove(messageType, handler) {
		return fmt.Errorf("handler not found for message type %s", messageType)
	}
	return nil
}
