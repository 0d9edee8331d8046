// Package messaging 目录变更订阅（change feed）的消息模型与传输抽象。
package messaging

import (
	"strings"
	"time"
)

// ChangeLogTypePrefix 审计记录消息类型前缀，完整类型为 catalog.changelog.<operation>
const ChangeLogTypePrefix = "catalog.changelog."

// 元数据键
const (
	MetadataEntityKind = "entity_kind"
	MetadataEntityID   = "entity_id"
	MetadataLogID      = "change_log_id"
)

// IMessage 消息接口
type IMessage interface {
	GetID() string
	GetType() string
	GetTimestamp() time.Time
	GetPayload() any
	GetMetadata() map[string]any
}

// Message 消息基础实现
type Message struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   any            `json:"payload"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func (m *Message) GetID() string           { return m.ID }
func (m *Message) GetType() string         { return m.Type }
func (m *Message) GetTimestamp() time.Time { return m.Timestamp }
func (m *Message) GetPayload() any         { return m.Payload }

// GetMetadata 获取元数据
func (m *Message) GetMetadata() map[string]any {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	return m.Metadata
}

// SetMetadata 设置元数据
func (m *Message) SetMetadata(key string, value any) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
}

// NewMessage 创建新消息
func NewMessage(messageID, messageType string, payload any) *Message {
	return &Message{
		ID:        messageID,
		Type:      messageType,
		Timestamp: time.Now(),
		Payload:   payload,
		Metadata:  make(map[string]any),
	}
}

// ChangeLogType 返回操作对应的消息类型，如 catalog.changelog.update
func ChangeLogType(operation string) string {
	return ChangeLogTypePrefix + strings.ToLower(operation)
}

// IsChangeLogType 判断消息类型是否为审计记录
func IsChangeLogType(messageType string) bool {
	return strings.HasPrefix(messageType, ChangeLogTypePrefix)
}

// Route 审计消息在传输层的分流键，Kind 与 Operation 均为小写
type Route struct {
	Kind      string
	Operation string
}

// RouteOf 取出审计消息的分流键，非审计消息或缺少实体类型时返回 false
func RouteOf(msg IMessage) (Route, bool) {
	if msg == nil || !IsChangeLogType(msg.GetType()) {
		return Route{}, false
	}
	op := strings.TrimPrefix(msg.GetType(), ChangeLogTypePrefix)
	kind, _ := msg.GetMetadata()[MetadataEntityKind].(string)
	if op == "" || kind == "" {
		return Route{}, false
	}
	return Route{Kind: strings.ToLower(kind), Operation: op}, true
}
