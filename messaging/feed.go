package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"erpcatalog/domain/audited"
	"erpcatalog/errors"
	"erpcatalog/logging"
)

// ChangeFeed 把追加成功的审计记录发布到传输层，实现 audited.IChangeListener。
//
// 发布失败只返回错误，由变更追踪器记录日志，审计记录本身不受影响。
type ChangeFeed struct {
	transport Transport
	logger    logging.Logger
}

var _ audited.IChangeListener = (*ChangeFeed)(nil)

// NewChangeFeed 创建变更订阅发布者
func NewChangeFeed(transport Transport, logger logging.Logger) *ChangeFeed {
	if logger == nil {
		logger = logging.ComponentLogger("messaging.feed")
	}
	return &ChangeFeed{transport: transport, logger: logger}
}

// OnChange 发布一条审计记录
func (f *ChangeFeed) OnChange(ctx context.Context, entry audited.ChangeLog) error {
	msg := NewChangeLogMessage(entry)
	if err := f.transport.Publish(ctx, msg); err != nil {
		return errors.WrapError(err, errors.ErrCodeQueue, "publish change log").
			WithContext(MetadataLogID, entry.ID)
	}
	f.logger.Debug(ctx, "change log published",
		logging.String("message_type", msg.Type),
		logging.Int64("change_log_id", entry.ID))
	return nil
}

// NewChangeLogMessage 以审计记录构造消息，消息 ID 由记录 ID 决定
func NewChangeLogMessage(entry audited.ChangeLog) *Message {
	msg := &Message{
		ID:        fmt.Sprintf("changelog-%d", entry.ID),
		Type:      ChangeLogType(string(entry.Operation)),
		Timestamp: entry.Timestamp,
		Payload:   entry.Clone(),
	}
	msg.SetMetadata(MetadataEntityKind, string(entry.EntityKind))
	msg.SetMetadata(MetadataEntityID, entry.EntityID)
	msg.SetMetadata(MetadataLogID, entry.ID)
	return msg
}

// DecodeChangeLog 从消息中取回审计记录，兼容进程内对象与 JSON 解码后的通用值
func DecodeChangeLog(msg IMessage) (audited.ChangeLog, error) {
	if !IsChangeLogType(msg.GetType()) {
		return audited.ChangeLog{}, errors.NewError(errors.ErrCodeQueue,
			fmt.Sprintf("unexpected message type %q", msg.GetType()))
	}
	switch p := msg.GetPayload().(type) {
	case audited.ChangeLog:
		return p.Clone(), nil
	case *audited.ChangeLog:
		if p == nil {
			break
		}
		return p.Clone(), nil
	default:
		raw, err := json.Marshal(p)
		if err != nil {
			return audited.ChangeLog{}, errors.WrapError(err, errors.ErrCodeQueue, "decode change log payload")
		}
		var entry audited.ChangeLog
		if err := json.Unmarshal(raw, &entry); err != nil {
			return audited.ChangeLog{}, errors.WrapError(err, errors.ErrCodeQueue, "decode change log payload")
		}
		return entry.Clone(), nil
	}
	return audited.ChangeLog{}, errors.NewError(errors.ErrCodeQueue, "empty change log payload")
}
