// Package audited 提供目录实体的变更追踪：字段级差异比对、只追加的审计日志及其存储。
package audited

import (
	"time"

	"erpcatalog/domain"
)

// Operation 审计操作类型
type Operation string

const (
	OperationCreate Operation = "CREATE"
	OperationUpdate Operation = "UPDATE"
	OperationDelete Operation = "DELETE"
)

// ChangeDetail 单个字段的变更，值为 nil 表示该侧为空
type ChangeDetail struct {
	FieldName string  `json:"fieldName"`
	OldValue  *string `json:"oldValue"`
	NewValue  *string `json:"newValue"`
}

// ChangeLog 一条审计记录。追加后不再修改。
type ChangeLog struct {
	ID         int64          `json:"id"`
	EntityKind domain.Kind    `json:"entityKind"`
	EntityID   string         `json:"entityId"`
	EntityName string         `json:"entityName"`
	Operation  Operation      `json:"operationType"`
	Timestamp  time.Time      `json:"timestamp"`
	Details    []ChangeDetail `json:"details"`
}

// Clone 深拷贝，Details 始终非 nil
func (l ChangeLog) Clone() ChangeLog {
	details := make([]ChangeDetail, len(l.Details))
	copy(details, l.Details)
	l.Details = details
	return l
}

func newChangeLog(e domain.IEntity, op Operation, at time.Time, details []ChangeDetail) ChangeLog {
	return ChangeLog{
		EntityKind: e.Kind(),
		EntityID:   e.GetID(),
		EntityName: e.GetName(),
		Operation:  op,
		Timestamp:  at,
		Details:    details,
	}
}
