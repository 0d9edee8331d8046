package audited

import (
	"context"
	"sync"
)

// IAuditStore 审计日志存储。
//
// Append 在同一把锁内分配 ID 并发布条目：ID 从 1 开始连续递增、不重复，
// 条目完整可见后其 ID 才算分配完成。List 返回时间点一致的防御性拷贝。
type IAuditStore interface {
	// Append 追加一条记录，忽略传入的 ID，返回带已分配 ID 的记录
	Append(ctx context.Context, entry ChangeLog) (ChangeLog, error)

	// List 按 ID 升序返回全部记录
	List(ctx context.Context) ([]ChangeLog, error)

	// ListByEntity 按 ID 升序返回某个实体的记录
	ListByEntity(ctx context.Context, entityID string) ([]ChangeLog, error)
}

// MemoryAuditStore 内存审计存储
type MemoryAuditStore struct {
	mu      sync.RWMutex
	entries []ChangeLog
	nextID  int64
}

// NewMemoryAuditStore 创建内存审计存储
func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{nextID: 1}
}

func (s *MemoryAuditStore) Append(ctx context.Context, entry ChangeLog) (ChangeLog, error) {
	entry = entry.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = s.nextID
	s.nextID++
	s.entries = append(s.entries, entry)
	return entry.Clone(), nil
}

func (s *MemoryAuditStore) List(ctx context.Context) ([]ChangeLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ChangeLog, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Clone()
	}
	return out, nil
}

func (s *MemoryAuditStore) ListByEntity(ctx context.Context, entityID string) ([]ChangeLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ChangeLog, 0)
	for _, e := range s.entries {
		if e.EntityID == entityID {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

// Len 当前记录数
func (s *MemoryAuditStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
