package crud

import (
	"context"
	"sync"

	"erpcatalog/domain"
)

// MemoryRepository 基于 map 的内存仓储，保持首次保存顺序
type MemoryRepository[T domain.IEntity] struct {
	kind domain.Kind

	mu    sync.RWMutex
	items map[string]T
	order []string
}

// NewMemoryRepository 创建内存仓储
func NewMemoryRepository[T domain.IEntity](kind domain.Kind) *MemoryRepository[T] {
	return &MemoryRepository[T]{
		kind:  kind,
		items: make(map[string]T),
	}
}

func (r *MemoryRepository[T]) Get(ctx context.Context, id string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.items[id]
	if !ok {
		var zero T
		return zero, domain.NewEntityNotFoundError(r.kind, id)
	}
	return e, nil
}

func (r *MemoryRepository[T]) Save(ctx context.Context, e T) error {
	id := e.GetID()
	if id == "" {
		return domain.ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		r.order = append(r.order, id)
	}
	r.items[id] = e
	return nil
}

func (r *MemoryRepository[T]) List(ctx context.Context) ([]T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out, nil
}

func (r *MemoryRepository[T]) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.NewEntityNotFoundError(r.kind, id)
	}
	delete(r.items, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

