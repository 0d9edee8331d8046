package crud

import (
	"context"
	"sync"

	"erpcatalog/cache"
	"erpcatalog/domain"
	"erpcatalog/logging"
)

// CachedRepository 在仓储前加一层按 ID 的读缓存。
//
// 写入（Save/Delete）完成后只让缓存失效，不回写新值；读未命中时回填。
// 每个 ID 带一个写入代数，回填前代数已变化说明期间发生过写入，此次回填作废。
// List 总是直达底层仓储。
type CachedRepository[T domain.IEntity] struct {
	inner  IRepository[T]
	cache  *cache.Cache[string, T]
	logger logging.Logger

	mu   sync.Mutex
	gens map[string]uint64
}

// NewCachedRepository 包装仓储
func NewCachedRepository[T domain.IEntity](inner IRepository[T], cfg cache.Config) *CachedRepository[T] {
	return &CachedRepository[T]{
		inner:  inner,
		cache:  cache.New[string, T](cfg),
		logger: logging.ComponentLogger("crud.cached").WithFields(logging.String("cache", cfg.Name)),
		gens:   make(map[string]uint64),
	}
}

func (r *CachedRepository[T]) Get(ctx context.Context, id string) (T, error) {
	if e, ok := r.cache.Get(id); ok {
		return e, nil
	}
	gen := r.generation(id)
	e, err := r.inner.Get(ctx, id)
	if err != nil {
		return e, err
	}
	r.fill(ctx, id, gen, e)
	return e, nil
}

func (r *CachedRepository[T]) Save(ctx context.Context, e T) error {
	err := r.inner.Save(ctx, e)
	r.invalidateCache(e.GetID())
	if err != nil {
		r.logger.Warn(ctx, "save failed", logging.String("entity_id", e.GetID()), logging.Error(err))
	}
	return err
}

func (r *CachedRepository[T]) List(ctx context.Context) ([]T, error) {
	return r.inner.List(ctx)
}

func (r *CachedRepository[T]) Delete(ctx context.Context, id string) error {
	err := r.inner.Delete(ctx, id)
	r.invalidateCache(id)
	return err
}

// Stats 缓存统计
func (r *CachedRepository[T]) Stats() cache.Stats {
	return r.cache.Stats()
}

func (r *CachedRepository[T]) generation(id string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gens[id]
}

// fill 仅在读取期间没有写入时回填
func (r *CachedRepository[T]) fill(ctx context.Context, id string, gen uint64, e T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gens[id] != gen {
		r.logger.Debug(ctx, "stale fill dropped", logging.String("entity_id", id))
		return
	}
	r.cache.Set(id, e)
}

// invalidateCache 失效缓存并推进写入代数
func (r *CachedRepository[T]) invalidateCache(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gens[id]++
	r.cache.Delete(id)
}
