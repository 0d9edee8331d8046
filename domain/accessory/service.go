package accessory

import (
	"context"

	"erpcatalog/domain"
	"erpcatalog/domain/audited"
	"erpcatalog/domain/crud"
	"erpcatalog/errors"
	"erpcatalog/logging"
)

// Repositories 三种配件各自的存储
type Repositories struct {
	Filaments crud.IRepository[Filament]
	Packaging crud.IRepository[Packaging]
	Fasteners crud.IRepository[Fasteners]
}

// NewMemoryRepositories 内存存储（测试与演示用）
func NewMemoryRepositories() Repositories {
	return Repositories{
		Filaments: crud.NewMemoryRepository[Filament](domain.KindFilament),
		Packaging: crud.NewMemoryRepository[Packaging](domain.KindPackaging),
		Fasteners: crud.NewMemoryRepository[Fasteners](domain.KindFasteners),
	}
}

// IResolver 跨类型的配件引用解析
type IResolver interface {
	ResolveAccessory(ctx context.Context, id string) (Accessory, error)
}

// Option Service 选项
type Option func(*Service)

// WithIDGenerator 替换 ID 生成器
func WithIDGenerator(gen domain.IDGenerator) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger 替换日志器
func WithLogger(l logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// Service 配件服务：创建时全字段校验，更新时逐字段取舍；先持久化再记审计。
type Service struct {
	repos   Repositories
	tracker audited.IChangeTracker
	newID   domain.IDGenerator
	logger  logging.Logger
}

var _ IResolver = (*Service)(nil)

// NewService 创建配件服务
func NewService(repos Repositories, tracker audited.IChangeTracker, opts ...Option) *Service {
	s := &Service{
		repos:   repos,
		tracker: tracker,
		newID:   domain.NewID,
		logger:  logging.ComponentLogger("accessory.service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveFilament 创建耗材
func (s *Service) SaveFilament(ctx context.Context, in FilamentFields) (Filament, error) {
	return create(ctx, s, domain.KindFilament, in.Name, s.repos.Filaments, func(id string) (Filament, error) {
		return NewFilament(id, in)
	})
}

// UpdateFilament 部分更新耗材
func (s *Service) UpdateFilament(ctx context.Context, id string, in FilamentFields) (Filament, error) {
	return update(ctx, s, domain.KindFilament, id, s.repos.Filaments, func(old Filament) Filament {
		return ResolveFilament(old, in)
	})
}

// GetAllFilaments 全部耗材
func (s *Service) GetAllFilaments(ctx context.Context) ([]Filament, error) {
	return list(ctx, s, domain.KindFilament, s.repos.Filaments)
}

// SavePackaging 创建包装
func (s *Service) SavePackaging(ctx context.Context, in PackagingFields) (Packaging, error) {
	return create(ctx, s, domain.KindPackaging, in.Name, s.repos.Packaging, func(id string) (Packaging, error) {
		return NewPackaging(id, in)
	})
}

// UpdatePackaging 部分更新包装
func (s *Service) UpdatePackaging(ctx context.Context, id string, in PackagingFields) (Packaging, error) {
	return update(ctx, s, domain.KindPackaging, id, s.repos.Packaging, func(old Packaging) Packaging {
		return ResolvePackaging(old, in)
	})
}

// GetAllPackaging 全部包装
func (s *Service) GetAllPackaging(ctx context.Context) ([]Packaging, error) {
	return list(ctx, s, domain.KindPackaging, s.repos.Packaging)
}

// SaveFasteners 创建紧固件
func (s *Service) SaveFasteners(ctx context.Context, in FastenersFields) (Fasteners, error) {
	return create(ctx, s, domain.KindFasteners, in.Name, s.repos.Fasteners, func(id string) (Fasteners, error) {
		return NewFasteners(id, in)
	})
}

// UpdateFasteners 部分更新紧固件
func (s *Service) UpdateFasteners(ctx context.Context, id string, in FastenersFields) (Fasteners, error) {
	return update(ctx, s, domain.KindFasteners, id, s.repos.Fasteners, func(old Fasteners) Fasteners {
		return ResolveFasteners(old, in)
	})
}

// GetAllFasteners 全部紧固件
func (s *Service) GetAllFasteners(ctx context.Context) ([]Fasteners, error) {
	return list(ctx, s, domain.KindFasteners, s.repos.Fasteners)
}

// GetAllAccessories 按类型分组返回全部配件
func (s *Service) GetAllAccessories(ctx context.Context) (Grouped, error) {
	filaments, err := s.GetAllFilaments(ctx)
	if err != nil {
		return Grouped{}, err
	}
	packaging, err := s.GetAllPackaging(ctx)
	if err != nil {
		return Grouped{}, err
	}
	fasteners, err := s.GetAllFasteners(ctx)
	if err != nil {
		return Grouped{}, err
	}
	return Grouped{Filaments: filaments, Packaging: packaging, Fasteners: fasteners}, nil
}

// ResolveAccessory 依次在耗材、包装、紧固件中查找 id，都不存在时返回 NOT_FOUND
func (s *Service) ResolveAccessory(ctx context.Context, id string) (Accessory, error) {
	if f, err := s.repos.Filaments.Get(ctx, id); err == nil {
		return f, nil
	} else if !isNotFound(err) {
		return nil, errors.Normalize(err)
	}
	if p, err := s.repos.Packaging.Get(ctx, id); err == nil {
		return p, nil
	} else if !isNotFound(err) {
		return nil, errors.Normalize(err)
	}
	if f, err := s.repos.Fasteners.Get(ctx, id); err == nil {
		return f, nil
	} else if !isNotFound(err) {
		return nil, errors.Normalize(err)
	}
	return nil, errors.NewNotFoundError("Accessory", id)
}

func isNotFound(err error) bool {
	return errors.IsNotFound(errors.Normalize(err))
}

func create[T Accessory](ctx context.Context, s *Service, kind domain.Kind, name string,
	repo crud.IRepository[T], build func(id string) (T, error)) (T, error) {
	var zero T
	log := s.logger.WithFields(logging.String("entity_kind", string(kind)))
	log.Info(ctx, "attempting to save accessory", logging.String("name", name))

	entity, err := build(s.newID())
	if err != nil {
		log.Error(ctx, "accessory validation failed", logging.String("name", name), logging.Error(err))
		return zero, err
	}
	if err := repo.Save(ctx, entity); err != nil {
		log.Error(ctx, "save accessory failed", logging.String("entity_id", entity.GetID()), logging.Error(err))
		return zero, errors.Normalize(err)
	}
	if _, err := s.tracker.LogCreate(ctx, entity); err != nil {
		log.Error(ctx, "log accessory creation failed", logging.String("entity_id", entity.GetID()), logging.Error(err))
		return zero, err
	}

	log.Info(ctx, "accessory saved", logging.String("entity_id", entity.GetID()))
	return entity, nil
}

func update[T Accessory](ctx context.Context, s *Service, kind domain.Kind, id string,
	repo crud.IRepository[T], resolve func(old T) T) (T, error) {
	var zero T
	log := s.logger.WithFields(logging.String("entity_kind", string(kind)), logging.String("entity_id", id))
	log.Info(ctx, "attempting to update accessory")

	old, err := repo.Get(ctx, id)
	if err != nil {
		err = errors.Normalize(err)
		log.Error(ctx, "load accessory failed", logging.Error(err))
		return zero, err
	}

	updated := resolve(old)
	if err := repo.Save(ctx, updated); err != nil {
		log.Error(ctx, "save accessory failed", logging.Error(err))
		return zero, errors.Normalize(err)
	}
	entry, appended, err := s.tracker.LogUpdate(ctx, old, updated)
	if err != nil {
		log.Error(ctx, "log accessory update failed", logging.Error(err))
		return zero, err
	}

	if appended {
		log.Info(ctx, "accessory updated", logging.Int("changed_fields", len(entry.Details)))
	} else {
		log.Info(ctx, "accessory update changed nothing")
	}
	return updated, nil
}

func list[T Accessory](ctx context.Context, s *Service, kind domain.Kind, repo crud.IRepository[T]) ([]T, error) {
	s.logger.Debug(ctx, "fetching all accessories", logging.String("entity_kind", string(kind)))
	items, err := repo.List(ctx)
	if err != nil {
		return nil, errors.Normalize(err)
	}
	if items == nil {
		items = make([]T, 0)
	}
	return items, nil
}
