package product

import (
	"context"

	"erpcatalog/domain"
	"erpcatalog/domain/accessory"
	"erpcatalog/domain/audited"
	"erpcatalog/domain/crud"
	"erpcatalog/errors"
	"erpcatalog/logging"
	"erpcatalog/validation"
)

// Option Service 选项
type Option func(*Service)

// WithIDGenerator 替换产品与附件的 ID 生成器
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

// Service 产品服务
type Service struct {
	repo        crud.IRepository[Product]
	accessories accessory.IResolver
	tracker     audited.IChangeTracker
	newID       domain.IDGenerator
	logger      logging.Logger
}

// NewService 创建产品服务
func NewService(repo crud.IRepository[Product], accessories accessory.IResolver, tracker audited.IChangeTracker, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		accessories: accessories,
		tracker:     tracker,
		newID:       domain.NewID,
		logger:      logging.ComponentLogger("product.service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) lookup(ctx context.Context) AccessoryLookup {
	return func(ref AccessoryRef) (AccessoryQuantity, error) {
		a, err := s.accessories.ResolveAccessory(ctx, ref.AccessoryID)
		if err != nil {
			return AccessoryQuantity{}, err
		}
		return AccessoryQuantity{Quantity: ref.Quantity, Accessory: a}, nil
	}
}

// SaveProduct 创建产品：字段校验失败返回 INVALID_VALUE，引用的配件不存在返回 NOT_FOUND
func (s *Service) SaveProduct(ctx context.Context, in Fields) (Product, error) {
	s.logger.Info(ctx, "attempting to save product", logging.String("name", in.Name))

	p, err := NewProduct(s.newID(), in, s.lookup(ctx))
	if err != nil {
		s.logger.Error(ctx, "build product failed", logging.String("name", in.Name), logging.Error(err))
		return Product{}, err
	}
	if err := s.repo.Save(ctx, p); err != nil {
		s.logger.Error(ctx, "save product failed", logging.String("product_id", p.ID), logging.Error(err))
		return Product{}, errors.Normalize(err)
	}
	if _, err := s.tracker.LogCreate(ctx, p); err != nil {
		return Product{}, err
	}

	s.logger.Info(ctx, "product saved", logging.String("product_id", p.ID))
	return p, nil
}

// UpdateProduct 部分更新产品
func (s *Service) UpdateProduct(ctx context.Context, id string, in Fields) (Product, error) {
	return s.mutate(ctx, "update product", id, func(old Product) (Product, error) {
		return ResolveProduct(old, in, s.lookup(ctx))
	})
}

// UpdatePreview 替换预览图（仅允许常见图片格式）
func (s *Service) UpdatePreview(ctx context.Context, id string, data []byte, filename string) (Product, error) {
	return s.mutate(ctx, "update preview", id, func(old Product) (Product, error) {
		if err := validation.ValidatePreviewFile(data, filename); err != nil {
			return Product{}, err
		}
		return old.WithPreview(File{ID: s.newID(), Filename: filename, Data: data}), nil
	})
}

// AddFile 追加附件
func (s *Service) AddFile(ctx context.Context, id string, data []byte, filename string) (Product, error) {
	return s.mutate(ctx, "add file", id, func(old Product) (Product, error) {
		if err := validation.ValidateFile(data, filename); err != nil {
			return Product{}, err
		}
		return old.WithFile(File{ID: s.newID(), Filename: filename, Data: data}), nil
	})
}

// DeleteFile 删除附件；附件 ID 不存在时产品不变，也不写审计
func (s *Service) DeleteFile(ctx context.Context, productID, fileID string) (Product, error) {
	return s.mutate(ctx, "delete file", productID, func(old Product) (Product, error) {
		return old.WithoutFile(fileID), nil
	})
}

// DeleteProduct 删除产品并写 DELETE 审计
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	log := s.logger.WithFields(logging.String("product_id", id))
	log.Info(ctx, "attempting to delete product")

	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return errors.Normalize(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		log.Error(ctx, "delete product failed", logging.Error(err))
		return errors.Normalize(err)
	}
	if _, err := s.tracker.LogDelete(ctx, p); err != nil {
		return err
	}
	log.Info(ctx, "product deleted")
	return nil
}

// GetProduct 按 ID 获取产品
func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, errors.Normalize(err)
	}
	return p, nil
}

// GetAllProducts 全部产品
func (s *Service) GetAllProducts(ctx context.Context) ([]Product, error) {
	s.logger.Debug(ctx, "fetching all products")
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Normalize(err)
	}
	if items == nil {
		items = make([]Product, 0)
	}
	return items, nil
}

// mutate 加载 → 构造新版本 → 保存 → 记录差异。任一步失败都不会写审计。
func (s *Service) mutate(ctx context.Context, op, id string, next func(old Product) (Product, error)) (Product, error) {
	log := s.logger.WithFields(logging.String("product_id", id), logging.String("op", op))
	log.Info(ctx, "attempting to "+op)

	old, err := s.repo.Get(ctx, id)
	if err != nil {
		err = errors.Normalize(err)
		log.Error(ctx, "load product failed", logging.Error(err))
		return Product{}, err
	}

	updated, err := next(old)
	if err != nil {
		log.Error(ctx, op+" rejected", logging.Error(err))
		return Product{}, err
	}
	if err := s.repo.Save(ctx, updated); err != nil {
		log.Error(ctx, "save product failed", logging.Error(err))
		return Product{}, errors.Normalize(err)
	}
	entry, appended, err := s.tracker.LogUpdate(ctx, old, updated)
	if err != nil {
		return Product{}, err
	}
	if appended {
		log.Info(ctx, op+" succeeded", logging.Int("changed_fields", len(entry.Details)))
	} else {
		log.Info(ctx, op+" changed nothing")
	}
	return updated, nil
}
