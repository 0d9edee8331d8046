package catalog

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/multierr"

	"erpcatalog/cache"
	"erpcatalog/domain"
	"erpcatalog/domain/accessory"
	"erpcatalog/domain/audited"
	"erpcatalog/domain/crud"
	"erpcatalog/domain/product"
	"erpcatalog/logging"
	"erpcatalog/messaging"
	"erpcatalog/messaging/transport/memory"
	"erpcatalog/messaging/transport/natsjetstream"
	"erpcatalog/messaging/transport/redisstreams"
	core "erpcatalog/storage/database"
	"erpcatalog/storage/database/basic"
	"erpcatalog/storage/sqlstore"
)

// Catalog 装配好的目录服务
type Catalog struct {
	Accessories *accessory.Service
	Products    *product.Service
	Tracker     *audited.ChangeTracker

	feed    messaging.Transport
	logger  logging.Logger
	closers []func() error
}

// Option 装配选项
type Option func(*options)

type options struct {
	logger logging.Logger
	clock  func() time.Time
	newID  domain.IDGenerator
	feed   messaging.Transport
}

// WithLogger 使用给定 Logger，忽略 logging 配置
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock 审计时间戳时钟
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// WithIDGenerator 实体与附件 ID 生成器
func WithIDGenerator(gen domain.IDGenerator) Option {
	return func(o *options) { o.newID = gen }
}

// WithFeedTransport 使用外部创建的传输（需未启动），忽略 feed 配置
func WithFeedTransport(t messaging.Transport) Option {
	return func(o *options) { o.feed = t }
}

type stores struct {
	filaments crud.IRepository[accessory.Filament]
	packaging crud.IRepository[accessory.Packaging]
	fasteners crud.IRepository[accessory.Fasteners]
	products  crud.IRepository[product.Product]
	audit     audited.IAuditStore
}

// New 按配置装配目录服务。失败时已打开的资源会被释放。
func New(ctx context.Context, cfg Config, opts ...Option) (*Catalog, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	c := &Catalog{}
	if err := c.build(ctx, cfg, o); err != nil {
		return nil, multierr.Append(err, c.Close())
	}
	return c, nil
}

func (c *Catalog) build(ctx context.Context, cfg Config, o *options) error {
	if o.logger == nil {
		logger, err := newLogger(cfg.Logging)
		if err != nil {
			return err
		}
		logging.SetLogger(logger)
		o.logger = logger
	}
	c.logger = o.logger.WithFields(logging.Component("app.catalog"))

	s, err := c.openStores(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if cfg.Cache.Enabled {
		s = withCache(s, cfg.Cache)
	}

	trackerOpts := []audited.Option{audited.WithLogger(o.logger)}
	if o.clock != nil {
		trackerOpts = append(trackerOpts, audited.WithClock(o.clock))
	}

	feed := o.feed
	if feed == nil {
		if feed, err = newFeedTransport(cfg.Feed); err != nil {
			return err
		}
	}
	if feed != nil {
		if err := feed.Start(ctx); err != nil {
			return err
		}
		c.feed = feed
		c.closers = append(c.closers, feed.Close)
		trackerOpts = append(trackerOpts, audited.WithListener(messaging.NewChangeFeed(feed, o.logger)))
	}

	c.Tracker = audited.NewChangeTracker(s.audit, trackerOpts...)

	accOpts := []accessory.Option{accessory.WithLogger(o.logger)}
	prdOpts := []product.Option{product.WithLogger(o.logger)}
	if o.newID != nil {
		accOpts = append(accOpts, accessory.WithIDGenerator(o.newID))
		prdOpts = append(prdOpts, product.WithIDGenerator(o.newID))
	}
	c.Accessories = accessory.NewService(accessory.Repositories{
		Filaments: s.filaments,
		Packaging: s.packaging,
		Fasteners: s.fasteners,
	}, c.Tracker, accOpts...)
	c.Products = product.NewService(s.products, c.Accessories, c.Tracker, prdOpts...)

	c.logger.Info(ctx, "catalog ready",
		logging.String("storage", cfg.Storage.Driver),
		logging.Bool("cache", cfg.Cache.Enabled),
		logging.String("feed", cfg.Feed.Transport))
	return nil
}

// Feed 变更订阅传输，未配置时为 nil
func (c *Catalog) Feed() messaging.Transport { return c.feed }

// ExportChangeLogs 以 JSON 导出全部审计记录
func (c *Catalog) ExportChangeLogs(ctx context.Context) ([]byte, error) {
	logs, err := c.Tracker.GetAllChangeLogs(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(logs, "", "  ")
}

// Close 按打开的逆序释放资源（先停止变更订阅，再关闭数据库）
func (c *Catalog) Close() error {
	var err error
	for i := len(c.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, c.closers[i]())
	}
	c.closers = nil
	return err
}

func (c *Catalog) openStores(ctx context.Context, cfg StorageConfig) (stores, error) {
	if strings.ToLower(cfg.Driver) != StorageSQLite {
		return stores{
			filaments: crud.NewMemoryRepository[accessory.Filament](domain.KindFilament),
			packaging: crud.NewMemoryRepository[accessory.Packaging](domain.KindPackaging),
			fasteners: crud.NewMemoryRepository[accessory.Fasteners](domain.KindFasteners),
			products:  crud.NewMemoryRepository[product.Product](domain.KindProduct),
			audit:     audited.NewMemoryAuditStore(),
		}, nil
	}

	db, err := basic.New(core.DBConfig{Driver: "sqlite", DSN: cfg.DSN})
	if err != nil {
		return stores{}, err
	}
	c.closers = append(c.closers, db.Close)

	if err := sqlstore.Migrate(ctx, db); err != nil {
		return stores{}, err
	}
	audit, err := sqlstore.NewAuditStore(ctx, db)
	if err != nil {
		return stores{}, err
	}
	return stores{
		filaments: sqlstore.NewRepository[accessory.Filament](db, domain.KindFilament),
		packaging: sqlstore.NewRepository[accessory.Packaging](db, domain.KindPackaging),
		fasteners: sqlstore.NewRepository[accessory.Fasteners](db, domain.KindFasteners),
		products:  sqlstore.NewRepository[product.Product](db, domain.KindProduct),
		audit:     audit,
	}, nil
}

func withCache(s stores, cfg CacheConfig) stores {
	conf := func(kind domain.Kind) cache.Config {
		return cache.Config{Name: string(kind), MaxSize: cfg.MaxSize, TTL: cfg.TTL}
	}
	s.filaments = crud.NewCachedRepository(s.filaments, conf(domain.KindFilament))
	s.packaging = crud.NewCachedRepository(s.packaging, conf(domain.KindPackaging))
	s.fasteners = crud.NewCachedRepository(s.fasteners, conf(domain.KindFasteners))
	s.products = crud.NewCachedRepository(s.products, conf(domain.KindProduct))
	return s
}

func newFeedTransport(cfg FeedConfig) (messaging.Transport, error) {
	switch strings.ToLower(cfg.Transport) {
	case FeedMemory:
		return memory.NewMemoryTransport(cfg.QueueSize, 1), nil
	case FeedNATS:
		return natsjetstream.NewTransport(natsjetstream.Config{
			URL:           cfg.URL,
			Stream:        cfg.Stream,
			SubjectPrefix: cfg.Prefix,
		}), nil
	case FeedRedis:
		t, err := redisstreams.NewTransport(redisstreams.Config{
			Addr:         cfg.URL,
			StreamPrefix: cfg.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, nil
	}
}

func newLogger(cfg LoggingConfig) (logging.Logger, error) {
	level := logging.ParseLevel(cfg.Level)
	switch strings.ToLower(cfg.Mode) {
	case LogNoop:
		return logging.NewNoopLogger(), nil
	case LogZapDev, LogZapProd:
		z, err := logging.NewZapLogger(cfg.Mode, level)
		if err != nil {
			return nil, err
		}
		return z, nil
	default:
		return logging.NewStdLogger("[erpcatalog]").WithLevel(level), nil
	}
}
