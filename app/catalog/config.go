// Package catalog 按配置装配目录服务：存储、缓存、变更追踪、变更订阅与日志。
package catalog

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"erpcatalog/errors"
)

// 存储驱动
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// 变更订阅传输
const (
	FeedNone   = "none"
	FeedMemory = "memory"
	FeedNATS   = "nats"
	FeedRedis  = "redis"
)

// 日志模式
const (
	LogStd     = "std"
	LogZapDev  = "zap-dev"
	LogZapProd = "zap-prod"
	LogNoop    = "noop"
)

// EnvPrefix 环境变量覆盖前缀
const EnvPrefix = "ERPCATALOG_"

// Config 目录服务配置
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Cache   CacheConfig   `yaml:"cache"`
	Feed    FeedConfig    `yaml:"feed"`
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig 实体与审计日志的存储
type StorageConfig struct {
	Driver string `yaml:"driver"` // memory | sqlite
	DSN    string `yaml:"dsn"`
}

// CacheConfig 仓储读缓存
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	MaxSize int           `yaml:"max_size"`
	TTL     time.Duration `yaml:"ttl"`
}

// FeedConfig 审计记录的变更订阅
type FeedConfig struct {
	Transport string `yaml:"transport"` // none | memory | nats | redis
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Prefix    string `yaml:"prefix"`
	QueueSize int    `yaml:"queue_size"`
}

// LoggingConfig 日志
type LoggingConfig struct {
	Mode  string `yaml:"mode"` // std | zap-dev | zap-prod | noop
	Level string `yaml:"level"`
}

// DefaultConfig 内存存储、开启缓存、不发布变更、标准日志
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{Driver: StorageMemory},
		Cache:   CacheConfig{Enabled: true, MaxSize: 1024, TTL: 10 * time.Minute},
		Feed:    FeedConfig{Transport: FeedNone, QueueSize: 1000},
		Logging: LoggingConfig{Mode: LogStd, Level: "info"},
	}
}

// Load 在默认配置之上读取 YAML 文件（path 为空时跳过），再应用环境变量覆盖并校验
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config load: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config unmarshal: %w", err)
		}
	}
	if err := applyEnvOverrides(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// applyEnvOverrides 用 ERPCATALOG_ 前缀环境变量覆盖配置项
func applyEnvOverrides(c *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("STORAGE_DSN", &c.Storage.DSN)
	str("FEED_TRANSPORT", &c.Feed.Transport)
	str("FEED_URL", &c.Feed.URL)
	str("FEED_STREAM", &c.Feed.Stream)
	str("FEED_PREFIX", &c.Feed.Prefix)
	str("LOG_MODE", &c.Logging.Mode)
	str("LOG_LEVEL", &c.Logging.Level)

	if v, ok := lookup(EnvPrefix + "CACHE_ENABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.NewInvalidValueError(EnvPrefix+"CACHE_ENABLED", v)
		}
		c.Cache.Enabled = b
	}
	if v, ok := lookup(EnvPrefix + "CACHE_MAX_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.NewInvalidValueError(EnvPrefix+"CACHE_MAX_SIZE", v)
		}
		c.Cache.MaxSize = n
	}
	if v, ok := lookup(EnvPrefix + "CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.NewInvalidValueError(EnvPrefix+"CACHE_TTL", v)
		}
		c.Cache.TTL = d
	}
	return nil
}

// Validate 检查枚举项与必填项
func (c Config) Validate() error {
	switch strings.ToLower(c.Storage.Driver) {
	case StorageMemory:
	case StorageSQLite:
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return errors.NewInvalidValueError("storage.dsn", c.Storage.DSN)
		}
	default:
		return errors.NewInvalidValueError("storage.driver", c.Storage.Driver)
	}

	switch strings.ToLower(c.Feed.Transport) {
	case "", FeedNone, FeedMemory, FeedNATS:
	case FeedRedis:
		if strings.TrimSpace(c.Feed.URL) == "" {
			return errors.NewInvalidValueError("feed.url", c.Feed.URL)
		}
	default:
		return errors.NewInvalidValueError("feed.transport", c.Feed.Transport)
	}

	switch strings.ToLower(c.Logging.Mode) {
	case "", LogStd, LogZapDev, LogZapProd, LogNoop:
	default:
		return errors.NewInvalidValueError("logging.mode", c.Logging.Mode)
	}

	if c.Cache.MaxSize < 0 {
		return errors.NewInvalidValueError("cache.max_size", strconv.Itoa(c.Cache.MaxSize))
	}
	return nil
}
