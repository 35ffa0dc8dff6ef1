package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/omeyang/hisab/pkg/resilience/xlimit"
)

// Config hisabd 配置，对应配置文件根节点。
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
	Cache    CacheConfig    `koanf:"cache"`
	Limit    LimitConfig    `koanf:"limit"`
	Redis    RedisConfig    `koanf:"redis"`
	Postgres PostgresConfig `koanf:"postgres"`
	Friends  FriendsConfig  `koanf:"friends"`
	Rates    RatesConfig    `koanf:"rates"`
}

// ServerConfig HTTP 监听。
type ServerConfig struct {
	Addr              string        `koanf:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	// AdminToken 非空时，携带相同 X-Admin-Token 的请求可查看缓存键
	AdminToken string `koanf:"admin_token"`
}

// LogConfig 日志级别、格式与可选的文件轮转。
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	// File 非空时写入轮转文件
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`
}

// CacheConfig 应用缓存。Backend 为 memory 或 redis。
type CacheConfig struct {
	Backend    string        `koanf:"backend"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	MaxEntries int           `koanf:"max_entries"`
	// SweepInterval > 0 时周期性清理过期条目，默认关闭（仅惰性过期）
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// LimitConfig 限流。Backend 为 local 或 redis。
type LimitConfig struct {
	Backend  string                  `koanf:"backend"`
	Rule     xlimit.Rule             `koanf:"rule"`
	Fallback xlimit.FallbackStrategy `koanf:"fallback"`
}

// RedisConfig 缓存与限流共用的 Redis 连接。
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// PostgresConfig DSN 为空时使用内存存储。
type PostgresConfig struct {
	DSN          string `koanf:"dsn"`
	MaxConns     int32  `koanf:"max_conns"`
	Migrate      bool   `koanf:"migrate"`
	ConnAttempts uint   `koanf:"conn_attempts"`
}

// FriendsConfig 好友列表缓存与存储熔断。
type FriendsConfig struct {
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// RatesConfig 汇率上游与响应缓存。
type RatesConfig struct {
	Upstream     string        `koanf:"upstream"`
	Timeout      time.Duration `koanf:"timeout"`
	TTL          time.Duration `koanf:"ttl"`
	Singleflight bool          `koanf:"singleflight"`
}

// DefaultConfig 返回默认配置，配置文件中的字段覆盖对应默认值。
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Log:   LogConfig{Level: "info", Format: "text"},
		Cache: CacheConfig{Backend: "memory", DefaultTTL: 60 * time.Second},
		Limit: LimitConfig{
			Backend:  "local",
			Rule:     xlimit.DefaultRule,
			Fallback: xlimit.FallbackLocal,
		},
		Postgres: PostgresConfig{MaxConns: 10, Migrate: true, ConnAttempts: 5},
		Friends: FriendsConfig{
			CacheTTL:        30 * time.Second,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Rates: RatesConfig{
			Upstream: "https://open.er-api.com/v6/latest",
			Timeout:  5 * time.Second,
			TTL:      30 * time.Second,
		},
	}
}

// Validate 校验配置。
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("cache.backend: unknown backend %q", c.Cache.Backend))
	}
	switch c.Limit.Backend {
	case "local", "redis":
	default:
		errs = append(errs, fmt.Errorf("limit.backend: unknown backend %q", c.Limit.Backend))
	}
	switch c.Limit.Fallback {
	case xlimit.FallbackLocal, xlimit.FallbackOpen, xlimit.FallbackClose:
	default:
		errs = append(errs, fmt.Errorf("limit.fallback: unknown strategy %q", c.Limit.Fallback))
	}
	if err := c.Limit.Rule.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("limit.rule: %w", err))
	}
	if (c.Cache.Backend == "redis" || c.Limit.Backend == "redis") && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required by a redis backend"))
	}
	if c.Rates.Upstream == "" {
		errs = append(errs, errors.New("rates.upstream is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("app: invalid config: %w", errors.Join(errs...))
	}
	return nil
}
