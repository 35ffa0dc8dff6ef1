package xcache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
)

// =============================================================================
// Redis 缓存配置
// =============================================================================

// RedisOptions Redis 缓存配置
type RedisOptions struct {
	// KeyPrefix 键前缀，用于在共享 Redis 中隔离命名空间，默认 "hisab:cache:"
	KeyPrefix string

	// DefaultTTL Set 传入 ttl <= 0 时使用，默认 60s
	DefaultTTL time.Duration

	// ScanCount 每次 SCAN 的 COUNT 提示值，默认 100
	ScanCount int64

	// MeterProvider 不为 nil 时记录命中/未命中指标
	MeterProvider metric.MeterProvider
}

// RedisOption Redis 缓存配置选项
type RedisOption func(*RedisOptions)

func defaultRedisOptions() *RedisOptions {
	return &RedisOptions{
		KeyPrefix:  "hisab:cache:",
		DefaultTTL: DefaultTTL,
		ScanCount:  100,
	}
}

// WithKeyPrefix 设置键前缀。
func WithKeyPrefix(prefix string) RedisOption {
	return func(o *RedisOptions) {
		o.KeyPrefix = prefix
	}
}

// WithRedisDefaultTTL 设置默认 TTL，非正值被忽略。
func WithRedisDefaultTTL(ttl time.Duration) RedisOption {
	return func(o *RedisOptions) {
		if ttl > 0 {
			o.DefaultTTL = ttl
		}
	}
}

// WithScanCount 设置 SCAN 的 COUNT 提示值，非正值被忽略。
func WithScanCount(n int64) RedisOption {
	return func(o *RedisOptions) {
		if n > 0 {
			o.ScanCount = n
		}
	}
}

// WithRedisMeterProvider 启用 OpenTelemetry 指标。
func WithRedisMeterProvider(provider metric.MeterProvider) RedisOption {
	return func(o *RedisOptions) {
		o.MeterProvider = provider
	}
}

// =============================================================================
// Redis 缓存实现
// =============================================================================

var _ Cache = (*redisCache)(nil)

// redisCache 基于 go-redis 的 Cache 实现。
// client 的生命周期由调用方管理，Close 不会关闭 client。
type redisCache struct {
	client  redis.UniversalClient
	opts    *RedisOptions
	metrics *cacheMetrics
	closed  atomic.Bool
}

// NewRedis 创建 Redis 缓存。client 必须是已初始化的 redis.UniversalClient。
func NewRedis(client redis.UniversalClient, opts ...RedisOption) (Cache, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	options := defaultRedisOptions()
	for _, opt := range opts {
		opt(options)
	}

	m, err := newCacheMetrics(options.MeterProvider, "redis")
	if err != nil {
		return nil, err
	}
	return &redisCache{client: client, opts: options, metrics: m}, nil
}

func (c *redisCache) key(k string) string {
	return c.opts.KeyPrefix + k
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if key == "" {
		return ErrEmptyKey
	}
	if ttl <= 0 {
		ttl = c.opts.DefaultTTL
	}
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("xcache: redis set: %w", err)
	}
	return nil
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.closed.Load() {
		return nil, false, ErrClosed
	}
	if key == "" {
		return nil, false, ErrEmptyKey
	}

	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.miss(ctx)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("xcache: redis get: %w", err)
	}
	c.metrics.hit(ctx)
	return val, true, nil
}

func (c *redisCache) Delete(ctx context.Context, key string) (bool, error) {
	if c.closed.Load() {
		return false, ErrClosed
	}
	if key == "" {
		return false, ErrEmptyKey
	}
	n, err := c.client.Del(ctx, c.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("xcache: redis del: %w", err)
	}
	return n > 0, nil
}

func (c *redisCache) ClearByPattern(ctx context.Context, substr string) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	keys, err := c.scan(ctx, escapeGlob(c.opts.KeyPrefix)+"*"+escapeGlob(substr)+"*")
	if err != nil {
		return 0, err
	}
	return c.deleteKeys(ctx, keys)
}

func (c *redisCache) Clear(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	keys, err := c.scan(ctx, escapeGlob(c.opts.KeyPrefix)+"*")
	if err != nil {
		return err
	}
	_, err = c.deleteKeys(ctx, keys)
	return err
}

func (c *redisCache) Stats(ctx context.Context) (Stats, error) {
	if c.closed.Load() {
		return Stats{}, ErrClosed
	}
	keys, err := c.scan(ctx, escapeGlob(c.opts.KeyPrefix)+"*")
	if err != nil {
		return Stats{}, err
	}
	for i, k := range keys {
		keys[i] = strings.TrimPrefix(k, c.opts.KeyPrefix)
	}
	slices.Sort(keys)
	return Stats{Size: len(keys), Keys: keys}, nil
}

// Close 标记缓存关闭，不关闭底层 client。
func (c *redisCache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return nil
}

// scan 返回匹配 pattern 的完整键名。集群模式下遍历所有 master 节点。
func (c *redisCache) scan(ctx context.Context, pattern string) ([]string, error) {
	if cc, ok := c.client.(*redis.ClusterClient); ok {
		var (
			mu   sync.Mutex
			keys []string
		)
		err := cc.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
			found, err := scanNode(ctx, node, pattern, c.opts.ScanCount)
			if err != nil {
				return err
			}
			mu.Lock()
			keys = append(keys, found...)
			mu.Unlock()
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("xcache: redis scan: %w", err)
		}
		return keys, nil
	}

	keys, err := scanNode(ctx, c.client, pattern, c.opts.ScanCount)
	if err != nil {
		return nil, fmt.Errorf("xcache: redis scan: %w", err)
	}
	return keys, nil
}

func scanNode(ctx context.Context, client redis.Cmdable, pattern string, count int64) ([]string, error) {
	var keys []string
	iter := client.Scan(ctx, 0, pattern, count).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

// deleteKeys 以 pipeline 逐个 DEL，避免集群模式下跨 slot 的多键命令。
func (c *redisCache) deleteKeys(ctx context.Context, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	pipe := c.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.Del(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("xcache: redis pipeline del: %w", err)
	}
	removed := 0
	for _, cmd := range cmds {
		removed += int(cmd.Val())
	}
	return removed, nil
}

// escapeGlob 转义 Redis glob 元字符，使 s 按字面匹配。
func escapeGlob(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
