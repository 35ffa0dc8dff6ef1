package xcache

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// =============================================================================
// 内存缓存配置
// =============================================================================

// MemoryOptions 内存缓存配置
type MemoryOptions struct {
	// DefaultTTL Set 传入 ttl <= 0 时使用，默认 60s
	DefaultTTL time.Duration

	// MaxEntries 条目上限，0 表示不限（默认）
	MaxEntries int

	// Clock 时间源，测试时注入
	Clock func() time.Time

	// MeterProvider 不为 nil 时记录命中/未命中/淘汰指标
	MeterProvider metric.MeterProvider
}

// MemoryOption 内存缓存配置选项
type MemoryOption func(*MemoryOptions)

func defaultMemoryOptions() *MemoryOptions {
	return &MemoryOptions{
		DefaultTTL: DefaultTTL,
		Clock:      time.Now,
	}
}

// WithDefaultTTL 设置默认 TTL，非正值被忽略。
func WithDefaultTTL(ttl time.Duration) MemoryOption {
	return func(o *MemoryOptions) {
		if ttl > 0 {
			o.DefaultTTL = ttl
		}
	}
}

// WithMaxEntries 设置条目上限，超出后按 LRU 淘汰。
func WithMaxEntries(n int) MemoryOption {
	return func(o *MemoryOptions) {
		o.MaxEntries = n
	}
}

// WithClock 设置时间源。
func WithClock(clock func() time.Time) MemoryOption {
	return func(o *MemoryOptions) {
		if clock != nil {
			o.Clock = clock
		}
	}
}

// WithMeterProvider 启用 OpenTelemetry 指标。
func WithMeterProvider(provider metric.MeterProvider) MemoryOption {
	return func(o *MemoryOptions) {
		o.MeterProvider = provider
	}
}

// =============================================================================
// 内存缓存实现
// =============================================================================

var (
	_ Cache   = (*memoryCache)(nil)
	_ Sweeper = (*memoryCache)(nil)
)

type memoryCache struct {
	mu      sync.Mutex
	table   table
	opts    *MemoryOptions
	metrics *cacheMetrics
	closed  atomic.Bool
}

// NewMemory 创建内存缓存。
func NewMemory(opts ...MemoryOption) (Cache, error) {
	return newMemory(opts...)
}

func newMemory(opts ...MemoryOption) (*memoryCache, error) {
	options := defaultMemoryOptions()
	for _, opt := range opts {
		opt(options)
	}
	if options.MaxEntries < 0 {
		return nil, fmt.Errorf("%w: negative max entries %d", ErrInvalidConfig, options.MaxEntries)
	}

	var t table = mapTable{}
	if options.MaxEntries > 0 {
		lt, err := newLRUTable(options.MaxEntries)
		if err != nil {
			return nil, fmt.Errorf("xcache: create lru table: %w", err)
		}
		t = lt
	}

	m, err := newCacheMetrics(options.MeterProvider, "memory")
	if err != nil {
		return nil, err
	}

	return &memoryCache{table: t, opts: options, metrics: m}, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if key == "" {
		return ErrEmptyKey
	}
	if ttl <= 0 {
		ttl = c.opts.DefaultTTL
	}

	e := &entry{value: bytes.Clone(value), createdAt: c.opts.Clock(), ttl: ttl}

	c.mu.Lock()
	evicted := c.table.add(key, e)
	c.mu.Unlock()

	if evicted {
		c.metrics.evict(ctx, 1)
	}
	return nil
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.closed.Load() {
		return nil, false, ErrClosed
	}
	if key == "" {
		return nil, false, ErrEmptyKey
	}

	c.mu.Lock()
	e, ok := c.table.get(key)
	if ok && e.expired(c.opts.Clock()) {
		c.table.remove(key)
		c.mu.Unlock()
		c.metrics.evict(ctx, 1)
		c.metrics.miss(ctx)
		return nil, false, nil
	}
	c.mu.Unlock()

	if !ok {
		c.metrics.miss(ctx)
		return nil, false, nil
	}
	c.metrics.hit(ctx)
	return bytes.Clone(e.value), true, nil
}

func (c *memoryCache) Delete(_ context.Context, key string) (bool, error) {
	if c.closed.Load() {
		return false, ErrClosed
	}
	if key == "" {
		return false, ErrEmptyKey
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.table.remove(key), nil
}

func (c *memoryCache) ClearByPattern(_ context.Context, substr string) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, k := range c.table.keys() {
		if strings.Contains(k, substr) && c.table.remove(k) {
			removed++
		}
	}
	return removed, nil
}

func (c *memoryCache) Clear(_ context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}

	c.mu.Lock()
	c.table.purge()
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Stats(_ context.Context) (Stats, error) {
	if c.closed.Load() {
		return Stats{}, ErrClosed
	}

	c.mu.Lock()
	keys := c.table.keys()
	c.mu.Unlock()

	slices.Sort(keys)
	return Stats{Size: len(keys), Keys: keys}, nil
}

// Sweep 删除所有已过期条目。
func (c *memoryCache) Sweep(ctx context.Context) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}

	now := c.opts.Clock()
	c.mu.Lock()
	removed := 0
	for _, k := range c.table.keys() {
		if e, ok := c.table.peek(k); ok && e.expired(now) {
			c.table.remove(k)
			removed++
		}
	}
	c.mu.Unlock()

	c.metrics.evict(ctx, removed)
	return removed, nil
}

func (c *memoryCache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	c.mu.Lock()
	c.table.purge()
	c.mu.Unlock()
	return nil
}
