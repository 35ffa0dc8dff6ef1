package xcache

import (
	"context"
	"time"
)

// DefaultTTL Set 未指定 TTL 时使用的有效期。
const DefaultTTL = 60 * time.Second

// Stats 缓存诊断信息。
type Stats struct {
	// Size 当前存储的条目数（含尚未被惰性清理的过期条目）
	Size int `json:"size"`
	// Keys 当前存储的键，按字典序排列
	Keys []string `json:"keys"`
}

// Cache TTL 缓存接口。所有方法并发安全。
type Cache interface {
	// Set 写入 value，ttl <= 0 时使用默认 TTL。已存在的键被覆盖。
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get 读取未过期的值。未命中返回 (nil, false, nil)，过期条目会被删除。
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Delete 删除 key，返回是否实际删除。
	Delete(ctx context.Context, key string) (bool, error)

	// ClearByPattern 删除所有键中包含 substr 的条目，返回删除数量。
	// substr 按字面匹配。
	ClearByPattern(ctx context.Context, substr string) (int, error)

	// Clear 删除所有条目。
	Clear(ctx context.Context) error

	// Stats 返回诊断信息，不修改状态。
	Stats(ctx context.Context) (Stats, error)

	// Close 释放资源。重复调用返回 ErrClosed。
	Close() error
}

// Sweeper 主动清理过期条目的能力，返回清理数量。
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}
