package xcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Typed 在 Cache 之上提供 JSON 编解码的类型化访问。
type Typed[T any] struct {
	cache Cache
}

// NewTyped 创建类型化缓存视图，不拥有 cache 的生命周期。
func NewTyped[T any](cache Cache) *Typed[T] {
	return &Typed[T]{cache: cache}
}

// Get 读取并解码。解码失败时删除该条目并按未命中返回。
func (t *Typed[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	raw, ok, err := t.cache.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		if _, delErr := t.cache.Delete(ctx, key); delErr != nil {
			return zero, false, fmt.Errorf("xcache: drop undecodable entry %q: %w", key, delErr)
		}
		return zero, false, nil
	}
	return v, true, nil
}

// Set 编码并写入。
func (t *Typed[T]) Set(ctx context.Context, key string, v T, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("xcache: encode %q: %w", key, err)
	}
	return t.cache.Set(ctx, key, raw, ttl)
}
