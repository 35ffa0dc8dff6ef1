package xlimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Backend = (*redisBackend)(nil)

// fixedWindowScript 原子执行固定窗口检查。
// KEYS[1]=计数键 ARGV[1]=maxRequests ARGV[2]=窗口毫秒
// 返回 {allowed(0/1), count, 剩余毫秒}
var fixedWindowScript = redis.NewScript(`
local count = redis.call("GET", KEYS[1])
local max = tonumber(ARGV[1])
if count then
	count = tonumber(count)
	local ttl = redis.call("PTTL", KEYS[1])
	if count + 1 > max then
		return {0, count, ttl}
	end
	count = redis.call("INCR", KEYS[1])
	return {1, count, ttl}
end
redis.call("SET", KEYS[1], 1, "PX", ARGV[2])
return {1, 1, tonumber(ARGV[2])}
`)

// redisBackend 基于 Redis 的固定窗口计数，多实例共享配额。
// 过期记录由 Redis 的 PX 过期回收，无需扫描。
type redisBackend struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func newRedisBackend(client redis.UniversalClient, prefix string, now func() time.Time) *redisBackend {
	return &redisBackend{client: client, prefix: prefix, now: now}
}

func (b *redisBackend) Check(ctx context.Context, key string, rule Rule) (CheckResult, error) {
	vals, err := fixedWindowScript.Run(ctx, b.client, []string{b.prefix + key},
		rule.MaxRequests, rule.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return CheckResult{}, err
	}
	if len(vals) != 3 {
		return CheckResult{}, fmt.Errorf("xlimit: unexpected script reply %v", vals)
	}

	ttl := time.Duration(vals[2]) * time.Millisecond
	if ttl < 0 {
		ttl = rule.Window
	}
	now := b.now()
	res := CheckResult{
		Allowed: vals[0] == 1,
		Count:   int(vals[1]),
		ResetAt: now.Add(ttl),
	}
	if !res.Allowed {
		res.RetryAfter = ttl
	}
	return res, nil
}

func (b *redisBackend) Query(ctx context.Context, key string) (int, time.Time, error) {
	full := b.prefix + key
	pipe := b.client.Pipeline()
	getCmd := pipe.Get(ctx, full)
	ttlCmd := pipe.PTTL(ctx, full)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return 0, time.Time{}, err
	}

	count, err := getCmd.Int()
	if errors.Is(err, redis.Nil) {
		return 0, time.Time{}, nil
	}
	if err != nil {
		return 0, time.Time{}, err
	}
	ttl := ttlCmd.Val()
	if ttl < 0 {
		return count, time.Time{}, nil
	}
	return count, b.now().Add(ttl), nil
}

func (b *redisBackend) Reset(ctx context.Context, key string) error {
	return b.client.Del(ctx, b.prefix+key).Err()
}

// Close 不关闭注入的 client
func (b *redisBackend) Close() error { return nil }

func (b *redisBackend) Type() string { return "redis" }
