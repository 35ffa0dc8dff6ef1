package xlimit

import (
	"context"
	"time"
)

// CheckResult 后端检查结果
type CheckResult struct {
	Allowed    bool
	Count      int // 检查后的窗口计数
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Backend 限流后端，只负责计数，不含日志与指标。实现必须并发安全。
type Backend interface {
	// Check 按规则检查并（放行时）递增计数
	Check(ctx context.Context, key string, rule Rule) (CheckResult, error)

	// Query 返回当前窗口计数，不消耗配额。无有效窗口时 count=0。
	Query(ctx context.Context, key string) (count int, resetAt time.Time, err error)

	// Reset 删除 key 的计数
	Reset(ctx context.Context, key string) error

	// Close 释放后端自有资源（不关闭注入的外部客户端）
	Close() error

	// Type 后端类型标识，用于日志和指标
	Type() string
}
