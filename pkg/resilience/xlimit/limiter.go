package xlimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omeyang/hisab/pkg/observability/xmetrics"
)

// Limiter 固定窗口限流器
type Limiter interface {
	// CheckLimit 按给定窗口与上限检查 key。被拒绝时返回 Allowed=false 且 err=nil。
	CheckLimit(ctx context.Context, key string, window time.Duration, maxRequests int) (*Result, error)

	// Allow 使用配置的默认规则检查 key
	Allow(ctx context.Context, key string) (*Result, error)

	// Close 释放资源，不关闭注入的 Redis 客户端
	Close() error
}

// Querier 查询配额状态（不消耗配额）
type Querier interface {
	Query(ctx context.Context, key string) (*QuotaInfo, error)
}

// Resetter 重置指定键的计数
type Resetter interface {
	Reset(ctx context.Context, key string) error
}

var (
	_ Limiter  = (*limiter)(nil)
	_ Querier  = (*limiter)(nil)
	_ Resetter = (*limiter)(nil)
)

// limiter 在 Backend 之上负责参数校验、日志、指标与观测。
type limiter struct {
	backend Backend
	opts    *options
	metrics *Metrics
	closed  atomic.Bool
}

// NewLocal 创建进程内限流器
func NewLocal(opts ...Option) (Limiter, error) {
	o, m, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return &limiter{backend: newLocalBackend(o.clock), opts: o, metrics: m}, nil
}

// NewRedis 创建基于 Redis 的限流器，多个实例共享配额。
func NewRedis(client redis.UniversalClient, opts ...Option) (Limiter, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	o, m, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return &limiter{backend: newRedisBackend(client, o.keyPrefix, o.clock), opts: o, metrics: m}, nil
}

// NewWithFallback 创建 Redis 优先、按 WithFallback 策略降级的限流器。
func NewWithFallback(client redis.UniversalClient, opts ...Option) (Limiter, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	o, m, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return &fallbackLimiter{
		distributed: &limiter{backend: newRedisBackend(client, o.keyPrefix, o.clock), opts: o, metrics: m},
		local:       &limiter{backend: newLocalBackend(o.clock), opts: o, metrics: m},
		opts:        o,
		metrics:     m,
	}, nil
}

func buildOptions(opts []Option) (*options, *Metrics, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if err := o.validate(); err != nil {
		return nil, nil, err
	}
	m, err := NewMetrics(o.meterProvider)
	if err != nil {
		return nil, nil, fmt.Errorf("xlimit: create metrics: %w", err)
	}
	return o, m, nil
}

func (l *limiter) Allow(ctx context.Context, key string) (*Result, error) {
	return l.CheckLimit(ctx, key, l.opts.rule.Window, l.opts.rule.MaxRequests)
}

func (l *limiter) CheckLimit(ctx context.Context, key string, window time.Duration, maxRequests int) (result *Result, err error) {
	if l.closed.Load() {
		return nil, ErrLimiterClosed
	}
	if key == "" {
		return nil, ErrInvalidKey
	}
	rule := Rule{Window: window, MaxRequests: maxRequests}
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	ctx, span := xmetrics.Start(ctx, l.opts.observer, xmetrics.SpanOptions{
		Component: "xlimit",
		Operation: "check",
		Attrs:     []xmetrics.Attr{xmetrics.String("backend", l.backend.Type())},
	})
	defer func() {
		res := xmetrics.Result{Err: err}
		if result != nil {
			res.Attrs = []xmetrics.Attr{xmetrics.Bool("allowed", result.Allowed)}
		}
		span.End(res)
	}()

	start := time.Now()
	cr, err := l.backend.Check(ctx, key, rule)
	if err != nil {
		return nil, fmt.Errorf("xlimit: %s check: %w", l.backend.Type(), err)
	}
	l.metrics.RecordCheck(ctx, l.backend.Type(), cr.Allowed, time.Since(start))

	result = &Result{
		Allowed:    cr.Allowed,
		Limit:      maxRequests,
		Remaining:  max(maxRequests-cr.Count, 0),
		ResetAt:    cr.ResetAt,
		RetryAfter: cr.RetryAfter,
		Key:        key,
	}
	if !result.Allowed && l.opts.logger != nil {
		l.opts.logger.Debug(ctx, "rate limited",
			slog.String("key", key),
			slog.Int("limit", maxRequests),
			slog.Duration("retry_after", cr.RetryAfter),
		)
	}
	return result, nil
}

// Query 使用默认规则的上限计算剩余配额
func (l *limiter) Query(ctx context.Context, key string) (*QuotaInfo, error) {
	if l.closed.Load() {
		return nil, ErrLimiterClosed
	}
	if key == "" {
		return nil, ErrInvalidKey
	}
	count, resetAt, err := l.backend.Query(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("xlimit: %s query: %w", l.backend.Type(), err)
	}
	return &QuotaInfo{
		Key:       key,
		Count:     count,
		Limit:     l.opts.rule.MaxRequests,
		Remaining: max(l.opts.rule.MaxRequests-count, 0),
		ResetAt:   resetAt,
	}, nil
}

func (l *limiter) Reset(ctx context.Context, key string) error {
	if l.closed.Load() {
		return ErrLimiterClosed
	}
	if key == "" {
		return ErrInvalidKey
	}
	return l.backend.Reset(ctx, key)
}

func (l *limiter) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return ErrLimiterClosed
	}
	return l.backend.Close()
}
