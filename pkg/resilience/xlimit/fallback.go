package xlimit

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var (
	_ Limiter  = (*fallbackLimiter)(nil)
	_ Querier  = (*fallbackLimiter)(nil)
	_ Resetter = (*fallbackLimiter)(nil)
)

// fallbackLimiter Redis 不可用时按策略降级
type fallbackLimiter struct {
	distributed *limiter
	local       *limiter
	opts        *options
	metrics     *Metrics
}

func (f *fallbackLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	return f.CheckLimit(ctx, key, f.opts.rule.Window, f.opts.rule.MaxRequests)
}

func (f *fallbackLimiter) CheckLimit(ctx context.Context, key string, window time.Duration, maxRequests int) (*Result, error) {
	result, err := f.distributed.CheckLimit(ctx, key, window, maxRequests)
	if err == nil || !IsRedisError(err) {
		return result, err
	}

	if f.opts.logger != nil {
		f.opts.logger.Warn(ctx, "rate limiter falling back due to redis error",
			slog.String("strategy", string(f.opts.fallback)),
			slog.String("error", err.Error()),
		)
	}
	f.metrics.RecordFallback(ctx, f.opts.fallback)
	if f.opts.onFallback != nil {
		f.opts.onFallback(key, f.opts.fallback, err)
	}

	switch f.opts.fallback {
	case FallbackOpen:
		return &Result{Allowed: true, Key: key}, nil
	case FallbackClose:
		return &Result{Allowed: false, Key: key}, ErrRedisUnavailable
	default:
		return f.local.CheckLimit(ctx, key, window, maxRequests)
	}
}

// Query 优先查询 Redis，Redis 不可用时查询本地计数
func (f *fallbackLimiter) Query(ctx context.Context, key string) (*QuotaInfo, error) {
	info, err := f.distributed.Query(ctx, key)
	if err != nil && IsRedisError(err) {
		return f.local.Query(ctx, key)
	}
	return info, err
}

func (f *fallbackLimiter) Reset(ctx context.Context, key string) error {
	var errs []error
	if err := f.distributed.Reset(ctx, key); err != nil && !IsRedisError(err) {
		errs = append(errs, err)
	}
	if err := f.local.Reset(ctx, key); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (f *fallbackLimiter) Close() error {
	return errors.Join(f.distributed.Close(), f.local.Close())
}
