package xretry

import (
	"context"
	"errors"
	"time"

	retry "github.com/avast/retry-go/v5"
)

// ErrNilFunc 表示传入的函数为 nil。
var ErrNilFunc = errors.New("xretry: nil func")

// Option 重试选项
type Option func(*config)

type config struct {
	attempts uint
	delay    time.Duration
	maxDelay time.Duration
	onRetry  func(attempt int, err error)
}

func defaultConfig() *config {
	return &config{attempts: 3, delay: 100 * time.Millisecond, maxDelay: 5 * time.Second}
}

// WithAttempts 设置总尝试次数（含首次），默认 3，0 忽略。
func WithAttempts(n uint) Option {
	return func(c *config) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// WithDelay 设置初始退避与退避上限。
func WithDelay(initial, maxDelay time.Duration) Option {
	return func(c *config) {
		if initial > 0 {
			c.delay = initial
		}
		if maxDelay > 0 {
			c.maxDelay = maxDelay
		}
	}
}

// WithOnRetry 每次失败后回调，attempt 从 1 开始。
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(c *config) {
		c.onRetry = fn
	}
}

// Unrecoverable 标记错误为不可重试。
func Unrecoverable(err error) error { return retry.Unrecoverable(err) }

// Do 执行 fn 直到成功或重试耗尽，返回最后一次错误。
func Do(ctx context.Context, fn func(ctx context.Context) error, opts ...Option) error {
	if fn == nil {
		return ErrNilFunc
	}
	return retry.New(build(ctx, opts)...).Do(func() error {
		return fn(ctx)
	})
}

// DoWithResult 与 Do 相同，返回成功时的结果。
func DoWithResult[T any](ctx context.Context, fn func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	if fn == nil {
		var zero T
		return zero, ErrNilFunc
	}
	return retry.NewWithData[T](build(ctx, opts)...).Do(func() (T, error) {
		return fn(ctx)
	})
}

func build(ctx context.Context, opts []Option) []retry.Option {
	c := defaultConfig()
	for _, opt := range opts {
		opt(c)
	}

	ro := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.MaxDelay(c.maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	}
	if c.onRetry != nil {
		// retry-go 的 n 从 0 开始
		ro = append(ro, retry.OnRetry(func(n uint, err error) {
			c.onRetry(int(n)+1, err)
		}))
	}
	return ro
}
