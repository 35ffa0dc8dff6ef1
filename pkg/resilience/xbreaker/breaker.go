package xbreaker

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

var (
	// ErrOpen 表示熔断器打开或半开状态下请求过多。
	ErrOpen = errors.New("xbreaker: circuit open")
)

// State 熔断器状态
type State = gobreaker.State

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// Option 熔断器选项
type Option func(*gobreaker.Settings)

// WithTimeout 设置打开状态持续时间，默认 30s。
func WithTimeout(d time.Duration) Option {
	return func(s *gobreaker.Settings) {
		if d > 0 {
			s.Timeout = d
		}
	}
}

// WithConsecutiveFailures 连续失败 n 次后打开，默认 5。
func WithConsecutiveFailures(n uint32) Option {
	return func(s *gobreaker.Settings) {
		if n > 0 {
			s.ReadyToTrip = func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= n
			}
		}
	}
}

// WithIsSuccessful 自定义成功判定，返回 true 的错误不计入失败。
func WithIsSuccessful(fn func(err error) bool) Option {
	return func(s *gobreaker.Settings) {
		s.IsSuccessful = fn
	}
}

// WithOnStateChange 状态变化回调。
func WithOnStateChange(fn func(name string, from, to State)) Option {
	return func(s *gobreaker.Settings) {
		s.OnStateChange = fn
	}
}

// Breaker 泛型熔断器
type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// New 创建熔断器。
func New[T any](name string, opts ...Option) *Breaker[T] {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
	}
	for _, opt := range opts {
		opt(&st)
	}
	return &Breaker[T]{cb: gobreaker.NewCircuitBreaker[T](st)}
}

// Execute 在熔断器保护下执行 fn。熔断时 fn 不执行，返回的错误匹配 ErrOpen。
func (b *Breaker[T]) Execute(ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	v, err := b.cb.Execute(func() (T, error) { return fn(ctx) })
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return v, errors.Join(ErrOpen, err)
	}
	return v, err
}

func (b *Breaker[T]) State() State { return b.cb.State() }

func (b *Breaker[T]) Name() string { return b.cb.Name() }

// IsOpen 判断错误是否来自熔断。
func IsOpen(err error) bool { return errors.Is(err, ErrOpen) }
