package friends

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/omeyang/hisab/pkg/observability/xlog"
	"github.com/omeyang/hisab/pkg/resilience/xbreaker"
)

var _ Store = (*GuardedStore)(nil)

// GuardedStore 以熔断器保护下游 Store。
// 业务错误（不存在、冲突、非法输入）和调用方取消不计入失败。
type GuardedStore struct {
	next    Store
	breaker *xbreaker.Breaker[struct{}]
}

// NewGuardedStore 包装 next。连续 failures 次失败后熔断 openFor。
func NewGuardedStore(next Store, failures uint32, openFor time.Duration, logger xlog.Logger) *GuardedStore {
	if logger == nil {
		logger = xlog.Discard()
	}
	b := xbreaker.New[struct{}]("friends-store",
		xbreaker.WithConsecutiveFailures(failures),
		xbreaker.WithTimeout(openFor),
		xbreaker.WithIsSuccessful(isBusinessOutcome),
		xbreaker.WithOnStateChange(func(name string, from, to xbreaker.State) {
			logger.Warn(context.Background(), "circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		}),
	)
	return &GuardedStore{next: next, breaker: b}
}

func isBusinessOutcome(err error) bool {
	return err == nil ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInvalid) ||
		errors.Is(err, context.Canceled)
}

func (g *GuardedStore) guard(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := g.breaker.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	if xbreaker.IsOpen(err) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

func (g *GuardedStore) List(ctx context.Context, userID string) ([]Friend, error) {
	var out []Friend
	err := g.guard(ctx, func(ctx context.Context) (err error) {
		out, err = g.next.List(ctx, userID)
		return err
	})
	return out, err
}

func (g *GuardedStore) Get(ctx context.Context, userID, friendID string) (Friend, error) {
	var f Friend
	err := g.guard(ctx, func(ctx context.Context) (err error) {
		f, err = g.next.Get(ctx, userID, friendID)
		return err
	})
	return f, err
}

func (g *GuardedStore) Add(ctx context.Context, in Friend) (Friend, error) {
	var f Friend
	err := g.guard(ctx, func(ctx context.Context) (err error) {
		f, err = g.next.Add(ctx, in)
		return err
	})
	return f, err
}

func (g *GuardedStore) Remove(ctx context.Context, userID, friendID string) error {
	return g.guard(ctx, func(ctx context.Context) error {
		return g.next.Remove(ctx, userID, friendID)
	})
}
