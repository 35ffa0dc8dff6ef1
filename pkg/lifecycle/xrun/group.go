package xrun

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/hisab/pkg/observability/xlog"
)

// Func 服务函数，应阻塞到 ctx 取消后返回。
type Func func(ctx context.Context) error

// Service 带名称的服务。
type Service struct {
	Name string
	Run  Func
}

// Named 为服务函数命名。
func Named(name string, fn Func) Service {
	return Service{Name: name, Run: fn}
}

// Group 一组共享取消信号的服务。
type Group struct {
	eg     *errgroup.Group
	ctx    context.Context
	cause  context.Context
	cancel context.CancelCauseFunc
	opts   *options
}

// NewGroup 创建 Group，返回的 ctx 在任一服务出错或 Cancel 时取消。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	cause, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(cause)
	return &Group{eg: eg, ctx: egCtx, cause: cause, cancel: cancel, opts: o}, egCtx
}

// Go 启动服务。
func (g *Group) Go(svc Service) {
	g.eg.Go(func() error {
		if svc.Run == nil {
			return ErrNilFunc
		}
		log := g.opts.logger.With(slog.String("group", g.opts.name), slog.String("service", svc.Name))
		log.Debug(g.ctx, "service starting")

		err := svc.Run(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn(g.ctx, "service exited with error", xlog.Err(err))
			return err
		}
		log.Debug(g.ctx, "service stopped")
		return err
	})
}

// Cancel 以 cause 为原因取消全部服务。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}

// Wait 等待全部服务结束。
//
// 服务因取消返回的 context.Canceled 不视为错误；若取消带有显式原因
// （如 *SignalError），返回该原因。
func (g *Group) Wait() error {
	defer g.cancel(nil)

	err := g.eg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if g.cause.Err() != nil {
		if c := context.Cause(g.cause); c != nil && !errors.Is(c, context.Canceled) {
			return c
		}
		return nil
	}
	return err
}

// Run 创建 Group 运行全部服务，并在收到信号时以 *SignalError 取消。
func Run(ctx context.Context, opts []Option, services ...Service) error {
	g, gctx := NewGroup(ctx, opts...)

	if signals := g.opts.signals; len(signals) > 0 {
		g.eg.Go(func() error {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, signals...)
			defer signal.Stop(sigCh)
			return g.awaitSignal(gctx, sigCh)
		})
	}
	for _, svc := range services {
		g.Go(svc)
	}
	return g.Wait()
}

func (g *Group) awaitSignal(ctx context.Context, sigCh <-chan os.Signal) error {
	select {
	case sig := <-sigCh:
		g.opts.logger.Info(ctx, "received signal",
			slog.String("group", g.opts.name), slog.String("signal", sig.String()))
		g.cancel(&SignalError{Signal: sig})
		return nil
	case <-ctx.Done():
		return nil
	}
}
