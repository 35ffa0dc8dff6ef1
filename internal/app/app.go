// Package app 组装 hisabd：按配置创建缓存、限流器、存储与出站客户端，
// 挂载 HTTP 路由，并以 xrun 管理运行与关闭。
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/omeyang/hisab/internal/friends"
	"github.com/omeyang/hisab/internal/rates"
	"github.com/omeyang/hisab/pkg/lifecycle/xrun"
	"github.com/omeyang/hisab/pkg/net/xfetch"
	"github.com/omeyang/hisab/pkg/observability/xlog"
	"github.com/omeyang/hisab/pkg/observability/xmetrics"
	"github.com/omeyang/hisab/pkg/resilience/xlimit"
	"github.com/omeyang/hisab/pkg/resilience/xretry"
	"github.com/omeyang/hisab/pkg/storage/xcache"
	"github.com/omeyang/hisab/pkg/util/xresult"
)

// errNotConfigured 可选依赖未配置
var errNotConfigured = errors.New("app: not configured")

// App 一个已组装、可运行的服务实例。
type App struct {
	cfg     Config
	logger  xlog.Logger
	cache   xcache.Cache
	limiter xlimit.Limiter
	fetcher *xfetch.Client
	handler http.Handler

	// closers 按创建逆序执行
	closers []func() error
}

// New 按 cfg 组装服务。Redis 连接失败时降级到进程内实现；
// 配置了 Postgres 但无法连接时返回错误。
func New(ctx context.Context, cfg Config, logger xlog.Logger) (_ *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = xlog.Discard()
	}
	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			err = errors.Join(err, a.Close())
		}
	}()

	observer, err := xmetrics.NewOTelObserver(xmetrics.WithInstrumentationName("github.com/omeyang/hisab"))
	if err != nil {
		return nil, err
	}

	rdb := a.connectRedis(ctx)

	if a.cache, err = a.buildCache(rdb); err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.cache.Close)

	if a.limiter, err = a.buildLimiter(rdb, observer); err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.limiter.Close)

	store, err := a.buildStore(ctx)
	if err != nil {
		return nil, err
	}

	a.fetcher, err = xfetch.New(a.cache,
		xfetch.WithTimeout(cfg.Rates.Timeout),
		xfetch.WithDefaultTTL(cfg.Rates.TTL),
		xfetch.WithSingleflight(cfg.Rates.Singleflight),
		xfetch.WithLogger(logger),
		xfetch.WithObserver(observer),
	)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { a.fetcher.Close(); return nil })

	svc := friends.NewService(store, a.cache, cfg.Friends.CacheTTL, logger)
	ratesHandler, err := rates.NewHandler(a.fetcher, cfg.Rates.Upstream, logger)
	if err != nil {
		return nil, err
	}
	a.handler = a.routes(friends.NewHandler(svc, logger), ratesHandler)
	return a, nil
}

// Handler 返回完整的 HTTP 处理链。
func (a *App) Handler() http.Handler { return a.handler }

// Run 运行 HTTP 服务及后台任务，阻塞到收到信号、ctx 取消或任一服务出错。
func (a *App) Run(ctx context.Context, extra ...xrun.Service) error {
	server := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           a.handler,
		ReadHeaderTimeout: a.cfg.Server.ReadHeaderTimeout,
	}

	services := []xrun.Service{
		xrun.Named("http", xrun.HTTPServer(server, a.cfg.Server.ShutdownTimeout)),
	}
	if sweeper, ok := a.cache.(xcache.Sweeper); ok && a.cfg.Cache.SweepInterval > 0 {
		services = append(services, xrun.Named("cache-sweep",
			xrun.Ticker(a.cfg.Cache.SweepInterval, false, func(ctx context.Context) error {
				n, err := sweeper.Sweep(ctx)
				if err != nil {
					a.logger.Warn(ctx, "cache sweep failed", xlog.Err(err))
					return nil
				}
				if n > 0 {
					a.logger.Debug(ctx, "cache sweep", slog.Int("removed", n))
				}
				return nil
			})))
	}
	services = append(services, extra...)

	a.logger.Info(ctx, "hisabd listening", slog.String("addr", server.Addr))
	return xrun.Run(ctx, []xrun.Option{xrun.WithName("hisabd"), xrun.WithLogger(a.logger)}, services...)
}

// Close 释放全部资源，可在 New 失败路径上对部分初始化的 App 调用。
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && !errors.Is(err, xcache.ErrClosed) && !errors.Is(err, xlimit.ErrLimiterClosed) {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// connectRedis 连接 Redis。未配置或连接失败都以 Failed 返回，由调用方决定降级。
func (a *App) connectRedis(ctx context.Context) xresult.Result[*redis.Client] {
	if a.cfg.Redis.Addr == "" {
		return xresult.Failed[*redis.Client](errNotConfigured)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	err := xretry.Do(ctx, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}, xretry.WithAttempts(3), xretry.WithOnRetry(func(n int, err error) {
		a.logger.Warn(ctx, "redis ping failed", slog.Int("attempt", n), xlog.Err(err))
	}))
	if err != nil {
		_ = client.Close()
		return xresult.Failed[*redis.Client](fmt.Errorf("app: redis %s: %w", a.cfg.Redis.Addr, err))
	}
	a.closers = append(a.closers, client.Close)
	return xresult.Loaded(client)
}

func (a *App) buildCache(rdb xresult.Result[*redis.Client]) (xcache.Cache, error) {
	if a.cfg.Cache.Backend == "redis" {
		if client, ok := rdb.Get(); ok {
			return xcache.NewRedis(client,
				xcache.WithRedisDefaultTTL(a.cfg.Cache.DefaultTTL),
				xcache.WithRedisMeterProvider(otel.GetMeterProvider()),
			)
		}
		a.logger.Warn(context.Background(), "redis cache unavailable, using memory cache", xlog.Err(rdb.Reason()))
	}
	return xcache.NewMemory(
		xcache.WithDefaultTTL(a.cfg.Cache.DefaultTTL),
		xcache.WithMaxEntries(a.cfg.Cache.MaxEntries),
		xcache.WithMeterProvider(otel.GetMeterProvider()),
	)
}

func (a *App) buildLimiter(rdb xresult.Result[*redis.Client], observer xmetrics.Observer) (xlimit.Limiter, error) {
	opts := []xlimit.Option{
		xlimit.WithRule(a.cfg.Limit.Rule),
		xlimit.WithFallback(a.cfg.Limit.Fallback),
		xlimit.WithLogger(a.logger),
		xlimit.WithObserver(observer),
		xlimit.WithMeterProvider(otel.GetMeterProvider()),
	}
	if a.cfg.Limit.Backend == "redis" {
		if client, ok := rdb.Get(); ok {
			return xlimit.NewWithFallback(client, opts...)
		}
		a.logger.Warn(context.Background(), "redis limiter unavailable, using local limiter", xlog.Err(rdb.Reason()))
	}
	return xlimit.NewLocal(opts...)
}

// buildStore 未配置 DSN 时使用内存存储。
func (a *App) buildStore(ctx context.Context) (friends.Store, error) {
	pool, err := a.connectPostgres(ctx).Unwrap()
	if errors.Is(err, errNotConfigured) {
		a.logger.Warn(ctx, "postgres not configured, friendships are kept in memory")
		return friends.NewMemoryStore(), nil
	}
	if err != nil {
		return nil, err
	}

	pg := friends.NewPostgresStore(pool)
	if a.cfg.Postgres.Migrate {
		if err := pg.Migrate(ctx); err != nil {
			return nil, err
		}
	}
	return friends.NewGuardedStore(pg, a.cfg.Friends.BreakerFailures, a.cfg.Friends.BreakerTimeout, a.logger), nil
}

func (a *App) connectPostgres(ctx context.Context) xresult.Result[*pgxpool.Pool] {
	if a.cfg.Postgres.DSN == "" {
		return xresult.Failed[*pgxpool.Pool](errNotConfigured)
	}
	pcfg, err := pgxpool.ParseConfig(a.cfg.Postgres.DSN)
	if err != nil {
		return xresult.Failed[*pgxpool.Pool](fmt.Errorf("app: postgres dsn: %w", err))
	}
	if a.cfg.Postgres.MaxConns > 0 {
		pcfg.MaxConns = a.cfg.Postgres.MaxConns
	}

	pool, err := xretry.DoWithResult(ctx, func(ctx context.Context) (*pgxpool.Pool, error) {
		pool, err := pgxpool.NewWithConfig(ctx, pcfg)
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return pool, nil
	}, xretry.WithAttempts(a.cfg.Postgres.ConnAttempts), xretry.WithOnRetry(func(n int, err error) {
		a.logger.Warn(ctx, "postgres connect failed", slog.Int("attempt", n), xlog.Err(err))
	}))
	if err != nil {
		return xresult.Failed[*pgxpool.Pool](fmt.Errorf("app: postgres: %w", err))
	}
	a.closers = append(a.closers, func() error { pool.Close(); return nil })
	return xresult.Loaded(pool)
}
