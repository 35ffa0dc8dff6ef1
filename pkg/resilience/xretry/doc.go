// Package xretry 基于 avast/retry-go/v5 提供带指数退避的重试。
//
//	pool, err := xretry.DoWithResult(ctx, func(ctx context.Context) (*pgxpool.Pool, error) {
//		return connect(ctx)
//	}, xretry.WithAttempts(5), xretry.WithOnRetry(func(n int, err error) {
//		logger.Warn(ctx, "connect failed", slog.Int("attempt", n), xlog.Err(err))
//	}))
//
// 被 Unrecoverable 包装的错误不再重试；ctx 取消时立即返回。
package xretry
