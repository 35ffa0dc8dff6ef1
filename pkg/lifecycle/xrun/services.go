package xrun

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Server 可优雅关闭的服务器，*http.Server 满足此接口。
type Server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServer 运行 server，ctx 取消后在 shutdownTimeout 内优雅关闭。
// shutdownTimeout <= 0 表示等待在途请求全部完成。
func HTTPServer(server Server, shutdownTimeout time.Duration) Func {
	return func(ctx context.Context) error {
		if server == nil {
			return ErrNilServer
		}

		serveErr := make(chan error, 1)
		go func() { serveErr <- server.ListenAndServe() }()

		select {
		case err := <-serveErr:
			// 未经 ctx 取消就退出：启动失败或外部关闭
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		shutdownCtx := context.WithoutCancel(ctx)
		if shutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(shutdownCtx, shutdownTimeout)
			defer cancel()
		}
		shutdownErr := server.Shutdown(shutdownCtx)
		if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Join(err, shutdownErr)
		}
		return shutdownErr
	}
}

// Ticker 每隔 interval 执行 fn，fn 返回错误时停止。
// immediate 为 true 时启动后先执行一次。
func Ticker(interval time.Duration, immediate bool, fn Func) Func {
	return func(ctx context.Context) error {
		if interval <= 0 {
			return ErrInvalidInterval
		}
		if fn == nil {
			return ErrNilFunc
		}
		if immediate && ctx.Err() == nil {
			if err := fn(ctx); err != nil {
				return err
			}
		}

		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				if err := fn(ctx); err != nil {
					return err
				}
			}
		}
	}
}
