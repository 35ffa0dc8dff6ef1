package xlimit

import (
	"net/http"

	"github.com/omeyang/hisab/pkg/context/xctx"
	"github.com/omeyang/hisab/pkg/observability/xlog"
)

// HTTPMiddleware 创建 HTTP 限流中间件
//
// 示例:
//
//	limiter, _ := xlimit.NewLocal(xlimit.WithRule(xlimit.Rule{Window: time.Minute, MaxRequests: 100}))
//	mux := http.NewServeMux()
//	handler := xlimit.HTTPMiddleware(limiter)(mux)
func HTTPMiddleware(limiter Limiter, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if limiter == nil {
		panic("xlimit: HTTPMiddleware requires a non-nil Limiter")
	}

	mopts := defaultMiddlewareOptions()
	for _, opt := range opts {
		opt(mopts)
	}
	mopts.sanitize()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if mopts.SkipFunc != nil && mopts.SkipFunc(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := mopts.ClientKey(r)
			if ctx, err := xctx.WithClientKey(r.Context(), key); err == nil {
				r = r.WithContext(ctx)
			}

			if handleHTTPLimit(w, r, limiter, mopts, key) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// handleHTTPLimit 返回 true 表示请求已被拒绝。
func handleHTTPLimit(w http.ResponseWriter, r *http.Request, limiter Limiter, mopts *MiddlewareOptions, key string) bool {
	result, err := limiter.Allow(r.Context(), key)
	if err != nil {
		// FallbackClose 返回 Allowed=false + ErrRedisUnavailable，需要拒绝；
		// 其余错误 fail-open。
		if result != nil && !result.Allowed {
			mopts.DenyHandler(w, r, result)
			return true
		}
		if mopts.Logger != nil {
			mopts.Logger.Warn(r.Context(), "rate limiter error, request allowed", xlog.Err(err))
		}
		return false
	}

	if mopts.EnableHeaders {
		result.SetHeaders(w)
	}
	if !result.Allowed {
		mopts.DenyHandler(w, r, result)
		return true
	}
	return false
}
