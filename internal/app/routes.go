package app

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/omeyang/hisab/internal/friends"
	"github.com/omeyang/hisab/internal/rates"
	"github.com/omeyang/hisab/pkg/context/xctx"
	"github.com/omeyang/hisab/pkg/observability/xlog"
	"github.com/omeyang/hisab/pkg/resilience/xlimit"
)

const (
	// RequestIDHeader 请求 ID 头，缺失时生成。
	RequestIDHeader = "X-Request-ID"
	// AdminTokenHeader 诊断接口的管理令牌头
	AdminTokenHeader = "X-Admin-Token"
)

func (a *App) routes(fh *friends.Handler, rh *rates.Handler) http.Handler {
	mux := http.NewServeMux()
	fh.Register(mux)
	rh.Register(mux)
	mux.HandleFunc("GET /internal/cache/stats", a.cacheStats)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	limited := xlimit.HTTPMiddleware(a.limiter,
		xlimit.WithSkipFunc(func(r *http.Request) bool { return r.URL.Path == "/healthz" }),
		xlimit.WithMiddlewareLogger(a.logger),
	)(mux)
	return requestID(a.accessLog(limited))
}

func (a *App) cacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.cache.Stats(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), "cache stats failed", xlog.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	// 键中含用户 ID 与上游 URL，未授权时只返回条目数
	var body any = stats
	if !a.isAdmin(r) {
		body = struct {
			Size int `json:"size"`
		}{stats.Size}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(body)
}

func (a *App) isAdmin(r *http.Request) bool {
	token := a.cfg.Server.AdminToken
	if token == "" {
		return false
	}
	got := r.Header.Get(AdminTokenHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
}

// requestID 沿用上游 X-Request-ID，否则生成新的，并回写到响应头。
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := r.Header.Get(RequestIDHeader); id != "" {
			if c, err := xctx.WithRequestID(ctx, id); err == nil {
				ctx = c
			}
		}
		ctx, id, err := xctx.EnsureRequestID(ctx)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

func (a *App) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		a.logger.Info(r.Context(), "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("elapsed", time.Since(start)),
		)
	})
}
