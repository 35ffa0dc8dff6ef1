package xlimit

import (
	"net/http"

	"github.com/omeyang/hisab/pkg/observability/xlog"
)

// MiddlewareOptions HTTP 中间件配置
type MiddlewareOptions struct {
	// ClientKey 客户端键提取函数，默认 ForwardedClientKey
	ClientKey ClientKeyFunc

	// DenyHandler 请求被限流时调用
	DenyHandler func(w http.ResponseWriter, r *http.Request, result *Result)

	// SkipFunc 返回 true 时跳过限流检查
	SkipFunc func(r *http.Request) bool

	// EnableHeaders 是否在响应中添加限流头
	EnableHeaders bool

	// Logger 限流器错误（fail-open）时记录日志
	Logger xlog.Logger
}

// MiddlewareOption 中间件选项函数
type MiddlewareOption func(*MiddlewareOptions)

func defaultMiddlewareOptions() *MiddlewareOptions {
	return &MiddlewareOptions{
		ClientKey:     ForwardedClientKey,
		DenyHandler:   defaultDenyHandler,
		EnableHeaders: true,
	}
}

func (o *MiddlewareOptions) sanitize() {
	if o.ClientKey == nil {
		o.ClientKey = ForwardedClientKey
	}
	if o.DenyHandler == nil {
		o.DenyHandler = defaultDenyHandler
	}
}

// defaultDenyHandler 返回 429 与纯文本响应体
func defaultDenyHandler(w http.ResponseWriter, _ *http.Request, _ *Result) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	// 写入失败通常表示客户端已断开，无法补救
	_, _ = w.Write([]byte("Too Many Requests"))
}

// WithClientKeyFunc 设置客户端键提取函数
func WithClientKeyFunc(fn ClientKeyFunc) MiddlewareOption {
	return func(o *MiddlewareOptions) {
		o.ClientKey = fn
	}
}

// WithDenyHandler 设置自定义拒绝处理器
func WithDenyHandler(handler func(w http.ResponseWriter, r *http.Request, result *Result)) MiddlewareOption {
	return func(o *MiddlewareOptions) {
		o.DenyHandler = handler
	}
}

// WithSkipFunc 设置跳过函数
func WithSkipFunc(skip func(r *http.Request) bool) MiddlewareOption {
	return func(o *MiddlewareOptions) {
		o.SkipFunc = skip
	}
}

// WithMiddlewareHeaders 设置是否启用限流头
func WithMiddlewareHeaders(enable bool) MiddlewareOption {
	return func(o *MiddlewareOptions) {
		o.EnableHeaders = enable
	}
}

// WithMiddlewareLogger 设置中间件日志
func WithMiddlewareLogger(logger xlog.Logger) MiddlewareOption {
	return func(o *MiddlewareOptions) {
		o.Logger = logger
	}
}
