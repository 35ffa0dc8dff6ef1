package xfetch

import (
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/omeyang/hisab/pkg/observability/xlog"
	"github.com/omeyang/hisab/pkg/observability/xmetrics"
)

// DefaultTTL 成功响应的默认缓存时间
const DefaultTTL = 30 * time.Second

// Options 单次请求参数。除 TTL 外的字段都参与缓存键计算。
type Options struct {
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`

	// TTL 成功响应的缓存时间，<= 0 使用客户端默认值
	TTL time.Duration `json:"-"`
}

// Option 客户端配置选项
type Option func(*clientOptions)

type clientOptions struct {
	http         *resty.Client
	timeout      time.Duration
	headers      map[string]string
	ttl          time.Duration
	singleflight bool
	logger       xlog.Logger
	observer     xmetrics.Observer
}

func defaultClientOptions() *clientOptions {
	return &clientOptions{
		timeout: 10 * time.Second,
		ttl:     DefaultTTL,
	}
}

// WithRestyClient 使用外部 resty 客户端，Close 不会释放它的连接
func WithRestyClient(c *resty.Client) Option {
	return func(o *clientOptions) {
		o.http = c
	}
}

// WithTimeout 设置请求超时（仅对内部创建的 resty 客户端生效）
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithHeaders 设置每个请求都携带的请求头（不参与缓存键）
func WithHeaders(headers map[string]string) Option {
	return func(o *clientOptions) {
		o.headers = headers
	}
}

// WithDefaultTTL 设置成功响应的默认缓存时间
func WithDefaultTTL(ttl time.Duration) Option {
	return func(o *clientOptions) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithSingleflight 合并同一缓存键上的并发未命中
func WithSingleflight(enable bool) Option {
	return func(o *clientOptions) {
		o.singleflight = enable
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger xlog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithObserver 设置观测器
func WithObserver(observer xmetrics.Observer) Option {
	return func(o *clientOptions) {
		o.observer = observer
	}
}
