package xfetch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/singleflight"

	"github.com/omeyang/hisab/pkg/observability/xlog"
	"github.com/omeyang/hisab/pkg/observability/xmetrics"
	"github.com/omeyang/hisab/pkg/storage/xcache"
)

// Response 出站请求的响应快照。多个调用方可能共享同一实例，只读使用。
type Response struct {
	StatusCode int         `json:"status"`
	Header     http.Header `json:"header,omitempty"`
	Body       []byte      `json:"body"`

	// Cached 是否来自缓存
	Cached bool `json:"-"`
}

// OK 2xx 视为成功
func (r *Response) OK() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// JSON 将响应体解码到 v
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// CacheKey 返回 url + ":" + json(opts)
func CacheKey(url string, opts Options) (string, error) {
	raw, err := json.Marshal(opts)
	if err != nil {
		return "", err
	}
	return url + ":" + string(raw), nil
}

// Client 带缓存的出站 HTTP 客户端，并发安全。
type Client struct {
	cache  xcache.Cache
	http   *resty.Client
	owned  bool
	opts   *clientOptions
	logger xlog.Logger
	group  *singleflight.Group
}

// New 创建客户端。cache 的生命周期由调用方管理。
func New(cache xcache.Cache, opts ...Option) (*Client, error) {
	if cache == nil {
		return nil, ErrNilCache
	}
	o := defaultClientOptions()
	for _, opt := range opts {
		opt(o)
	}

	c := &Client{cache: cache, opts: o, logger: o.logger}
	if c.logger == nil {
		c.logger = xlog.Discard()
	}

	if o.http != nil {
		c.http = o.http
	} else {
		c.http = resty.New().SetTimeout(o.timeout)
		c.owned = true
	}
	if len(o.headers) > 0 {
		c.http.SetHeaders(o.headers)
	}
	if o.singleflight {
		c.group = &singleflight.Group{}
	}
	return c, nil
}

// Fetch 发起（或从缓存返回）一次请求。非 2xx 响应不是错误。
func (c *Client) Fetch(ctx context.Context, url string, opts Options) (resp *Response, err error) {
	if strings.TrimSpace(url) == "" {
		return nil, ErrEmptyURL
	}
	key, err := CacheKey(url, opts)
	if err != nil {
		return nil, err
	}

	ctx, span := xmetrics.Start(ctx, c.opts.observer, xmetrics.SpanOptions{
		Component: "xfetch",
		Operation: "fetch",
		Kind:      xmetrics.KindClient,
		Attrs:     []xmetrics.Attr{xmetrics.String("url", url)},
	})
	defer func() {
		res := xmetrics.Result{Err: err}
		if resp != nil {
			res.Attrs = []xmetrics.Attr{
				xmetrics.Int("status", resp.StatusCode),
				xmetrics.Bool("cached", resp.Cached),
			}
		}
		span.End(res)
	}()

	if cached, ok := c.lookup(ctx, key); ok {
		return cached, nil
	}

	if c.group == nil {
		return c.fetchAndStore(ctx, key, url, opts)
	}
	return c.fetchShared(ctx, key, url, opts)
}

// fetchShared 合并同一键上的并发未命中。
// 共享请求使用独立 ctx，首个调用者取消不影响其他等待者；每个调用者各自等待。
func (c *Client) fetchShared(ctx context.Context, key, url string, opts Options) (*Response, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		sfCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.timeout)
		defer cancel()
		return c.fetchAndStore(sfCtx, key, url, opts)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		resp, ok := res.Val.(*Response)
		if !ok {
			return nil, errors.New("xfetch: unexpected result type from singleflight")
		}
		return resp, nil
	}
}

// lookup 读取缓存。后端错误或无法解码的条目按未命中处理。
func (c *Client) lookup(ctx context.Context, key string) (*Response, bool) {
	raw, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn(ctx, "fetch cache read failed", slog.String("key", key), xlog.Err(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.logger.Warn(ctx, "dropping undecodable fetch cache entry", slog.String("key", key), xlog.Err(err))
		_, _ = c.cache.Delete(ctx, key)
		return nil, false
	}
	resp.Cached = true
	return &resp, true
}

func (c *Client) fetchAndStore(ctx context.Context, key, url string, opts Options) (*Response, error) {
	method := strings.ToUpper(opts.Method)
	if method == "" {
		method = resty.MethodGet
	}

	req := c.http.R().SetContext(ctx)
	if len(opts.Headers) > 0 {
		req.SetHeaders(opts.Headers)
	}
	if opts.Body != "" {
		req.SetBody(opts.Body)
	}

	raw, err := req.Execute(method, url)
	if err != nil {
		ferr := &FetchError{Method: method, URL: url, Cause: err}
		c.logger.Error(ctx, "fetch failed",
			slog.String("method", method),
			slog.String("url", url),
			xlog.Err(err),
		)
		return nil, ferr
	}

	resp := &Response{
		StatusCode: raw.StatusCode(),
		Header:     raw.Header().Clone(),
		Body:       raw.Body(),
	}
	if !resp.OK() {
		c.logger.Debug(ctx, "fetch returned non-success status, not cached",
			slog.String("url", url),
			slog.Int("status", resp.StatusCode),
		)
		return resp, nil
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = c.opts.ttl
	}
	encoded, err := json.Marshal(resp)
	if err == nil {
		err = c.cache.Set(ctx, key, encoded, ttl)
	}
	if err != nil {
		c.logger.Warn(ctx, "fetch cache write failed", slog.String("key", key), xlog.Err(err))
	}
	return resp, nil
}

// Close 释放内部 resty 客户端的空闲连接，不关闭缓存。
func (c *Client) Close() {
	if c.owned {
		c.http.GetClient().CloseIdleConnections()
	}
}
