// Package rates 通过带缓存的出站请求代理汇率查询。
package rates

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/omeyang/hisab/pkg/net/xfetch"
	"github.com/omeyang/hisab/pkg/observability/xlog"
)

// DefaultBase 未指定 base 时使用的货币。
const DefaultBase = "USD"

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// Fetcher 由 *xfetch.Client 实现。
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts xfetch.Options) (*xfetch.Response, error)
}

// Handler GET /api/rates?base=XXX
type Handler struct {
	fetcher  Fetcher
	upstream string
	logger   xlog.Logger
}

// NewHandler 创建 Handler。upstream 为汇率服务地址，base 以查询参数追加。
func NewHandler(fetcher Fetcher, upstream string, logger xlog.Logger) (*Handler, error) {
	u, err := url.Parse(upstream)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Join(errors.New("rates: invalid upstream url"), err)
	}
	if logger == nil {
		logger = xlog.Discard()
	}
	return &Handler{fetcher: fetcher, upstream: upstream, logger: logger}, nil
}

// Register 注册路由。
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/rates", h)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	base := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("base")))
	if base == "" {
		base = DefaultBase
	}
	if !currencyCode.MatchString(base) {
		http.Error(w, "base must be a three-letter currency code", http.StatusBadRequest)
		return
	}

	target := h.target(base)
	resp, err := h.fetcher.Fetch(r.Context(), target, xfetch.Options{
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		h.logger.Warn(r.Context(), "rates upstream failed", slog.String("base", base), xlog.Err(err))
		status := http.StatusInternalServerError
		if errors.Is(err, xfetch.ErrFetch) {
			status = http.StatusBadGateway
		}
		http.Error(w, http.StatusText(status), status)
		return
	}
	if !resp.OK() {
		h.logger.Warn(r.Context(), "rates upstream returned error status",
			slog.String("base", base), slog.Int("status", resp.StatusCode))
		http.Error(w, "upstream returned "+strconv.Itoa(resp.StatusCode), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=30")
	if resp.Cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp.Body)
}

func (h *Handler) target(base string) string {
	sep := "?"
	if strings.Contains(h.upstream, "?") {
		sep = "&"
	}
	return h.upstream + sep + "base=" + url.QueryEscape(base)
}
