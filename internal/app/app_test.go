package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/hisab/pkg/config/xconf"
	"github.com/omeyang/hisab/pkg/observability/xlog"
	"github.com/omeyang/hisab/pkg/resilience/xlimit"
	"github.com/omeyang/hisab/pkg/storage/xcache"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Limit.Rule = xlimit.Rule{Window: time.Minute, MaxRequests: 3}
	cfg.Rates.Upstream = "http://127.0.0.1:1/latest"
	return cfg
}

func newTestApp(t *testing.T, cfg Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, xlog.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })
	return a
}

func serve(h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Cache.Backend = "memcached"
	cfg.Limit.Rule.MaxRequests = 0
	cfg.Limit.Backend = "redis"
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, xlimit.ErrInvalidRule)
	assert.Contains(t, err.Error(), "cache.backend")
	assert.Contains(t, err.Error(), "redis.addr")
}

func TestConfig_LoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hisabd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
limit:
  rule:
    window: 30s
    max_requests: 10
  fallback: fail-open
`), 0o600))

	src, err := xconf.New(path)
	require.NoError(t, err)
	cfg, err := xconf.Load(src, "", DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, xlimit.Rule{Window: 30 * time.Second, MaxRequests: 10}, cfg.Limit.Rule)
	assert.Equal(t, xlimit.FallbackOpen, cfg.Limit.Fallback)
	assert.Equal(t, "memory", cfg.Cache.Backend, "default kept")
	require.NoError(t, cfg.Validate())
}

func TestApp_RateLimitsAPI(t *testing.T) {
	a := newTestApp(t, testConfig())
	h := a.Handler()
	hdr := map[string]string{"X-User-ID": "alice", "X-Forwarded-For": "203.0.113.7, 10.0.0.1"}

	for i := range 3 {
		rec := serve(h, http.MethodGet, "/api/friends", "", hdr)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	}

	rec := serve(h, http.MethodGet, "/api/friends", "", hdr)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too Many Requests", strings.TrimSpace(rec.Body.String()))

	// 其他客户端不受影响
	other := map[string]string{"X-User-ID": "alice", "X-Real-IP": "198.51.100.2"}
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/friends", "", other).Code)

	// healthz 不计入限流
	for range 5 {
		assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/healthz", "", hdr).Code)
	}
}

func TestApp_FriendsCacheVisibleInStats(t *testing.T) {
	cfg := testConfig()
	cfg.Limit.Rule.MaxRequests = 100
	cfg.Server.AdminToken = "admin-secret"
	a := newTestApp(t, cfg)
	h := a.Handler()
	user := map[string]string{"X-User-ID": "alice", RequestIDHeader: "req-42"}

	rec := serve(h, http.MethodPost, "/api/friends", `{"friend_id":"bob","name":"Bob","balance":500}`, user)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))

	require.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/friends", "", user).Code)

	rec = serve(h, http.MethodGet, "/internal/cache/stats", "", map[string]string{AdminTokenHeader: "admin-secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	var stats xcache.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, []string{"friends:alice:list"}, stats.Keys)
}

func TestApp_CacheStatsHidesKeysWithoutAdminToken(t *testing.T) {
	cfg := testConfig()
	cfg.Limit.Rule.MaxRequests = 100
	cfg.Server.AdminToken = "admin-secret"
	a := newTestApp(t, cfg)
	h := a.Handler()
	user := map[string]string{"X-User-ID": "alice"}

	require.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/friends", "", user).Code)

	for name, hdr := range map[string]map[string]string{
		"no token":    nil,
		"wrong token": {AdminTokenHeader: "guess"},
	} {
		rec := serve(h, http.MethodGet, "/internal/cache/stats", "", hdr)
		require.Equal(t, http.StatusOK, rec.Code, name)
		assert.JSONEq(t, `{"size":1}`, rec.Body.String(), name)
		assert.NotContains(t, rec.Body.String(), "alice", name)
	}
}

func TestApp_CacheStatsWithoutConfiguredToken(t *testing.T) {
	cfg := testConfig()
	cfg.Limit.Rule.MaxRequests = 100
	a := newTestApp(t, cfg)

	// 未配置令牌时任何请求都拿不到键
	rec := serve(a.Handler(), http.MethodGet, "/internal/cache/stats", "", map[string]string{AdminTokenHeader: ""})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"size":0}`, rec.Body.String())
}

func TestApp_RatesUpstreamDown(t *testing.T) {
	cfg := testConfig()
	cfg.Rates.Timeout = 500 * time.Millisecond
	a := newTestApp(t, cfg)

	rec := serve(a.Handler(), http.MethodGet, "/api/rates?base=EUR", "", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestApp_RedisBackends(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Redis.Addr = mr.Addr()
	cfg.Cache.Backend = "redis"
	cfg.Limit.Backend = "redis"

	a := newTestApp(t, cfg)
	h := a.Handler()
	user := map[string]string{"X-User-ID": "alice"}

	require.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/friends", "", user).Code)
	assert.True(t, mr.Exists("hisab:cache:friends:alice:list"))

	keys := mr.Keys()
	var limited bool
	for _, k := range keys {
		if strings.HasPrefix(k, "hisab:ratelimit:") {
			limited = true
		}
	}
	assert.True(t, limited, "limiter state lives in redis: %v", keys)
}

func TestApp_RedisUnreachableFallsBack(t *testing.T) {
	cfg := testConfig()
	cfg.Redis.Addr = "127.0.0.1:1"
	cfg.Cache.Backend = "redis"

	a := newTestApp(t, cfg)
	_, isSweeper := a.cache.(xcache.Sweeper)
	assert.True(t, isSweeper, "memory cache used when redis is down")
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Cache.SweepInterval = 10 * time.Millisecond
	a := newTestApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestLogLevelReloader(t *testing.T) {
	logger, cleanup, err := xlog.New().SetOutput(&strings.Builder{}).Build()
	require.NoError(t, err)
	defer func() { _ = cleanup() }()

	src, err := xconf.NewFromBytes([]byte("log:\n  level: debug\n"), xconf.FormatYAML)
	require.NoError(t, err)

	LogLevelReloader(logger)(src, nil)
	assert.Equal(t, xlog.LevelDebug, logger.GetLevel())

	bad, err := xconf.NewFromBytes([]byte("log:\n  level: loud\n"), xconf.FormatYAML)
	require.NoError(t, err)
	LogLevelReloader(logger)(bad, nil)
	assert.Equal(t, xlog.LevelDebug, logger.GetLevel(), "invalid level ignored")
}
