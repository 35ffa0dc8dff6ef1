package rates

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/hisab/pkg/net/xfetch"
	"github.com/omeyang/hisab/pkg/storage/xcache"
)

func newHandler(t *testing.T, upstream string) *Handler {
	t.Helper()
	cache, err := xcache.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	client, err := xfetch.New(cache)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	h, err := NewHandler(client, upstream, nil)
	require.NoError(t, err)
	return h
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandler_ProxiesAndCaches(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "EUR", r.URL.Query().Get("base"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"base":"EUR","rates":{"USD":1.08}}`))
	}))
	defer upstream.Close()

	h := newHandler(t, upstream.URL+"/latest")

	rec := get(h, "/api/rates?base=eur")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"base":"EUR","rates":{"USD":1.08}}`, rec.Body.String())
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	rec = get(h, "/api/rates?base=EUR")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestHandler_UpstreamErrors(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	h := newHandler(t, upstream.URL)

	assert.Equal(t, http.StatusBadGateway, get(h, "/api/rates").Code)

	upstream.Close()
	rec := get(h, "/api/rates?base=GBP")
	assert.Equal(t, http.StatusBadGateway, rec.Code, "transport failure")
}

func TestHandler_InvalidBase(t *testing.T) {
	h := newHandler(t, "http://127.0.0.1:1/latest")
	assert.Equal(t, http.StatusBadRequest, get(h, "/api/rates?base=EURO").Code)
}

func TestNewHandler_InvalidUpstream(t *testing.T) {
	_, err := NewHandler(nil, "not a url", nil)
	assert.Error(t, err)
}
