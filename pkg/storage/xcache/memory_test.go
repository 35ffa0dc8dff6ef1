package xcache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// fakeClock 可手动推进的时间源
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestMemory(t *testing.T, opts ...MemoryOption) (*memoryCache, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	c, err := newMemory(append([]MemoryOption{WithClock(clock.Now)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, clock
}

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(t)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	v, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	_, ok, err = c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_OverwriteResetsTTL(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestMemory(t)

	require.NoError(t, c.Set(ctx, "k", []byte("old"), 10*time.Second))
	clock.Advance(8 * time.Second)
	require.NoError(t, c.Set(ctx, "k", []byte("new"), 10*time.Second))
	clock.Advance(8 * time.Second)

	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", string(v))
}

func TestMemory_ExpiryOnRead(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestMemory(t)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Second))

	// 有效条件为 now - createdAt <= ttl，边界处仍命中。
	// Redis 的 PX 键在 now > 过期时刻时才失效，两个后端在边界上一致。
	clock.Advance(10 * time.Second)
	_, ok, _ := c.Get(ctx, "k")
	assert.True(t, ok, "entry is valid while elapsed == ttl")

	clock.Advance(time.Millisecond)
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)

	st, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Size, "expired read evicts the entry")
}

func TestMemory_DefaultTTL(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestMemory(t)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	clock.Advance(DefaultTTL)
	_, ok, _ := c.Get(ctx, "k")
	assert.True(t, ok)

	clock.Advance(time.Millisecond)
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemory_StatsDoesNotExpire(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestMemory(t)

	require.NoError(t, c.Set(ctx, "b", []byte("v"), time.Second))
	require.NoError(t, c.Set(ctx, "a", []byte("v"), time.Hour))
	clock.Advance(time.Minute)

	st, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Size: 2, Keys: []string{"a", "b"}}, st)

	st2, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, st, st2)
}

func TestMemory_Delete(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(t)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	removed, err := c.Delete(ctx, "k")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = c.Delete(ctx, "k")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestMemory_ClearByPattern(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(t)

	for _, k := range []string{"/api/friends:{}", "/api/friends/1:{}", "/api/groups:{}", "a.c", "abc"} {
		require.NoError(t, c.Set(ctx, k, []byte("v"), 0))
	}

	n, err := c.ClearByPattern(ctx, "/api/friends")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// 字面匹配：'.' 不是通配符
	n, err = c.ClearByPattern(ctx, "a.c")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	st, _ := c.Stats(ctx)
	assert.Equal(t, []string{"/api/groups:{}", "abc"}, st.Keys)

	n, err = c.ClearByPattern(ctx, "nothing")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemory_ClearIdempotent(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(t)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Clear(ctx))
	require.NoError(t, c.Clear(ctx))

	st, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Size)
	assert.Empty(t, st.Keys)
}

func TestMemory_Sweep(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestMemory(t)

	require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Second))
	require.NoError(t, c.Set(ctx, "long", []byte("v"), time.Hour))
	clock.Advance(2 * time.Second)

	n, err := c.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	st, _ := c.Stats(ctx)
	assert.Equal(t, []string{"long"}, st.Keys)
}

func TestMemory_MaxEntriesEvictsLeastRecent(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(t, WithMaxEntries(2))

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	_, _, _ = c.Get(ctx, "a")
	require.NoError(t, c.Set(ctx, "c", []byte("3"), 0))

	st, _ := c.Stats(ctx)
	assert.Equal(t, []string{"a", "c"}, st.Keys)
}

func TestMemory_ValueIsCopied(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(t)

	buf := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", buf, 0))
	buf[0] = 'x'

	v, _, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(v))
}

func TestMemory_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewMemory(WithMaxEntries(-1))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	c, _ := newTestMemory(t)
	assert.ErrorIs(t, c.Set(ctx, "", nil, 0), ErrEmptyKey)
	_, _, err = c.Get(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyKey)

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Close(), ErrClosed)
	assert.ErrorIs(t, c.Set(ctx, "k", nil, 0), ErrClosed)
	_, err = c.Stats(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(t)

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				key := fmt.Sprintf("k%d-%d", i, j%10)
				_ = c.Set(ctx, key, []byte("v"), 0)
				_, _, _ = c.Get(ctx, key)
				if j%25 == 0 {
					_, _ = c.ClearByPattern(ctx, fmt.Sprintf("k%d-", i))
				}
			}
		}()
	}
	wg.Wait()

	st, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, st.Size, 160)
}

func TestMemory_Metrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	c, clock := newTestMemory(t, WithMeterProvider(mp))

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Second))
	_, _, _ = c.Get(ctx, "k")
	_, _, _ = c.Get(ctx, "nope")
	clock.Advance(2 * time.Second)
	_, _, _ = c.Get(ctx, "k")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	got := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					got[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), got["hisab.cache.hits"])
	assert.Equal(t, int64(2), got["hisab.cache.misses"])
	assert.Equal(t, int64(1), got["hisab.cache.evictions"])
}
