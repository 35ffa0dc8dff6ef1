package xcache

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/omeyang/hisab/xcache"

// cacheMetrics 命中/未命中/淘汰计数。nil 接收者上的方法为空操作。
type cacheMetrics struct {
	hits      metric.Int64Counter
	misses    metric.Int64Counter
	evictions metric.Int64Counter
	attrs     metric.MeasurementOption
}

func newCacheMetrics(provider metric.MeterProvider, backend string) (*cacheMetrics, error) {
	if provider == nil {
		return nil, nil
	}
	meter := provider.Meter(meterName)

	hits, err := meter.Int64Counter("hisab.cache.hits", metric.WithDescription("cache hits"))
	if err != nil {
		return nil, fmt.Errorf("xcache: create hits counter: %w", err)
	}
	misses, err := meter.Int64Counter("hisab.cache.misses", metric.WithDescription("cache misses, expired reads included"))
	if err != nil {
		return nil, fmt.Errorf("xcache: create misses counter: %w", err)
	}
	evictions, err := meter.Int64Counter("hisab.cache.evictions", metric.WithDescription("entries removed by expiry or capacity"))
	if err != nil {
		return nil, fmt.Errorf("xcache: create evictions counter: %w", err)
	}

	return &cacheMetrics{
		hits:      hits,
		misses:    misses,
		evictions: evictions,
		attrs:     metric.WithAttributes(attribute.String("backend", backend)),
	}, nil
}

func (m *cacheMetrics) hit(ctx context.Context) {
	if m != nil {
		m.hits.Add(context.WithoutCancel(ctx), 1, m.attrs)
	}
}

func (m *cacheMetrics) miss(ctx context.Context) {
	if m != nil {
		m.misses.Add(context.WithoutCancel(ctx), 1, m.attrs)
	}
}

func (m *cacheMetrics) evict(ctx context.Context, n int) {
	if m != nil && n > 0 {
		m.evictions.Add(context.WithoutCancel(ctx), int64(n), m.attrs)
	}
}
