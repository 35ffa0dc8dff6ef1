package xlimit

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricNameRequestsTotal = "xlimit.requests.total"
	metricNameDeniedTotal   = "xlimit.denied.total"
	metricNameFallbackTotal = "xlimit.fallback.total"
	metricNameCheckDuration = "xlimit.check.duration"
)

// Metrics 限流指标收集器。nil 接收者上的方法为空操作。
type Metrics struct {
	requestsTotal metric.Int64Counter
	deniedTotal   metric.Int64Counter
	fallbackTotal metric.Int64Counter
	checkDuration metric.Float64Histogram
}

// NewMetrics 创建指标收集器，meterProvider 为 nil 时返回 nil。
func NewMetrics(meterProvider metric.MeterProvider) (*Metrics, error) {
	if meterProvider == nil {
		return nil, nil
	}
	meter := meterProvider.Meter("github.com/omeyang/hisab/xlimit")

	requestsTotal, err := meter.Int64Counter(metricNameRequestsTotal,
		metric.WithDescription("限流检查总数"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	deniedTotal, err := meter.Int64Counter(metricNameDeniedTotal,
		metric.WithDescription("被限流拒绝的请求数"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	fallbackTotal, err := meter.Int64Counter(metricNameFallbackTotal,
		metric.WithDescription("降级次数"),
		metric.WithUnit("{fallback}"),
	)
	if err != nil {
		return nil, err
	}
	checkDuration, err := meter.Float64Histogram(metricNameCheckDuration,
		metric.WithDescription("限流检查耗时"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		requestsTotal: requestsTotal,
		deniedTotal:   deniedTotal,
		fallbackTotal: fallbackTotal,
		checkDuration: checkDuration,
	}, nil
}

// RecordCheck 记录一次检查
func (m *Metrics) RecordCheck(ctx context.Context, backend string, allowed bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	attrs := metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.Bool("allowed", allowed),
	)
	m.requestsTotal.Add(ctx, 1, attrs)
	if !allowed {
		m.deniedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("backend", backend)))
	}
	m.checkDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("backend", backend)))
}

// RecordFallback 记录一次降级
func (m *Metrics) RecordFallback(ctx context.Context, strategy FallbackStrategy) {
	if m == nil {
		return
	}
	m.fallbackTotal.Add(context.WithoutCancel(ctx), 1,
		metric.WithAttributes(attribute.String("strategy", string(strategy))))
}
