package xlimit

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/hisab/pkg/observability/xlog"
	"github.com/omeyang/hisab/pkg/observability/xmetrics"
)

// FallbackStrategy Redis 不可用时的降级策略
type FallbackStrategy string

const (
	// FallbackLocal 降级到进程内计数（默认）
	FallbackLocal FallbackStrategy = "local"
	// FallbackOpen 全部放行
	FallbackOpen FallbackStrategy = "fail-open"
	// FallbackClose 全部拒绝，并返回 ErrRedisUnavailable
	FallbackClose FallbackStrategy = "fail-close"
)

// Option 限流器配置选项
type Option func(*options)

type options struct {
	rule          Rule
	keyPrefix     string
	fallback      FallbackStrategy
	logger        xlog.Logger
	observer      xmetrics.Observer
	meterProvider metric.MeterProvider
	clock         func() time.Time
	onFallback    func(key string, strategy FallbackStrategy, err error)
}

func defaultOptions() *options {
	return &options{
		rule:      DefaultRule,
		keyPrefix: "hisab:ratelimit:",
		fallback:  FallbackLocal,
		clock:     time.Now,
	}
}

// WithRule 设置 Allow 使用的默认规则
func WithRule(rule Rule) Option {
	return func(o *options) {
		o.rule = rule
	}
}

// WithKeyPrefix 设置 Redis 键前缀
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		o.keyPrefix = prefix
	}
}

// WithFallback 设置降级策略，仅 NewWithFallback 使用
func WithFallback(strategy FallbackStrategy) Option {
	return func(o *options) {
		o.fallback = strategy
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger xlog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver 设置观测器（span）
func WithObserver(observer xmetrics.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithMeterProvider 启用限流指标
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = provider
	}
}

// WithClock 设置时间源，测试时注入
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithOnFallback 设置降级回调
func WithOnFallback(fn func(key string, strategy FallbackStrategy, err error)) Option {
	return func(o *options) {
		o.onFallback = fn
	}
}

func (o *options) validate() error {
	if err := o.rule.Validate(); err != nil {
		return err
	}
	switch o.fallback {
	case FallbackLocal, FallbackOpen, FallbackClose:
		return nil
	default:
		return fmt.Errorf("%w: unknown fallback strategy %q", ErrInvalidRule, o.fallback)
	}
}
