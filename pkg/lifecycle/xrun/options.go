package xrun

import (
	"os"
	"syscall"

	"github.com/omeyang/hisab/pkg/observability/xlog"
)

// Option Group 选项
type Option func(*options)

type options struct {
	logger  xlog.Logger
	name    string
	signals []os.Signal
}

func defaultOptions() *options {
	return &options{
		logger:  xlog.Default(),
		name:    "xrun",
		signals: DefaultSignals(),
	}
}

// DefaultSignals 默认监听 SIGINT 与 SIGTERM。
func DefaultSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM}
}

// WithLogger 设置生命周期日志，nil 忽略。
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithName 设置 Group 名称，用于日志标识。
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithSignals 覆盖 Run 监听的信号，传空列表表示不监听信号。
func WithSignals(signals ...os.Signal) Option {
	copied := append([]os.Signal{}, signals...)
	return func(o *options) {
		o.signals = copied
	}
}
