package xlog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotationConfig 日志文件轮转配置（lumberjack）
type RotationConfig struct {
	MaxSizeMB  int  // 单文件最大 MB，0 使用 lumberjack 默认值（100MB）
	MaxBackups int  // 保留旧文件个数，0 不限
	MaxAgeDays int  // 保留天数，0 不限
	Compress   bool // 是否 gzip 压缩旧文件
}

// Builder Logger 构建器
//
// 链式调用中的错误会被记录，在 Build() 时统一返回第一个错误。
type Builder struct {
	output    io.Writer
	level     Level
	format    string
	addSource bool
	enrich    bool
	onError   func(error)
	rotator   *lumberjack.Logger
	err       error
}

// New 创建 Builder，默认 stderr、Info 级别、text 格式、启用 enrich。
func New() *Builder {
	return &Builder{
		output: os.Stderr,
		level:  LevelInfo,
		format: "text",
		enrich: true,
	}
}

// SetOutput 设置输出目标，nil 时报错
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if w == nil {
		b.setErr(errors.New("xlog: nil output"))
		return b
	}
	b.output = w
	return b
}

// SetLevel 设置初始日志级别
func (b *Builder) SetLevel(level Level) *Builder {
	b.level = level
	return b
}

// SetLevelString 以字符串设置日志级别
func (b *Builder) SetLevelString(s string) *Builder {
	level, err := ParseLevel(s)
	if err != nil {
		b.setErr(err)
		return b
	}
	b.level = level
	return b
}

// SetFormat 设置输出格式：text 或 json
func (b *Builder) SetFormat(format string) *Builder {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "text", "json":
		b.format = format
	case "":
	default:
		b.setErr(fmt.Errorf("xlog: unknown format %q", format))
	}
	return b
}

// SetAddSource 是否记录调用位置
func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetEnrich 是否注入 xctx 请求字段
func (b *Builder) SetEnrich(enable bool) *Builder {
	b.enrich = enable
	return b
}

// SetOnError 设置 handler 写入失败时的回调
func (b *Builder) SetOnError(fn func(error)) *Builder {
	b.onError = fn
	return b
}

// SetRotation 输出到带轮转的文件，覆盖 SetOutput。
func (b *Builder) SetRotation(filename string, cfg RotationConfig) *Builder {
	if strings.TrimSpace(filename) == "" {
		b.setErr(errors.New("xlog: empty rotation filename"))
		return b
	}
	if cfg.MaxSizeMB < 0 || cfg.MaxBackups < 0 || cfg.MaxAgeDays < 0 {
		b.setErr(errors.New("xlog: negative rotation limits"))
		return b
	}
	b.rotator = &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	return b
}

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build 构建 Logger，返回 cleanup 函数用于关闭轮转文件。
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.err != nil {
		return nil, nil, b.err
	}

	out := b.output
	cleanup := func() error { return nil }
	if b.rotator != nil {
		out = b.rotator
		cleanup = b.rotator.Close
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.Level(b.level))
	opts := &slog.HandlerOptions{Level: levelVar, AddSource: b.addSource}

	var handler slog.Handler
	if b.format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	if b.enrich {
		enriched, err := NewEnrichHandler(handler)
		if err != nil {
			return nil, nil, err
		}
		handler = enriched
	}

	return &xlogger{
		handler:    handler,
		levelVar:   levelVar,
		addSource:  b.addSource,
		onError:    b.onError,
		errorCount: new(atomic.Uint64),
	}, cleanup, nil
}
