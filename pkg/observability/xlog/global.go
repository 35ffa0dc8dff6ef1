package xlog

import (
	"io"
	"sync/atomic"
)

// =============================================================================
// 全局 Logger
//
// 定位：CLI 启动阶段等无法依赖注入的场景，服务端推荐显式持有 Logger。
// =============================================================================

var globalLogger atomic.Pointer[LoggerWithLevel]

// Default 返回全局默认 Logger，首次调用时创建（stderr，Info，text）。
func Default() LoggerWithLevel {
	if l := globalLogger.Load(); l != nil {
		return *l
	}
	logger, _, err := New().Build()
	if err != nil {
		// 默认参数不会失败
		panic(err)
	}
	globalLogger.CompareAndSwap(nil, &logger)
	return *globalLogger.Load()
}

// SetDefault 替换全局默认 Logger，nil 被忽略。
func SetDefault(l LoggerWithLevel) {
	if l == nil {
		return
	}
	globalLogger.Store(&l)
}

// Discard 返回丢弃所有输出的 Logger，用于测试和未配置日志的组件。
func Discard() LoggerWithLevel {
	logger, _, _ := New().SetOutput(io.Discard).SetLevel(LevelError + 4).Build()
	return logger
}
