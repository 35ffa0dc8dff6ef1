package app

import (
	"context"
	"log/slog"

	"github.com/omeyang/hisab/pkg/config/xconf"
	"github.com/omeyang/hisab/pkg/observability/xlog"
)

// LogLevelReloader 返回配置重载回调：重新解析配置并应用新的日志级别。
// 其他字段需要重启才能生效。
func LogLevelReloader(logger xlog.LoggerWithLevel) xconf.WatchCallback {
	return func(cfg xconf.Config, err error) {
		ctx := context.Background()
		if err != nil {
			logger.Warn(ctx, "config reload failed", xlog.Err(err))
			return
		}
		next, err := xconf.Load(cfg, "", DefaultConfig())
		if err != nil {
			logger.Warn(ctx, "config reload failed", xlog.Err(err))
			return
		}
		level, err := xlog.ParseLevel(next.Log.Level)
		if err != nil {
			logger.Warn(ctx, "config reload: invalid log level", xlog.Err(err))
			return
		}
		if level != logger.GetLevel() {
			logger.SetLevel(level)
			logger.Info(ctx, "log level changed", slog.String("level", level.String()))
		}
	}
}
