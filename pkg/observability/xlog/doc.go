// Package xlog 提供基于 log/slog 的结构化日志。
//
// 所有日志方法都要求 context.Context，EnrichHandler 从中提取 xctx 字段
// （request_id、client_key、user_id）自动注入到每条日志。
//
// 构建方式：
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("info").
//		SetFormat("json").
//		SetRotation("/var/log/hisab/api.log", xlog.RotationConfig{MaxSizeMB: 100}).
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//
// Build 返回 LoggerWithLevel，可通过 SetLevel 在运行时调整级别（配置热加载时使用）。
// 方法签名只接受 slog.Attr，不支持隐式 key-value。
package xlog
