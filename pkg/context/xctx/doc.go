// Package xctx 提供轻量级的请求上下文存取。
//
// 管理一次 API 请求在处理链中需要传递的三个字段：
//   - request_id : 请求标识（优先取入站 X-Request-ID，缺失时用 UUID 生成）
//   - client_key : 限流客户端标识（通常为转发地址）
//   - user_id    : 上游认证后的用户标识
//
// # 命名约定
//
//	WithXxx(ctx, value)    - 注入：将 value 写入 context
//	Xxx(ctx)               - 读取：缺失时返回零值
//	RequireXxx(ctx)        - 强制读取：缺失时返回错误
//	EnsureXxx(ctx)         - 确保存在：若已存在则返回，否则自动生成
//
// WithXxx 在 ctx 为 nil 时返回 ErrNilContext，不校验 value 本身。
//
// # 日志集成
//
// AppendAttrs 把非空字段追加为 slog.Attr，由 xlog 的 EnrichHandler 调用。
package xctx
