package xctx

import "errors"

// =============================================================================
// Context Key 类型定义
// =============================================================================

// contextKey 包私有类型，避免与其他包的 context key 冲突。
type contextKey string

const (
	keyRequestID = contextKey("xctx:request_id")
	keyClientKey = contextKey("xctx:client_key")
	keyUserID    = contextKey("xctx:user_id")
)

// 日志属性 Key 常量（下划线分隔）
const (
	KeyRequestID = "request_id"
	KeyClientKey = "client_key"
	KeyUserID    = "user_id"

	// fieldCount 字段数量（用于 slog 属性预分配）
	fieldCount = 3
)

// =============================================================================
// 错误定义
// =============================================================================

var (
	// ErrNilContext 表示传入的 context 为 nil。
	ErrNilContext = errors.New("xctx: nil context")

	// ErrMissingRequestID request_id 缺失
	ErrMissingRequestID = errors.New("xctx: missing request_id")

	// ErrMissingUserID user_id 缺失
	ErrMissingUserID = errors.New("xctx: missing user_id")
)
