package xctx

import (
	"context"

	"github.com/google/uuid"
)

// WithRequestID 将 request ID 注入 context
func WithRequestID(ctx context.Context, requestID string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyRequestID, requestID), nil
}

// RequestID 从 context 提取 request ID，不存在返回空字符串
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(keyRequestID).(string); ok {
		return v
	}
	return ""
}

// RequireRequestID 从 context 获取 request ID，不存在则返回 ErrMissingRequestID。
func RequireRequestID(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", ErrNilContext
	}
	v := RequestID(ctx)
	if v == "" {
		return "", ErrMissingRequestID
	}
	return v, nil
}

// EnsureRequestID 确保 context 中存在 request ID。
// 已存在时原样返回，否则生成 UUIDv4 并注入。
func EnsureRequestID(ctx context.Context) (context.Context, string, error) {
	if ctx == nil {
		return nil, "", ErrNilContext
	}
	if v := RequestID(ctx); v != "" {
		return ctx, v, nil
	}
	id := NewRequestID()
	return context.WithValue(ctx, keyRequestID, id), id, nil
}

// NewRequestID 生成新的 request ID
func NewRequestID() string {
	return uuid.NewString()
}
