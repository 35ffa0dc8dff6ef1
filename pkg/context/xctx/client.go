package xctx

import "context"

// =============================================================================
// ClientKey 操作
// =============================================================================

// WithClientKey 将限流客户端标识注入 context
func WithClientKey(ctx context.Context, clientKey string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyClientKey, clientKey), nil
}

// ClientKey 从 context 提取客户端标识，不存在返回空字符串
func ClientKey(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(keyClientKey).(string); ok {
		return v
	}
	return ""
}

// =============================================================================
// UserID 操作
// =============================================================================

// WithUserID 将已认证的用户标识注入 context
func WithUserID(ctx context.Context, userID string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyUserID, userID), nil
}

// UserID 从 context 提取用户标识，不存在返回空字符串
func UserID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(keyUserID).(string); ok {
		return v
	}
	return ""
}

// RequireUserID 从 context 获取用户标识，不存在则返回 ErrMissingUserID。
func RequireUserID(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", ErrNilContext
	}
	v := UserID(ctx)
	if v == "" {
		return "", ErrMissingUserID
	}
	return v, nil
}
