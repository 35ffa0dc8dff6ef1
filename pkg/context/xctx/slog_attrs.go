package xctx

import (
	"context"
	"log/slog"
)

// AppendAttrs 将 context 中的请求字段追加到现有切片，只追加非空字段。
func AppendAttrs(attrs []slog.Attr, ctx context.Context) []slog.Attr {
	if ctx == nil {
		return attrs
	}
	if v := RequestID(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyRequestID, v))
	}
	if v := ClientKey(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyClientKey, v))
	}
	if v := UserID(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyUserID, v))
	}
	return attrs
}

// Attrs 从 context 提取请求字段，全部为空时返回 nil。
// 每次调用会分配新切片，热路径建议使用 AppendAttrs。
func Attrs(ctx context.Context) []slog.Attr {
	attrs := AppendAttrs(make([]slog.Attr, 0, fieldCount), ctx)
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}
