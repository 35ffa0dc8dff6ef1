package xctx_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/omeyang/hisab/pkg/context/xctx"
)

func TestRequestID(t *testing.T) {
	t.Run("空context返回空字符串", func(t *testing.T) {
		if got := xctx.RequestID(context.Background()); got != "" {
			t.Errorf("RequestID(empty) = %q, want empty", got)
		}
	})

	t.Run("正常注入和提取", func(t *testing.T) {
		ctx, err := xctx.WithRequestID(context.Background(), "req-1")
		if err != nil {
			t.Fatalf("WithRequestID() error = %v", err)
		}
		if got := xctx.RequestID(ctx); got != "req-1" {
			t.Errorf("RequestID() = %q, want %q", got, "req-1")
		}
	})

	t.Run("nil context注入返回ErrNilContext", func(t *testing.T) {
		var nilCtx context.Context
		if _, err := xctx.WithRequestID(nilCtx, "x"); !errors.Is(err, xctx.ErrNilContext) {
			t.Errorf("WithRequestID(nil) error = %v, want %v", err, xctx.ErrNilContext)
		}
	})

	t.Run("Require缺失返回错误", func(t *testing.T) {
		if _, err := xctx.RequireRequestID(context.Background()); !errors.Is(err, xctx.ErrMissingRequestID) {
			t.Errorf("RequireRequestID() error = %v, want %v", err, xctx.ErrMissingRequestID)
		}
	})
}

func TestEnsureRequestID(t *testing.T) {
	t.Run("缺失时生成", func(t *testing.T) {
		ctx, id, err := xctx.EnsureRequestID(context.Background())
		if err != nil {
			t.Fatalf("EnsureRequestID() error = %v", err)
		}
		if id == "" || xctx.RequestID(ctx) != id {
			t.Errorf("EnsureRequestID() id = %q, ctx id = %q", id, xctx.RequestID(ctx))
		}
	})

	t.Run("已存在时保留", func(t *testing.T) {
		ctx, _ := xctx.WithRequestID(context.Background(), "keep-me")
		_, id, err := xctx.EnsureRequestID(ctx)
		if err != nil {
			t.Fatalf("EnsureRequestID() error = %v", err)
		}
		if id != "keep-me" {
			t.Errorf("EnsureRequestID() = %q, want keep-me", id)
		}
	})
}

func TestClientKeyAndUserID(t *testing.T) {
	ctx, _ := xctx.WithClientKey(context.Background(), "10.0.0.1")
	ctx, _ = xctx.WithUserID(ctx, "u-42")

	if got := xctx.ClientKey(ctx); got != "10.0.0.1" {
		t.Errorf("ClientKey() = %q", got)
	}
	got, err := xctx.RequireUserID(ctx)
	if err != nil || got != "u-42" {
		t.Errorf("RequireUserID() = %q, %v", got, err)
	}
	if _, err := xctx.RequireUserID(context.Background()); !errors.Is(err, xctx.ErrMissingUserID) {
		t.Errorf("RequireUserID(empty) error = %v", err)
	}
}

func TestAttrs(t *testing.T) {
	if attrs := xctx.Attrs(context.Background()); attrs != nil {
		t.Errorf("Attrs(empty) = %v, want nil", attrs)
	}

	ctx, _ := xctx.WithRequestID(context.Background(), "r")
	ctx, _ = xctx.WithClientKey(ctx, "c")
	attrs := xctx.Attrs(ctx)
	want := []slog.Attr{slog.String(xctx.KeyRequestID, "r"), slog.String(xctx.KeyClientKey, "c")}
	if len(attrs) != len(want) {
		t.Fatalf("Attrs() len = %d, want %d", len(attrs), len(want))
	}
	for i := range want {
		if !attrs[i].Equal(want[i]) {
			t.Errorf("Attrs()[%d] = %v, want %v", i, attrs[i], want[i])
		}
	}
}
