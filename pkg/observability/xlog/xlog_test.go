package xlog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/hisab/pkg/context/xctx"
	"github.com/omeyang/hisab/pkg/observability/xlog"
)

func newJSONLogger(t *testing.T, buf *bytes.Buffer) xlog.LoggerWithLevel {
	t.Helper()
	logger, cleanup, err := xlog.New().SetOutput(buf).SetFormat("json").Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })
	return logger
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestLogger_EnrichFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(t, &buf)

	ctx, _ := xctx.WithRequestID(context.Background(), "req-9")
	ctx, _ = xctx.WithClientKey(ctx, "203.0.113.7")
	logger.Info(ctx, "handled", slog.Int("status", 200))

	m := decodeLine(t, &buf)
	assert.Equal(t, "handled", m["msg"])
	assert.Equal(t, "req-9", m["request_id"])
	assert.Equal(t, "203.0.113.7", m["client_key"])
	assert.EqualValues(t, 200, m["status"])
}

func TestLogger_DynamicLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(t, &buf)
	ctx := context.Background()

	logger.Debug(ctx, "hidden")
	assert.Zero(t, buf.Len())

	logger.SetLevel(xlog.LevelDebug)
	assert.Equal(t, xlog.LevelDebug, logger.GetLevel())
	assert.True(t, logger.Enabled(ctx, xlog.LevelDebug))

	derived := logger.With(slog.String("component", "cache"))
	derived.Debug(ctx, "visible")
	m := decodeLine(t, &buf)
	assert.Equal(t, "cache", m["component"])
}

func TestBuilder_Errors(t *testing.T) {
	_, _, err := xlog.New().SetLevelString("loud").Build()
	assert.Error(t, err)

	_, _, err = xlog.New().SetFormat("xml").Build()
	assert.Error(t, err)

	_, _, err = xlog.New().SetOutput(nil).Build()
	assert.Error(t, err)

	_, _, err = xlog.New().SetRotation(" ", xlog.RotationConfig{}).Build()
	assert.Error(t, err)
}

func TestBuilder_Rotation(t *testing.T) {
	file := filepath.Join(t.TempDir(), "api.log")
	logger, cleanup, err := xlog.New().SetRotation(file, xlog.RotationConfig{MaxSizeMB: 1}).Build()
	require.NoError(t, err)
	logger.Info(context.Background(), "to file")
	require.NoError(t, cleanup())
	assert.FileExists(t, file)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]xlog.Level{
		"debug":   xlog.LevelDebug,
		" INFO ":  xlog.LevelInfo,
		"warning": xlog.LevelWarn,
		"error":   xlog.LevelError,
		"":        xlog.LevelInfo,
	}
	for in, want := range cases {
		got, err := xlog.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestErrAttr(t *testing.T) {
	assert.True(t, xlog.Err(nil).Equal(slog.Attr{}))
	assert.Equal(t, "boom", xlog.Err(errors.New("boom")).Value.String())
}

func TestDefaultAndDiscard(t *testing.T) {
	assert.NotNil(t, xlog.Default())
	d := xlog.Discard()
	xlog.SetDefault(d)
	assert.Same(t, d, xlog.Default())
	xlog.SetDefault(nil)
	assert.Same(t, d, xlog.Default())
}
