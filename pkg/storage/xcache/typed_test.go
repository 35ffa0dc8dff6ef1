package xcache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type friendRow struct {
	ID      string `json:"id"`
	Balance int64  `json:"balance"`
}

func TestTyped_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(t)
	typed := NewTyped[[]friendRow](c)

	rows := []friendRow{{ID: "f1", Balance: -250}, {ID: "f2", Balance: 0}}
	require.NoError(t, typed.Set(ctx, "friends:u1", rows, 0))

	got, ok, err := typed.Get(ctx, "friends:u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rows, got)
}

func TestTyped_UndecodableIsMiss(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(t)
	require.NoError(t, c.Set(ctx, "bad", []byte("not-json"), 0))

	typed := NewTyped[friendRow](c)
	_, ok, err := typed.Get(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, _ = c.Get(ctx, "bad")
	assert.False(t, ok, "undecodable entry is dropped")
}
