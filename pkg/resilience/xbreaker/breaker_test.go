package xbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotFound = errors.New("not found")

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	var transitions []State
	b := New[int]("store",
		WithConsecutiveFailures(2),
		WithTimeout(time.Hour),
		WithOnStateChange(func(_ string, _, to State) { transitions = append(transitions, to) }),
	)
	ctx := context.Background()
	down := errors.New("db down")
	fail := func(context.Context) (int, error) { return 0, down }

	_, err := b.Execute(ctx, fail)
	assert.ErrorIs(t, err, down)
	_, err = b.Execute(ctx, fail)
	assert.ErrorIs(t, err, down)
	assert.Equal(t, StateOpen, b.State())

	called := false
	_, err = b.Execute(ctx, func(context.Context) (int, error) {
		called = true
		return 1, nil
	})
	assert.True(t, IsOpen(err))
	assert.False(t, called)
	assert.Equal(t, []State{StateOpen}, transitions)
}

func TestBreaker_IgnoresBusinessErrors(t *testing.T) {
	b := New[string]("store",
		WithConsecutiveFailures(1),
		WithIsSuccessful(func(err error) bool { return err == nil || errors.Is(err, errNotFound) }),
	)
	for range 3 {
		_, err := b.Execute(context.Background(), func(context.Context) (string, error) { return "", errNotFound })
		require.ErrorIs(t, err, errNotFound)
	}
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "store", b.Name())
}

func TestBreaker_CanceledContext(t *testing.T) {
	b := New[int]("store")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.Execute(ctx, func(context.Context) (int, error) { return 1, nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsOpen(err))
}
