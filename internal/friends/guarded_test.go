package friends

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestGuardedStore_OpensOnInfrastructureErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := NewMockStore(ctrl)
	g := NewGuardedStore(next, 2, time.Hour, nil)
	ctx := context.Background()
	down := errors.New("connection reset")

	next.EXPECT().List(gomock.Any(), "alice").Return(nil, down).Times(2)

	for range 2 {
		_, err := g.List(ctx, "alice")
		assert.ErrorIs(t, err, down)
	}

	// 熔断后不再调用下游
	_, err := g.List(ctx, "alice")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 503, statusOf(err))
}

func TestGuardedStore_BusinessErrorsKeepCircuitClosed(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := NewMockStore(ctrl)
	g := NewGuardedStore(next, 1, time.Hour, nil)
	ctx := context.Background()

	next.EXPECT().Get(gomock.Any(), "alice", "zed").Return(Friend{}, ErrNotFound).Times(3)
	next.EXPECT().Remove(gomock.Any(), "alice", "zed").Return(nil)

	for range 3 {
		_, err := g.Get(ctx, "alice", "zed")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.NoError(t, g.Remove(ctx, "alice", "zed"))
}
