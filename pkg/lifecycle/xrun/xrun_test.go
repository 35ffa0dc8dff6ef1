package xrun

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/hisab/pkg/observability/xlog"
)

func TestGroup_ErrorCancelsOthers(t *testing.T) {
	boom := errors.New("boom")
	g, _ := NewGroup(context.Background(), WithLogger(xlog.Discard()))

	g.Go(Named("waiter", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	g.Go(Named("failer", func(context.Context) error { return boom }))

	assert.ErrorIs(t, g.Wait(), boom)
}

func TestGroup_CancelCause(t *testing.T) {
	g, _ := NewGroup(context.Background(), WithLogger(xlog.Discard()))
	g.Go(Named("waiter", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	g.Cancel(&SignalError{Signal: syscall.SIGTERM})
	err := g.Wait()
	require.ErrorIs(t, err, ErrSignal)

	var sigErr *SignalError
	require.ErrorAs(t, err, &sigErr)
	assert.Equal(t, syscall.SIGTERM, sigErr.Signal)
}

func TestGroup_PlainCancelIsNil(t *testing.T) {
	g, _ := NewGroup(context.Background(), WithLogger(xlog.Discard()))
	g.Go(Named("waiter", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	g.Cancel(nil)
	assert.NoError(t, g.Wait())
}

func TestGroup_NilFunc(t *testing.T) {
	g, _ := NewGroup(context.Background(), WithLogger(xlog.Discard()))
	g.Go(Service{Name: "empty"})
	assert.ErrorIs(t, g.Wait(), ErrNilFunc)
}

func TestAwaitSignal(t *testing.T) {
	g, ctx := NewGroup(context.Background(), WithLogger(xlog.Discard()))
	sigCh := make(chan os.Signal, 1)
	sigCh <- syscall.SIGINT

	require.NoError(t, g.awaitSignal(ctx, sigCh))
	assert.ErrorIs(t, g.Wait(), ErrSignal)
}

func TestRun_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var ticks atomic.Int32

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, []Option{WithLogger(xlog.Discard()), WithSignals()},
			Named("tick", Ticker(5*time.Millisecond, true, func(context.Context) error {
				ticks.Add(1)
				return nil
			})),
		)
	}()

	assert.Eventually(t, func() bool { return ticks.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestTicker_Validation(t *testing.T) {
	ctx := context.Background()
	assert.ErrorIs(t, Ticker(0, false, func(context.Context) error { return nil })(ctx), ErrInvalidInterval)
	assert.ErrorIs(t, Ticker(time.Second, false, nil)(ctx), ErrNilFunc)

	stop := errors.New("stop")
	assert.ErrorIs(t, Ticker(time.Hour, true, func(context.Context) error { return stop })(ctx), stop)
}

func TestHTTPServer_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }),
		ReadHeaderTimeout: time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- HTTPServer(srv, time.Second)(ctx) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	assert.Eventually(t, func() bool {
		resp, err := client.Get("http://" + addr)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

type failingServer struct{ err error }

func (s failingServer) ListenAndServe() error        { return s.err }
func (failingServer) Shutdown(context.Context) error { return nil }

func TestHTTPServer_StartFailure(t *testing.T) {
	bind := errors.New("address in use")
	assert.ErrorIs(t, HTTPServer(failingServer{err: bind}, 0)(context.Background()), bind)
	assert.ErrorIs(t, HTTPServer(nil, 0)(context.Background()), ErrNilServer)
}
