package shutdown

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunWithGracefulShutdown_RunnerReturns(t *testing.T) {
	want := errors.New("boom")
	var shutdownCalls atomic.Int32

	err := RunWithGracefulShutdown(context.Background(), discardLogger(), time.Second,
		func(context.Context) error { return want },
		func(context.Context) error { shutdownCalls.Add(1); return nil },
	)

	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
	if shutdownCalls.Load() != 0 {
		t.Error("shutdown should not run when the runner exits on its own")
	}
}

func TestRunWithGracefulShutdown_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var shutdownCalls atomic.Int32

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := RunWithGracefulShutdown(ctx, discardLogger(), time.Second,
		func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
		func(context.Context) error { shutdownCalls.Add(1); return nil },
	)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shutdownCalls.Load() != 1 {
		t.Errorf("shutdown calls = %d, want 1", shutdownCalls.Load())
	}
}

func TestRunWithGracefulShutdown_Timeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := RunWithGracefulShutdown(ctx, discardLogger(), 30*time.Millisecond,
		func(context.Context) error {
			time.Sleep(time.Second)
			return nil
		},
		func(context.Context) error { return nil },
	)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("shutdown should give up after the timeout")
	}
}

func TestServeHTTP_StopsOnCancel(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- ServeHTTP(ctx, discardLogger(), time.Second, srv) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
