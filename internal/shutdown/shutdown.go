// Package shutdown runs long-lived components until a signal arrives or
// the parent context ends, then stops them within a deadline.
package shutdown

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// signals trigger a graceful shutdown.
var signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// RunWithGracefulShutdown starts runner and blocks until it returns, a
// signal arrives or ctx is cancelled. In the latter two cases shutdown is
// called with a context bounded by timeout and the runner is given until
// that deadline to return.
func RunWithGracefulShutdown(
	ctx context.Context,
	logger *slog.Logger,
	timeout time.Duration,
	runner func(ctx context.Context) error,
	shutdown func(ctx context.Context) error,
) error {
	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()

	runDone := make(chan error, 1)
	go func() {
		runDone <- runner(runCtx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, signals...)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logger.Info("received signal, initiating shutdown", "signal", sig)
	case <-ctx.Done():
		logger.Info("context done, initiating shutdown")
	case err := <-runDone:
		return err
	}

	runCancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	select {
	case err := <-runDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded")
	}

	logger.Info("shutdown complete")
	return nil
}

// ServeHTTP runs srv until a signal or ctx ends it, then shuts it down.
// A clean close is not reported as an error.
func ServeHTTP(ctx context.Context, logger *slog.Logger, timeout time.Duration, srv *http.Server) error {
	return RunWithGracefulShutdown(ctx, logger, timeout,
		func(context.Context) error {
			logger.Info("listening", "addr", srv.Addr)
			err := srv.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		},
		srv.Shutdown,
	)
}
