package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/npratt/nodescope/internal/events"
	"github.com/npratt/nodescope/internal/server"
	"github.com/npratt/nodescope/internal/shutdown"
)

// sessionSweepInterval is how often idle API sessions are expired.
const sessionSweepInterval = time.Minute

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [source]",
		Short: "Serve the graph over an HTTP API",
		Long: `Load a graph and serve it over HTTP.

Each client creates a view session (POST /api/sessions) with its own
selection, window, camera and layouts, reads resolved frames as JSON and
can follow session events over server-sent events. Prometheus metrics are
exposed at /metrics.

A source that fails to load is logged and can be retried with
POST /api/graph/reload.`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runServe,
	}
	cmd.Flags().String(FlagAddr, "", "Listen address (default from config, 127.0.0.1:8537)")
	cmd.Flags().Bool(FlagWatch, false, "Reload when the local source file changes")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig(cmd, args)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := a.logger

	router := events.NewRouter(events.DefaultBufferSize)
	router.SetLogger(logger)
	elog, err := startEventLog(ctx, router, cfg)
	if err != nil {
		router.Close()
		return err
	}
	defer elog.stop()

	srv := server.New(cfg, newLoader(cfg, router, logger), server.WithLogger(logger))
	defer srv.Close()

	if err := srv.Load(ctx); err != nil {
		logger.Warn("initial load failed; serving without a graph", "source", cfg.Source.Location, "error", err)
	}

	reload := func() {
		if err := srv.Load(ctx); err != nil {
			logger.Warn("reload after change failed", "error", err)
		}
	}
	if w := startWatcher(ctx, cfg, reload, router, logger); w != nil {
		defer w.Stop()
	}

	stopCleanup := srv.StartCleanup(sessionSweepInterval)
	defer stopCleanup()

	logger.Info("nodescope serving",
		"version", version,
		"addr", cfg.Server.Addr,
		"source", cfg.Source.Location,
	)
	return shutdown.ServeHTTP(ctx, logger, cfg.Server.ShutdownTimeout, srv.HTTPServer())
}
