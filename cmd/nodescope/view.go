package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/npratt/nodescope/internal/events"
	"github.com/npratt/nodescope/internal/scene"
	"github.com/npratt/nodescope/internal/tui"
)

// tuiEventBuffer is sized for layout frame bursts.
const tuiEventBuffer = 5000

func addViewFlags(flags *pflag.FlagSet) {
	flags.Bool(FlagWatch, false, "Reload when the local source file changes")
	flags.StringSlice(FlagLayouts, nil, "Layouts run after loading (circular, force, noverlap)")
	flags.Duration(FlagDuration, 0, "Animation time per layout stage")
}

func (a *app) viewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [source]",
		Short: "Explore a graph in the terminal",
		Long: `Open the terminal view for a GEXF graph.

When stdout is not a terminal, or the terminal is too small, the graph is
laid out once and printed as text instead.

Keys: tab/shift+tab hover, enter select, esc clear, +/- zoom, [ ] window,
1/2/3 circular/force/noverlap, f fit, R reload, q quit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runView,
	}
	addViewFlags(cmd.Flags())
	return cmd
}

func (a *app) runView(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Logs go to a rotating file while the screen belongs to the TUI.
	logger := a.logger
	if term.IsTerminal(int(os.Stdout.Fd())) {
		res, err := SetupTUILogger(filepath.Dir(cfg.Paths.Log), a.logLevel, cfg.LogRotation)
		if err != nil {
			return err
		}
		defer func() { _ = res.Close() }()
		logger = res.Logger
	}

	router := events.NewRouter(events.DefaultBufferSize)
	router.SetLogger(logger)
	elog, err := startEventLog(ctx, router, cfg)
	if err != nil {
		router.Close()
		return err
	}
	defer elog.stop()

	tuiEvents := router.SubscribeBuffered(tuiEventBuffer)
	defer router.Unsubscribe(tuiEvents)

	loader := newLoader(cfg, router, logger)
	sc := scene.New(scene.SettingsFromConfig(cfg), scene.WithRouter(router), scene.WithLogger(logger))
	defer sc.Close()

	// The TUI reloads on the watcher's SourceChanged event.
	if w := startWatcher(ctx, cfg, nil, router, logger); w != nil {
		defer w.Stop()
	}

	logger.Info("nodescope view starting", "version", version, "source", cfg.Source.Location)

	app := tui.New(sc, loader, cfg.Source.Location,
		tui.WithEvents(tuiEvents),
		tui.WithInitialLayouts(cfg.Layout.Initial, cfg.Layout.Duration),
		tui.WithTheme(tui.ThemeFromConfig(cfg.Style)),
		tui.WithOnQuit(stop),
		tui.WithOutput(cmd.OutOrStdout()),
	)
	return app.Run(ctx)
}
