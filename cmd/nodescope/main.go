package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/npratt/nodescope/internal/config"
	"github.com/npratt/nodescope/internal/events"
	"github.com/npratt/nodescope/internal/ingest"
)

var version = "dev"

// app carries what every command shares: the viper instance flags are
// bound to, the log level and the output streams.
type app struct {
	v        *viper.Viper
	logLevel *slog.LevelVar
	logger   *slog.Logger
	stdout   io.Writer
}

func newApp(stdout, stderr io.Writer) *app {
	logLevel := &slog.LevelVar{}

	v := viper.New()
	v.SetEnvPrefix("NODESCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	return &app{
		v:        v,
		logLevel: logLevel,
		logger:   SetupLoggerWithWriter(stderr, logLevel),
		stdout:   stdout,
	}
}

func (a *app) rootCmd() *cobra.Command {
	view := a.viewCmd()

	rootCmd := &cobra.Command{
		Use:   "nodescope [source]",
		Short: "Explore GEXF interaction graphs",
		Long: `nodescope loads a GEXF graph (local file or http(s) URL), lays it out and
lets you explore it: select a node to see its neighborhood, narrow the
hour-of-day window to see who interacted when, zoom and rerun layouts.

Run without a subcommand to open the terminal view.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind only the running command's flags so that flags sharing a
			// name across subcommands do not shadow each other.
			cmd.Flags().VisitAll(func(f *pflag.Flag) {
				_ = a.v.BindPFlag(f.Name, f)
			})
			if a.v.GetBool(FlagVerbose) {
				a.logLevel.Set(slog.LevelDebug)
				a.logger.Debug("verbose logging enabled")
			}
			return nil
		},
		RunE: view.RunE,
	}
	addViewFlags(rootCmd.Flags())

	rootCmd.PersistentFlags().Bool(FlagVerbose, false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().String(FlagConfig, "", "Config file path (default: .nodescope/config.yaml)")
	rootCmd.PersistentFlags().String(FlagLogFile, "", "Event log file path")
	rootCmd.PersistentFlags().Duration(FlagTimeout, 0, "Timeout for fetching the graph source")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "nodescope %s\n", version)
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(view)
	rootCmd.AddCommand(a.serveCmd())
	rootCmd.AddCommand(a.inspectCmd())
	rootCmd.AddCommand(a.exportCmd())
	rootCmd.AddCommand(a.configCmd())

	rootCmd.SetOut(a.stdout)
	return rootCmd
}

// loadConfig layers files, environment and flags, then applies the
// explicitly set flags and the optional source argument on top.
func (a *app) loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, _, err := a.loadConfigSources(cmd, args)
	return cfg, err
}

// loadConfigSources is loadConfig that also returns the files merged.
func (a *app) loadConfigSources(cmd *cobra.Command, args []string) (*config.Config, []config.Layer, error) {
	cfg, layers, err := config.LoadConfigSources(a.v)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if len(args) > 0 {
		cfg.Source.Location = args[0]
	}

	flags := cmd.Flags()
	if flags.Changed(FlagLogFile) {
		cfg.Paths.Log = a.v.GetString(FlagLogFile)
	}
	if flags.Changed(FlagTimeout) {
		cfg.Source.Timeout = a.v.GetDuration(FlagTimeout)
	}
	if flags.Changed(FlagWatch) {
		cfg.Source.Watch = a.v.GetBool(FlagWatch)
	}
	if flags.Changed(FlagLayouts) {
		cfg.Layout.Initial = a.v.GetStringSlice(FlagLayouts)
	}
	if flags.Changed(FlagDuration) {
		cfg.Layout.Duration = a.v.GetDuration(FlagDuration)
	}
	if flags.Changed(FlagAddr) {
		cfg.Server.Addr = a.v.GetString(FlagAddr)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, layers, nil
}

// newLoader wires the fetcher, with its circuit breaker, to decode and
// annotate.
func newLoader(cfg *config.Config, router *events.Router, logger *slog.Logger) *ingest.Loader {
	fetcher := ingest.NewFetcher(cfg.Source, logger)
	return ingest.NewLoader(fetcher, ingest.OptionsFromConfig(cfg.Ingest), router, logger)
}

// eventLog appends the router's events to path until stop is called.
type eventLog struct {
	router *events.Router
	sink   *events.LogSink
	cancel context.CancelFunc
}

func startEventLog(ctx context.Context, router *events.Router, cfg *config.Config) (*eventLog, error) {
	ctx, cancel := context.WithCancel(ctx)
	sink := events.NewLogSink(cfg.Paths.Log, events.WithRotation(cfg.LogRotation))
	if err := sink.Start(ctx, router.Subscribe()); err != nil {
		cancel()
		return nil, fmt.Errorf("start event log: %w", err)
	}
	return &eventLog{router: router, sink: sink, cancel: cancel}, nil
}

// stop closes the router, lets the sink drain what is buffered and closes
// the log file.
func (l *eventLog) stop() {
	l.router.Close()
	_ = l.sink.Stop()
	l.cancel()
}

// startWatcher reloads a local source on change. Remote sources and
// disabled watching return nil.
func startWatcher(ctx context.Context, cfg *config.Config, onChange func(), router *events.Router, logger *slog.Logger) *ingest.Watcher {
	if !cfg.Source.Watch || ingest.IsRemote(cfg.Source.Location) {
		return nil
	}
	w := ingest.NewWatcher(ingest.LocalPath(cfg.Source.Location), onChange, router, logger)
	if err := w.Start(ctx); err != nil {
		logger.Warn("file watching disabled", "error", err)
		return nil
	}
	return w
}

func main() {
	a := newApp(os.Stdout, os.Stderr)
	if err := a.rootCmd().ExecuteContext(context.Background()); err != nil {
		a.logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
