package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/npratt/nodescope/internal/config"
	"github.com/npratt/nodescope/internal/ingest"
	"github.com/npratt/nodescope/internal/resolver"
)

// histogramWidth is the length of the longest hour bar.
const histogramWidth = 40

// inspectReport is the --json form of inspect.
type inspectReport struct {
	Location      string         `json:"location"`
	Summary       ingest.Summary `json:"summary"`
	Timestamped   int            `json:"timestamped"`
	UnknownKinds  map[string]int `json:"unknown_kinds,omitempty"`
	LabelsDerived int            `json:"labels_derived"`
	LoadMs        int64          `json:"load_ms"`
}

func (a *app) inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [source]",
		Short: "Summarize a graph",
		Long: `Load a graph and print its node and edge counts, degree range, edge kinds
and a histogram of edges per UTC hour. Hours inside the configured time
window are highlighted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, args)
			if err != nil {
				return err
			}
			res, err := newLoader(cfg, nil, a.logger).Load(cmd.Context(), cfg.Source.Location)
			if err != nil {
				return err
			}

			report := inspectReport{
				Location:      res.Location,
				Summary:       ingest.Summarize(res.Graph),
				Timestamped:   res.Stats.Timestamped,
				UnknownKinds:  res.Stats.UnknownKinds,
				LabelsDerived: res.Stats.LabelsDerived,
				LoadMs:        res.Took.Milliseconds(),
			}

			out := cmd.OutOrStdout()
			if a.v.GetBool(FlagJSON) {
				enc := sonic.ConfigStd.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(out, report, cfg)
			return nil
		},
	}
	cmd.Flags().Bool(FlagJSON, false, "Output the summary as JSON")
	return cmd
}

// printReport writes the human-readable summary.
func printReport(w io.Writer, r inspectReport, cfg *config.Config) {
	heading := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)
	inWindow := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)

	s := r.Summary
	heading.Fprintln(w, r.Location)
	fmt.Fprintf(w, "  nodes     %d\n", s.Nodes)
	fmt.Fprintf(w, "  edges     %d (%d timestamped, %d untimed)\n", s.Edges, r.Timestamped, s.Untimed)
	fmt.Fprintf(w, "  degree    %d..%d\n", s.MinDegree, s.MaxDegree)
	if s.Isolated > 0 {
		warn.Fprintf(w, "  isolated  %d\n", s.Isolated)
	}
	if r.LabelsDerived > 0 {
		fmt.Fprintf(w, "  labels    %d derived from edge attributes\n", r.LabelsDerived)
	}

	if len(s.Kinds) > 0 {
		fmt.Fprintln(w)
		heading.Fprintln(w, "edge kinds")
		for _, k := range s.Kinds {
			fmt.Fprintf(w, "  %-12s %d", k.Kind, k.Count)
			if _, unknown := r.UnknownKinds[k.Kind]; unknown {
				dim.Fprint(w, "  (no palette color)")
			}
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintln(w)
	window := resolver.TimeWindow{Start: cfg.Window.Start, End: cfg.Window.End}
	heading.Fprintf(w, "edges per hour (UTC), window %s\n", window.Label())
	peak := 0
	for _, n := range s.Hours {
		peak = max(peak, n)
	}
	for h, n := range s.Hours {
		bar := ""
		if peak > 0 && n > 0 {
			bar = strings.Repeat("█", max(1, n*histogramWidth/peak))
		}
		line := fmt.Sprintf("  %02d │%s %d", h, bar, n)
		if window.Contains(float64(h)) {
			inWindow.Fprintln(w, line)
		} else {
			fmt.Fprintln(w, line)
		}
	}
}
