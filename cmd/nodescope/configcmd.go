package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, config files, NODESCOPE_*
environment variables and flags have been applied, as YAML. The output can
be saved as .nodescope/config.yaml and edited.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, layers, err := a.loadConfigSources(cmd, args)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(layers) == 0 {
				fmt.Fprintln(out, "# sources: defaults")
			}
			for _, l := range layers {
				fmt.Fprintf(out, "# %s: %s\n", l.Name, l.Path)
			}
			_, err = out.Write(data)
			return err
		},
	}
}
