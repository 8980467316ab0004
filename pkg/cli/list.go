package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"digital.vasic.apisuite/pkg/config"
	"digital.vasic.apisuite/pkg/env"
	"digital.vasic.apisuite/pkg/registry"
)

func (a *App) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the scenarios a run would execute",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			filters, err := a.filters(cfg)
			if err != nil {
				return err
			}
			reg, err := a.loadScenarios(cfg)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCATEGORY\tMETHOD\tPATH\tEXPECTATIONS")
			shown := 0
			for _, s := range reg.List() {
				if ok, _ := filters.Allow(s); !ok {
					continue
				}
				shown++
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
					s.ID(), s.Category(), s.Method(), s.Path(), len(s.Expectations()))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "\n%d of %d scenarios selected\n", shown, reg.Count())
			return nil
		},
	}
}

func (a *App) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [scenario files...]",
		Short: "Check the configuration and scenario files without sending requests",
		Long: `Validate loads the configuration and every scenario file, reporting
unknown keys, bad expectations and duplicate IDs. Files given as
arguments are checked on their own, without the built-in suite.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if _, err := a.filters(cfg); err != nil {
				return err
			}

			if len(args) > 0 {
				n, err := registry.LoadInto(registry.NewRegistry(), args...)
				if err != nil {
					return usageError(err)
				}
				fmt.Fprintf(a.stdout, "OK: %d scenarios\n", n)
				return nil
			}

			reg, err := a.loadScenarios(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "OK: %d scenarios (config %s, base URL %s)\n",
				reg.Count(), a.configLabel(cmd), env.RedactURL(cfg.BaseURL))
			return nil
		},
	}
}

func (a *App) configLabel(cmd *cobra.Command) string {
	if cmd.Flags().Changed("config") {
		return a.configPath
	}
	return config.DefaultFile + " (optional)"
}
