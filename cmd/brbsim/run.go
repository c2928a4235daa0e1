package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dedis-sim/brbsim/internal/config"
	"github.com/dedis-sim/brbsim/internal/report"
	"github.com/dedis-sim/brbsim/internal/sim"
	"github.com/dedis-sim/brbsim/internal/trace"
)

func newRunCmd() *cobra.Command {
	var (
		configPath string
		format     string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation scenario and print the resulting report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(configPath)
			if err != nil {
				return err
			}

			var tracer trace.Tracer = trace.NopTracer{}
			if debug || cfg.DebugPrints {
				tracer = trace.NewColorTracer()
			}

			results, err := sim.Run(cfg, tracer)
			if err != nil {
				return fmt.Errorf("running simulation: %w", err)
			}

			run := report.Build(cfg, results)
			switch format {
			case "json":
				return run.WriteJSON(os.Stdout)
			case "csv":
				return run.WriteCSV(os.Stdout)
			default:
				return fmt.Errorf("unknown --format %q (want json or csv)", format)
			}
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to the scenario JSON file")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or csv")
	cmd.Flags().BoolVar(&debug, "debug", false, "force coloured trace output regardless of the scenario's debug_prints")
	cmd.MarkFlagRequired("config")

	return cmd
}
