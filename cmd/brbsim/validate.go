package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dedis-sim/brbsim/internal/config"
)

func newValidateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a scenario file without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(configPath)
			if err != nil {
				return err
			}
			fmt.Printf("ok: protocol=%s n=%d f=%d honest_nodes=%v\n",
				cfg.Protocol, cfg.N, cfg.F, cfg.HonestNodes())
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to the scenario JSON file")
	cmd.MarkFlagRequired("config")

	return cmd
}
