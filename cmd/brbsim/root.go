package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "brbsim",
		Short: "Byzantine Reliable Broadcast simulation harness",
		Long: `brbsim drives round-synchronous simulations of four Byzantine
Reliable Broadcast protocols (Bracha, Alg23, Alg24, COOL) against a
hand-written adversary scenario and reports each node's delivery outcome.`,
		SilenceUsage: true,
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newValidateCmd())
	return root
}
