package main

import (
	"fmt"

	"github.com/imovia/fluxo/internal/cli"
	"github.com/imovia/fluxo/internal/presentation/graph"
	"github.com/imovia/fluxo/pkg/adapters/file"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <flow>",
	Short: "Export the flow as a Mermaid diagram",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		def, _, err := cli.ResolveFlow(file.NewLoader(cfg.Flows.Dir), args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(def, nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
