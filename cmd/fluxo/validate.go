package main

import (
	"fmt"

	"github.com/imovia/fluxo/internal/cli"
	"github.com/imovia/fluxo/internal/validator"
	"github.com/imovia/fluxo/pkg/adapters/file"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <flow>...",
	Short: "Check flows for structural problems",
	Long:  `Reports missing or duplicate start nodes, dangling edges, unwired branches and unreachable nodes.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		loader := file.NewLoader(cfg.Flows.Dir)
		out := cmd.OutOrStdout()

		failed := 0
		for _, ref := range args {
			def, name, err := cli.ResolveFlow(loader, ref)
			if err != nil {
				fmt.Fprintf(out, "✗ %s: %v\n", ref, err)
				failed++
				continue
			}
			report := validator.Validate(def)
			for _, w := range report.Warnings {
				fmt.Fprintf(out, "! %s: %s\n", name, w)
			}
			if err := report.Err(); err != nil {
				fmt.Fprintf(out, "✗ %s: %v\n", name, err)
				failed++
				continue
			}
			fmt.Fprintf(out, "✓ %s\n", name)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d flows failed validation", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
