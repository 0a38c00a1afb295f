package main

import (
	"context"

	"github.com/imovia/fluxo/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <flow>",
	Short: "Simulate a conversation in the terminal",
	Long: `Runs a flow interactively. <flow> is a flow name from the flows directory
or a path to a .json/.yaml document. Type /reset to restart and /sair to quit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := cli.NewSignalContext(context.Background())
		defer sc.Cancel()

		app, err := loadApp(sc, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		name, _ := cmd.Flags().GetString("name")
		phone, _ := cmd.Flags().GetString("phone")
		useReal, _ := cmd.Flags().GetBool("real")
		headless, _ := cmd.Flags().GetBool("headless")

		return cli.RunSimulator(sc, app, cli.RunOptions{
			Flow:         args[0],
			ContactName:  name,
			ContactPhone: phone,
			Real:         useReal,
			Headless:     headless,
			Input:        cmd.InOrStdin(),
			Output:       cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("name", "", "Contact name exposed to the flow")
	runCmd.Flags().String("phone", "", "Contact phone exposed to the flow")
	runCmd.Flags().Bool("real", false, "Use real integrations instead of the mock gateway")
	runCmd.Flags().Bool("headless", false, "Run in headless mode (no prompts, no system lines, no styling)")
}
