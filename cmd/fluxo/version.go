package main

import (
	"fmt"
	"strings"

	"github.com/imovia/fluxo"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of fluxo",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fluxo version %s\n", strings.TrimSpace(fluxo.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
