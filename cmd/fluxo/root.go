package main

import (
	"context"
	"fmt"
	"os"

	"github.com/imovia/fluxo/internal/cli"
	"github.com/imovia/fluxo/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fluxo",
	Short: "fluxo runs conversational flows built in the visual editor",
	Long: `fluxo executes conversational flow graphs (messages, questions, conditions,
CRM updates and escalations) in a terminal simulator, over HTTP or as MCP tools.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the fluxo.yaml configuration file")
	rootCmd.PersistentFlags().String("dir", "", "Directory containing the flow documents (overrides flows.dir)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging on stderr")
}

// loadConfig reads --config and applies the --dir override.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("dir") {
		cfg.Flows.Dir, _ = cmd.Flags().GetString("dir")
	}
	return cfg, nil
}

// loadApp builds the full host from the command flags.
func loadApp(ctx context.Context, cmd *cobra.Command) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	debug, _ := cmd.Flags().GetBool("debug")
	logger, err := cli.CreateLogger(cfg.Log, debug)
	if err != nil {
		return nil, err
	}
	return cli.NewApp(ctx, cfg, logger)
}
