package main

import (
	"github.com/spf13/cobra"

	"github.com/feedergraph/feedergraph/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging the config file, .env, FG_*
environment variables and command-line flags.

Config file: $XDG_CONFIG_HOME/fg/config.yml (default ~/.config/fg/config.yml)`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	if !humanOutput {
		return outputJSON(cfg)
	}

	path := cfg.Path
	if path == "" {
		path = config.Path() + " (not found, using defaults)"
	}
	headerColor.Printf("Config: %s\n", path)
	if len(cfg.Datasets) == 0 {
		warnColor.Println("  datasets: none")
	}
	for _, d := range cfg.Datasets {
		outputHuman("  dataset: %s\n", d)
	}
	outputHuman("  scale: %g\n", cfg.Scale)
	outputHuman("  max_depth: %d\n", cfg.MaxDepth)
	outputHuman("  grid_root: %t\n", cfg.GridRoot)
	outputHuman("  metrics_db: %s\n", cfg.MetricsDB)
	outputHuman("  listen_addr: %s\n", cfg.ListenAddr)
	outputHuman("  rate_limit: %g/s (burst %d)\n", cfg.RateLimit, cfg.RateBurst)
	outputHuman("  log_level: %s\n", cfg.LogLevel)
	return nil
}
