// Package main provides the fg CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/feedergraph/feedergraph/internal/config"
	"github.com/feedergraph/feedergraph/internal/network"
	"github.com/feedergraph/feedergraph/internal/session"
	"github.com/feedergraph/feedergraph/internal/storage"
	"github.com/feedergraph/feedergraph/internal/traverse"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	datasetArgs []string
	gridRoot    bool
	logLevel    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		// This ensures Cobra errors (like missing required flags) are visible
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fg",
	Short: "Distribution feeder network explorer",
	Long: `fg loads distribution network datasets (feeders, transformers, streets,
houses) into one canonical graph and answers structural queries over it.

Core features:
  - Loading and repairing raw network datasets (JSON or JSONL)
  - Everything downstream of a node, and the path from a node to its feeder
  - Interactive HTML visualization with focus and trace highlighting
  - Per-house monthly and half-hourly metric series from SQLite
  - An HTTP API serving all of the above

All commands output JSON by default; use --human for readable output.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringSliceVarP(&datasetArgs, "dataset", "d", nil, "Dataset file (.json or .jsonl); repeatable, overrides config")
	rootCmd.PersistentFlags().BoolVar(&gridRoot, "grid-root", false, "Add a synthetic grid root to datasets without a feeder")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	rootCmd.Version = Version
}

// setupLogging installs the default slog logger on stderr.
func setupLogging(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	slog.SetDefault(cfg.NewLogger(os.Stderr))
	return nil
}

// mustLoadConfig loads configuration, exits on error.
// Command-line flags override the loaded values.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if len(datasetArgs) > 0 {
		cfg.Datasets = datasetArgs
	}
	if gridRoot {
		cfg.GridRoot = true
	}
	return cfg
}

// loadOptions translates config into loader options.
func loadOptions(cfg *config.Config) []network.Option {
	opts := []network.Option{network.WithScale(cfg.Scale), network.WithLogger(slog.Default())}
	if cfg.GridRoot {
		opts = append(opts, network.WithGridRoot())
	}
	return opts
}

// pathOptions translates config into upstream walk options.
func pathOptions(cfg *config.Config) []traverse.PathOption {
	return []traverse.PathOption{traverse.WithMaxDepth(cfg.MaxDepth), traverse.WithLogger(slog.Default())}
}

// newLoader returns a session loader reading the configured datasets.
func newLoader(cfg *config.Config) session.Loader {
	paths := append([]string(nil), cfg.Datasets...)
	opts := loadOptions(cfg)
	return func(ctx context.Context) (*network.Graph, error) {
		if len(paths) == 0 {
			return nil, network.ErrNoDatasets
		}
		datasets, err := storage.ReadDatasets(paths)
		if err != nil {
			return nil, err
		}
		return network.Load(datasets, opts...)
	}
}

// mustLoadGraph reads and loads the configured datasets, exits on error.
func mustLoadGraph(ctx context.Context, cfg *config.Config) *network.Graph {
	if len(cfg.Datasets) == 0 {
		if humanOutput {
			fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		}
		exitWithError(ExitConfigError, "%v", network.ErrNoDatasets)
	}
	g, err := newLoader(cfg)(ctx)
	if err != nil {
		exitWithError(exitCodeFor(err), "loading network: %v", err)
	}
	return g
}

// mustFindNode resolves a node id, exits with ExitNotFound if absent.
func mustFindNode(g *network.Graph, id string) *network.Node {
	n := g.Node(id)
	if n == nil {
		exitWithError(ExitNotFound, "%v: %s", network.ErrNodeNotFound, id)
	}
	return n
}

// mustOpenDatabase opens the SQLite metric store, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(cfg *config.Config) *storage.DB {
	if cfg.MetricsDB == "" {
		exitWithError(ExitConfigError, "metrics_db not configured (set it in %s or FG_METRICS_DB)", config.Path())
	}
	db, err := storage.OpenDB(cfg.MetricsDB)
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// exitCodeFor maps loader and storage errors to exit codes. Anything not
// about config or a missing node is a data problem.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, network.ErrNodeNotFound):
		return ExitNotFound
	case errors.Is(err, network.ErrNoDatasets), errors.Is(err, config.ErrInvalidConfig):
		return ExitConfigError
	default:
		return ExitDataError
	}
}
