package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/feedergraph/feedergraph/internal/server"
	"github.com/feedergraph/feedergraph/internal/session"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config listen_addr)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the network API and visualization over HTTP",
	Long: `Serve the network API, traversal queries, house metric series and the
visualization page. The network is loaded on first request and can be
rebuilt with POST /api/network/reload.

Examples:
  fg serve --dataset network.json
  fg serve --addr :9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	if serveAddr != "" {
		cfg.ListenAddr = serveAddr
	}
	if len(cfg.Datasets) == 0 {
		exitWithError(ExitConfigError, "no datasets configured")
	}

	logger := slog.Default()
	handle := session.New(newLoader(cfg), logger)

	// Fail fast on a bad dataset rather than on the first request.
	if _, err := handle.Graph(cmd.Context()); err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}

	opts := server.Options{
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
		MaxDepth:  cfg.MaxDepth,
		Logger:    logger,
	}
	if cfg.MetricsDB != "" {
		db := mustOpenDatabase(cfg)
		defer db.Close()
		opts.Metrics = db
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(handle, opts).Run(ctx, cfg.ListenAddr)
}
