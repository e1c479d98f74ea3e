package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/naka-gawa/repo-event-stats/internal/metrics"
	"github.com/naka-gawa/repo-event-stats/internal/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the statistics web form",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		logger := newLogger(cmd)

		cfg, err := loadConfig(cmd, logger)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			cfg.Listen = listen
		}

		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		aggregator, closeStore, err := newAggregator(ctx, cfg, metrics.New(registry), logger)
		if err != nil {
			return err
		}
		defer closeStore()

		return web.New(aggregator, registry, logger).ListenAndServe(ctx, cfg.Listen)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Address to listen on (overrides the config)")
}
