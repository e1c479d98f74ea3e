package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/naka-gawa/repo-event-stats/internal/config"
	"github.com/naka-gawa/repo-event-stats/internal/domain"
	"github.com/naka-gawa/repo-event-stats/internal/gateway"
	"github.com/naka-gawa/repo-event-stats/internal/metrics"
	"github.com/naka-gawa/repo-event-stats/internal/store"
	redisstore "github.com/naka-gawa/repo-event-stats/internal/store/redis"
	"github.com/naka-gawa/repo-event-stats/internal/store/sqlite"
	"github.com/naka-gawa/repo-event-stats/internal/usecase"
	"github.com/spf13/cobra"
)

// newLogger discards all logs unless the verbose flag is set.
func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags)
	if verbose {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func loadConfig(cmd *cobra.Command, logger *log.Logger) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.NewLoader(logger).Load(path)
}

// openStore opens the configured backend, wrapped in a memo when enabled.
// The returned close function is never nil.
func openStore(ctx context.Context, cfg config.StoreConfig, logger *log.Logger) (store.Store, func() error, error) {
	var (
		backend store.Store
		closeFn = func() error { return nil }
	)
	switch cfg.Backend {
	case config.BackendSQLite:
		s, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		backend, closeFn = s, s.Close
	case config.BackendRedis:
		s, err := redisstore.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		backend, closeFn = s, s.Close
	default:
		backend = store.NewFileStore(cfg.Dir, logger)
	}

	if cfg.MemoSize > 0 {
		memo, err := store.NewMemo(backend, cfg.MemoSize)
		if err != nil {
			_ = closeFn()
			return nil, nil, err
		}
		backend = memo
	}
	return backend, closeFn, nil
}

// newAggregator wires the gateway, the store and the use case together.
func newAggregator(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *log.Logger) (*usecase.Aggregator, func() error, error) {
	githubGateway, err := gateway.NewGitHubGateway(cfg.GitHub.Options(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}
	cache, closeFn, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open statistics store: %w", err)
	}
	aggregator := usecase.NewAggregator(githubGateway, cache, logger,
		usecase.WithConcurrency(cfg.Concurrency),
		usecase.WithMetrics(m),
	)
	return aggregator, closeFn, nil
}

// parseRepositories parses owner/name arguments.
func parseRepositories(args []string) ([]domain.RepositoryRef, error) {
	repos := make([]domain.RepositoryRef, 0, len(args))
	for _, arg := range args {
		repo, err := domain.ParseRepositoryRef(arg)
		if err != nil {
			return nil, err
		}
		repos = append(repos, repo)
	}
	return repos, nil
}
