// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/naka-gawa/repo-event-stats/internal/domain"
	"github.com/naka-gawa/repo-event-stats/internal/gateway"
	"github.com/naka-gawa/repo-event-stats/internal/metrics"
	"github.com/naka-gawa/repo-event-stats/internal/store"
	"golang.org/x/sync/errgroup"
)

// ErrTooManyRepositories is returned when a request names more repositories
// than a single request may track.
var ErrTooManyRepositories = errors.New("too many repositories")

// Aggregator is the use case for computing repository event statistics.
// It prefers stored statistics and only fetches repositories it has never
// seen before.
type Aggregator struct {
	fetcher     gateway.EventFetcher
	cache       store.Store
	logger      *log.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
	concurrency int
	locks       *keyLocks
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithConcurrency sets how many repositories are resolved at once.
// Values below 1 are treated as 1.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		a.concurrency = max(n, 1)
	}
}

// WithMetrics records pipeline metrics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

// WithClock replaces the wall clock used to select recent events.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(fetcher gateway.EventFetcher, cache store.Store, logger *log.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		fetcher:     fetcher,
		cache:       cache,
		logger:      logger,
		now:         time.Now,
		concurrency: 1,
		locks:       newKeyLocks(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetStatistics returns one entry per repository, in input order.
// Repositories are resolved independently, at most `concurrency` at a time;
// work on the same repository is serialized so a duplicate entry finds the
// statistics stored by the first one.
func (a *Aggregator) GetStatistics(ctx context.Context, repos []domain.RepositoryRef) ([]*domain.RepoStatistics, error) {
	if len(repos) > domain.MaxRepositories {
		return nil, fmt.Errorf("%w: got %d, at most %d", ErrTooManyRepositories, len(repos), domain.MaxRepositories)
	}
	for _, repo := range repos {
		if err := repo.Validate(); err != nil {
			return nil, err
		}
	}
	a.logger.Printf("Usecase: Collecting statistics for %d repositories...", len(repos))

	results := make([]*domain.RepoStatistics, len(repos))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.concurrency)
	for i, repo := range repos {
		eg.Go(func() error {
			stats, err := a.repoStatistics(egCtx, repo)
			if err != nil {
				return fmt.Errorf("failed to get statistics for %s: %w", repo, err)
			}
			results[i] = stats
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	a.logger.Println("Usecase: Statistics complete.")
	return results, nil
}

func (a *Aggregator) repoStatistics(ctx context.Context, repo domain.RepositoryRef) (*domain.RepoStatistics, error) {
	unlock := a.locks.lock(repo.CacheKey())
	defer unlock()

	record, found, err := a.cache.Load(ctx, repo)
	if err != nil {
		return nil, err
	}
	a.metrics.ObserveCacheLookup(found)
	if found {
		a.logger.Printf("Using stored statistics for %s.", repo)
		return &domain.RepoStatistics{Repository: repo, AverageTimes: record, FromCache: true}, nil
	}

	start := time.Now()
	record, err = a.computeStatistics(ctx, repo)
	if err != nil {
		return nil, err
	}
	a.metrics.ObserveCompute(time.Since(start))

	if err := a.cache.Save(ctx, repo, record); err != nil {
		return nil, err
	}
	return &domain.RepoStatistics{Repository: repo, AverageTimes: record}, nil
}

// computeStatistics fetches, groups and averages repo's events. Event types
// with a zero average (a single event) are left out.
func (a *Aggregator) computeStatistics(ctx context.Context, repo domain.RepositoryRef) (domain.StatisticsRecord, error) {
	events, err := a.fetcher.FetchEvents(ctx, repo)
	if err != nil {
		a.metrics.ObserveFetch(metrics.FetchError)
		return nil, err
	}
	if len(events) == 0 {
		a.metrics.ObserveFetch(metrics.FetchEmpty)
	} else {
		a.metrics.ObserveFetch(metrics.FetchEvents)
	}

	events, err = gateway.SelectForStatistics(events, a.now())
	if err != nil {
		return nil, err
	}
	grouped, err := GroupByType(events)
	if errors.Is(err, ErrMissingEventData) {
		a.logger.Printf("Error: %v for %s", err, repo)
		return domain.StatisticsRecord{}, nil
	}
	if err != nil {
		return nil, err
	}

	record := make(domain.StatisticsRecord, len(grouped))
	for eventType, timestamps := range grouped {
		avg, err := AverageInterval(timestamps)
		if err != nil {
			return nil, fmt.Errorf("failed to average %s events: %w", eventType, err)
		}
		if avg != 0 {
			record[eventType] = avg
		}
	}
	return record, nil
}
