// Package redis stores statistics records as Redis hashes, one hash per
// repository.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/naka-gawa/repo-event-stats/internal/domain"
)

// KeyPrefix namespaces the hashes written by Store.
const KeyPrefix = "repo-event-stats:"

// Store is a Redis-backed statistics store. HSET gives the merge semantics
// directly: fields present in the new record overwrite, others are kept.
type Store struct {
	rdb *goredis.Client
}

// New wraps an existing client.
func New(rdb *goredis.Client) *Store {
	return &Store{rdb: rdb}
}

// Connect dials the server at redisURL and verifies it answers PING.
func Connect(ctx context.Context, redisURL string) (*Store, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	rdb := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return New(rdb), nil
}

func key(repo domain.RepositoryRef) string {
	return KeyPrefix + repo.CacheKey()
}

func (s *Store) Load(ctx context.Context, repo domain.RepositoryRef) (domain.StatisticsRecord, bool, error) {
	fields, err := s.rdb.HGetAll(ctx, key(repo)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis hgetall: %w", err)
	}
	if len(fields) == 0 {
		return nil, false, nil
	}
	record := make(domain.StatisticsRecord, len(fields))
	for eventType, value := range fields {
		avg, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, false, fmt.Errorf("invalid average_time for %q: %w", eventType, err)
		}
		record[eventType] = avg
	}
	return record, true, nil
}

func (s *Store) Save(ctx context.Context, repo domain.RepositoryRef, record domain.StatisticsRecord) error {
	record = record.NonZero()
	if len(record) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(record))
	for eventType, avg := range record {
		values[eventType] = strconv.FormatFloat(avg, 'f', -1, 64)
	}
	if err := s.rdb.HSet(ctx, key(repo), values).Err(); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, repo domain.RepositoryRef) error {
	if err := s.rdb.Del(ctx, key(repo)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.rdb.Close()
}
