package store

import (
	"context"
	"fmt"
	"maps"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/naka-gawa/repo-event-stats/internal/domain"
)

// Memo keeps recently loaded records in memory in front of another Store.
// Records never expire; a Save or Delete drops the memoized copy.
type Memo struct {
	next  Store
	cache *lru.Cache[string, domain.StatisticsRecord]
}

// NewMemo wraps next with an LRU of the given size.
func NewMemo(next Store, size int) (*Memo, error) {
	cache, err := lru.New[string, domain.StatisticsRecord](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create memo: %w", err)
	}
	return &Memo{next: next, cache: cache}, nil
}

func (m *Memo) Load(ctx context.Context, repo domain.RepositoryRef) (domain.StatisticsRecord, bool, error) {
	if record, ok := m.cache.Get(repo.CacheKey()); ok {
		return maps.Clone(record), true, nil
	}
	record, found, err := m.next.Load(ctx, repo)
	if err != nil || !found {
		return record, found, err
	}
	m.cache.Add(repo.CacheKey(), maps.Clone(record))
	return record, true, nil
}

func (m *Memo) Save(ctx context.Context, repo domain.RepositoryRef, record domain.StatisticsRecord) error {
	defer m.cache.Remove(repo.CacheKey())
	return m.next.Save(ctx, repo, record)
}

func (m *Memo) Delete(ctx context.Context, repo domain.RepositoryRef) error {
	defer m.cache.Remove(repo.CacheKey())
	return m.next.Delete(ctx, repo)
}
