// Package store persists per-repository statistics records.
package store

import (
	"context"

	"github.com/naka-gawa/repo-event-stats/internal/domain"
)

// Store is a per-repository key-value table of event type to average interval.
type Store interface {
	// Load returns the stored record for repo. found is false when nothing
	// has been stored for it yet.
	Load(ctx context.Context, repo domain.RepositoryRef) (record domain.StatisticsRecord, found bool, err error)
	// Save merges record into the stored record for repo: entries in record
	// overwrite entries with the same event type, other entries are kept.
	// Saving an empty record is a no-op.
	Save(ctx context.Context, repo domain.RepositoryRef, record domain.StatisticsRecord) error
	// Delete removes everything stored for repo.
	Delete(ctx context.Context, repo domain.RepositoryRef) error
}
