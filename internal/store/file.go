package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/naka-gawa/repo-event-stats/internal/domain"
)

// DefaultDir is the directory the file store writes to unless told otherwise.
const DefaultDir = "statistics"

// FileStore keeps one CSV file per repository under a root directory.
// The directory is created on the first write.
type FileStore struct {
	root   string
	logger *log.Logger
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string, logger *log.Logger) *FileStore {
	if dir == "" {
		dir = DefaultDir
	}
	return &FileStore{root: dir, logger: logger}
}

// Path returns the file holding repo's statistics.
func (s *FileStore) Path(repo domain.RepositoryRef) string {
	return filepath.Join(s.root, repo.CacheKey()+"_statistics.csv")
}

func (s *FileStore) Load(_ context.Context, repo domain.RepositoryRef) (domain.StatisticsRecord, bool, error) {
	path := s.Path(repo)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to open statistics file: %w", err)
	}
	defer f.Close()

	record, err := DecodeRecord(f)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read statistics file %s: %w", path, err)
	}
	return record, true, nil
}

// Save rewrites the whole file through a temporary file and a rename, so
// readers never observe a partial write. Zero entries are not stored, and a
// record without any other entry leaves the store untouched.
func (s *FileStore) Save(ctx context.Context, repo domain.RepositoryRef, record domain.StatisticsRecord) error {
	record = record.NonZero()
	if len(record) == 0 {
		return nil
	}
	merged, found, err := s.Load(ctx, repo)
	if err != nil {
		return err
	}
	if !found {
		merged = domain.StatisticsRecord{}
	}
	merged.Merge(record)

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("failed to create statistics directory: %w", err)
	}
	tmp, err := os.CreateTemp(s.root, "."+repo.CacheKey()+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary statistics file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := EncodeRecord(tmp, merged); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write statistics: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write statistics: %w", err)
	}
	path := s.Path(repo)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace statistics file: %w", err)
	}
	s.logger.Printf("Saved %d event types to %s.", len(merged), path)
	return nil
}

func (s *FileStore) Delete(_ context.Context, repo domain.RepositoryRef) error {
	err := os.Remove(s.Path(repo))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete statistics file: %w", err)
	}
	return nil
}
