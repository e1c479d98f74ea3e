package store

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/naka-gawa/repo-event-stats/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRepo = domain.RepositoryRef{Owner: "octo", Name: "hello"}

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "statistics"), log.New(io.Discard, "", 0))
}

func TestFileStore_Path(t *testing.T) {
	s := NewFileStore("", log.New(io.Discard, "", 0))
	assert.Equal(t, filepath.Join("statistics", "octo_hello_statistics.csv"), s.Path(testRepo))
}

func TestFileStore_LoadMissing(t *testing.T) {
	s := newTestFileStore(t)
	record, found, err := s.Load(context.Background(), testRepo)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, record)
}

func TestFileStore_RoundTrip(t *testing.T) {
	s := newTestFileStore(t)
	saved := domain.StatisticsRecord{
		"PushEvent":         -45000,
		"WatchEvent":        1234.5678901234,
		"IssueCommentEvent": 1.0 / 3.0,
	}
	require.NoError(t, s.Save(context.Background(), testRepo, saved))

	loaded, found, err := s.Load(context.Background(), testRepo)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, loaded, len(saved))
	for eventType, avg := range saved {
		assert.InDelta(t, avg, loaded[eventType], 1e-6, eventType)
	}
}

func TestFileStore_Merge(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, testRepo, domain.StatisticsRecord{"A": 1}))
	require.NoError(t, s.Save(ctx, testRepo, domain.StatisticsRecord{"B": 2}))
	require.NoError(t, s.Save(ctx, testRepo, domain.StatisticsRecord{"B": 3, "C": 4}))

	loaded, found, err := s.Load(ctx, testRepo)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, domain.StatisticsRecord{"A": 1, "B": 3, "C": 4}, loaded)
}

func TestFileStore_SaveEmptyIsNoop(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testRepo, domain.StatisticsRecord{}))
	_, err := os.Stat(s.root)
	assert.True(t, os.IsNotExist(err), "directory must not be created for an empty record")

	require.NoError(t, s.Save(ctx, testRepo, domain.StatisticsRecord{"A": 1}))
	before, err := os.ReadFile(s.Path(testRepo))
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, testRepo, nil))
	after, err := os.ReadFile(s.Path(testRepo))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFileStore_SaveDropsZeroEntries(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testRepo, domain.StatisticsRecord{"PushEvent": 0}))
	_, found, err := s.Load(ctx, testRepo)
	require.NoError(t, err)
	assert.False(t, found, "a record of zeros must not create an entry")

	require.NoError(t, s.Save(ctx, testRepo, domain.StatisticsRecord{"PushEvent": 0, "WatchEvent": 5}))
	data, err := os.ReadFile(s.Path(testRepo))
	require.NoError(t, err)
	assert.Equal(t, "event_type,average_time\nWatchEvent,5\n", string(data))
}

func TestFileStore_FileLayout(t *testing.T) {
	s := newTestFileStore(t)
	require.NoError(t, s.Save(context.Background(), testRepo, domain.StatisticsRecord{"WatchEvent": 90000, "PushEvent": -1800.5}))

	data, err := os.ReadFile(s.Path(testRepo))
	require.NoError(t, err)
	assert.Equal(t, "event_type,average_time\nPushEvent,-1800.5\nWatchEvent,90000\n", string(data))

	entries, err := os.ReadDir(s.root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	s := newTestFileStore(t)
	require.NoError(t, os.MkdirAll(s.root, 0o755))
	require.NoError(t, os.WriteFile(s.Path(testRepo), []byte("type,avg\nPushEvent,1\n"), 0o644))

	_, _, err := s.Load(context.Background(), testRepo)
	assert.ErrorIs(t, err, ErrUnknownFormat)

	err = s.Save(context.Background(), testRepo, domain.StatisticsRecord{"A": 1})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFileStore_Delete(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()
	require.NoError(t, s.Delete(ctx, testRepo), "deleting a missing entry is not an error")

	require.NoError(t, s.Save(ctx, testRepo, domain.StatisticsRecord{"A": 1}))
	require.NoError(t, s.Delete(ctx, testRepo))
	_, found, err := s.Load(ctx, testRepo)
	require.NoError(t, err)
	assert.False(t, found)
}
