package gateway

import (
	"fmt"
	"testing"
	"time"

	"github.com/naka-gawa/repo-event-stats/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecentSubset(t *testing.T) {
	now := time.Date(2024, 3, 28, 12, 0, 0, 0, time.UTC)
	events := []domain.Event{
		{Type: "PushEvent", CreatedAt: "2024-03-28T11:00:00Z"},
		{Type: "PushEvent", CreatedAt: "2024-03-21T12:00:00Z"}, // exactly one week old
		{Type: "WatchEvent", CreatedAt: "2024-03-21T11:59:59Z"},
		{Type: "IssuesEvent", CreatedAt: "2024-01-01T00:00:00Z"},
	}

	recent, err := RecentSubset(events, now)
	require.NoError(t, err)
	assert.Equal(t, events[:2], recent)
}

func TestRecentSubset_MalformedTimestamp(t *testing.T) {
	_, err := RecentSubset([]domain.Event{{Type: "PushEvent", CreatedAt: "not-a-time"}}, time.Now())
	assert.ErrorIs(t, err, domain.ErrMalformedTimestamp)
}

func TestSelectForStatistics(t *testing.T) {
	now := time.Date(2024, 3, 28, 12, 0, 0, 0, time.UTC)
	feed := func(n int) []domain.Event {
		events := make([]domain.Event, 0, n)
		for i := 0; i < n; i++ {
			// Newest first, one hour apart.
			createdAt := now.Add(-time.Duration(i) * time.Hour).Format(time.RFC3339)
			events = append(events, domain.Event{ID: fmt.Sprint(i), Type: "PushEvent", CreatedAt: createdAt})
		}
		return events
	}

	t.Run("small feeds are used unmodified", func(t *testing.T) {
		events := feed(recentThreshold)
		selected, err := SelectForStatistics(events, now)
		require.NoError(t, err)
		assert.Equal(t, events, selected)
	})

	t.Run("large feeds keep only the last week", func(t *testing.T) {
		events := feed(recentThreshold + 1)
		selected, err := SelectForStatistics(events, now)
		require.NoError(t, err)
		// Hours 0..168 inclusive fall inside the window.
		assert.Len(t, selected, 7*24+1)
		assert.Equal(t, events[:7*24+1], selected)
	})

	t.Run("nil feeds pass through", func(t *testing.T) {
		selected, err := SelectForStatistics(nil, now)
		require.NoError(t, err)
		assert.Nil(t, selected)
	})
}
