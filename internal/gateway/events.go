package gateway

import (
	"time"

	"github.com/naka-gawa/repo-event-stats/internal/domain"
)

const (
	// recentThreshold is the feed size above which only recent events are kept.
	recentThreshold = 500
	recentWindow    = 7 * 24 * time.Hour
)

// RecentSubset returns the events created within the week before now.
func RecentSubset(events []domain.Event, now time.Time) ([]domain.Event, error) {
	cutoff := now.Add(-recentWindow)
	recent := make([]domain.Event, 0, len(events))
	for _, event := range events {
		createdAt, err := domain.ParseTimestamp(event.CreatedAt)
		if err != nil {
			return nil, err
		}
		if !createdAt.Before(cutoff) {
			recent = append(recent, event)
		}
	}
	return recent, nil
}

// SelectForStatistics caps large feeds to the last week of activity and
// returns smaller feeds unchanged.
func SelectForStatistics(events []domain.Event, now time.Time) ([]domain.Event, error) {
	if len(events) > recentThreshold {
		return RecentSubset(events, now)
	}
	return events, nil
}
