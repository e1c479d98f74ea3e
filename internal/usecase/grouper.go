package usecase

import (
	"errors"
	"sort"

	"github.com/naka-gawa/repo-event-stats/internal/domain"
)

// ErrMissingEventData is returned when there is no event list to group at all,
// as opposed to an empty one.
var ErrMissingEventData = errors.New("no events were read")

// GroupByType partitions events by type. Within a type, timestamps keep the
// order the events were delivered in.
func GroupByType(events []domain.Event) (domain.EventGroup, error) {
	if events == nil {
		return nil, ErrMissingEventData
	}

	sorted := make([]domain.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Type < sorted[j].Type
	})

	grouped := make(domain.EventGroup)
	for start := 0; start < len(sorted); {
		end := start
		for end < len(sorted) && sorted[end].Type == sorted[start].Type {
			end++
		}
		timestamps := make([]string, 0, end-start)
		for _, event := range sorted[start:end] {
			timestamps = append(timestamps, event.CreatedAt)
		}
		grouped[sorted[start].Type] = timestamps
		start = end
	}
	return grouped, nil
}
