package usecase

import (
	"github.com/montanaflynn/stats"
	"github.com/naka-gawa/repo-event-stats/internal/domain"
)

// AverageInterval returns the mean number of seconds between consecutive
// timestamps, in the order given. Each step is measured as predecessor minus
// current, so a newest-first feed yields a positive figure and a
// chronological one a negative figure. Fewer than two timestamps yield 0.
func AverageInterval(timestamps []string) (float64, error) {
	if len(timestamps) < 2 {
		return 0, nil
	}

	prev, err := domain.ParseTimestamp(timestamps[0])
	if err != nil {
		return 0, err
	}
	diffs := make(stats.Float64Data, 0, len(timestamps)-1)
	for _, ts := range timestamps[1:] {
		current, err := domain.ParseTimestamp(ts)
		if err != nil {
			return 0, err
		}
		diffs = append(diffs, -current.Sub(prev).Seconds())
		prev = current
	}
	return stats.Mean(diffs)
}
