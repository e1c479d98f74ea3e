package usecase

import (
	"testing"

	"github.com/naka-gawa/repo-event-stats/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverageInterval(t *testing.T) {
	testCases := []struct {
		name       string
		timestamps []string
		expected   float64
	}{
		{name: "no timestamps", timestamps: nil, expected: 0},
		{name: "single timestamp", timestamps: []string{"2022-03-30T12:00:00Z"}, expected: 0},
		{
			// Steps are +24h and +1h; each is negated before averaging.
			name:       "chronological input is negative",
			timestamps: []string{"2022-03-30T12:00:00Z", "2022-03-31T12:00:00Z", "2022-03-31T13:00:00Z"},
			expected:   -45000,
		},
		{
			name:       "newest first input is positive",
			timestamps: []string{"2022-03-31T13:00:00Z", "2022-03-31T12:00:00Z", "2022-03-30T12:00:00Z"},
			expected:   45000,
		},
		{
			name:       "order is trusted, not sorted",
			timestamps: []string{"2022-03-31T12:00:00Z", "2022-03-31T13:00:00Z", "2022-03-31T12:30:00Z"},
			expected:   -900,
		},
		{
			name:       "pair one day and one hour apart",
			timestamps: []string{"2022-03-30T12:00:00Z", "2022-03-31T13:00:00Z"},
			expected:   -90000,
		},
		{
			name:       "identical timestamps average to zero",
			timestamps: []string{"2022-03-30T12:00:00Z", "2022-03-30T12:00:00Z"},
			expected:   0,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			avg, err := AverageInterval(tc.timestamps)
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, avg, 1e-9)
		})
	}
}

func TestAverageInterval_MalformedTimestamp(t *testing.T) {
	for _, timestamps := range [][]string{
		{"2022-03-30 12:00", "2022-03-31T12:00:00Z"},
		{"2022-03-30T12:00:00Z", "tomorrow"},
	} {
		_, err := AverageInterval(timestamps)
		assert.ErrorIs(t, err, domain.ErrMalformedTimestamp)
	}
}

func TestAverageInterval_SingleMalformedTimestampIsNotParsed(t *testing.T) {
	avg, err := AverageInterval([]string{"garbage"})
	require.NoError(t, err)
	assert.Zero(t, avg)
}
