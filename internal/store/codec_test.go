package store

import (
	"bytes"
	"strings"
	"testing"

	"github.com/naka-gawa/repo-event-stats/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecord(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expected    domain.StatisticsRecord
		expectError bool
	}{
		{
			name:     "rows written by an earlier release",
			input:    "event_type,average_time\nPushEvent,-45000.0\nWatchEvent,1800.25\n",
			expected: domain.StatisticsRecord{"PushEvent": -45000, "WatchEvent": 1800.25},
		},
		{
			name:     "zero rows are dropped",
			input:    "event_type,average_time\nPushEvent,0\nForkEvent,0.0\nWatchEvent,2\n",
			expected: domain.StatisticsRecord{"WatchEvent": 2},
		},
		{
			name:     "header only",
			input:    "event_type,average_time\n",
			expected: domain.StatisticsRecord{},
		},
		{
			name:     "empty file",
			input:    "",
			expected: domain.StatisticsRecord{},
		},
		{
			name:        "non numeric average",
			input:       "event_type,average_time\nPushEvent,soon\n",
			expectError: true,
		},
		{
			name:        "wrong column count",
			input:       "event_type,average_time\nPushEvent\n",
			expectError: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			record, err := DecodeRecord(strings.NewReader(tc.input))
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, record)
		})
	}
}

func TestEncodeRecord_QuotesEventTypes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeRecord(&buf, domain.StatisticsRecord{"odd,type": 1.5}))
	assert.Equal(t, "event_type,average_time\n\"odd,type\",1.5\n", buf.String())

	record, err := DecodeRecord(&buf)
	require.NoError(t, err)
	assert.Equal(t, domain.StatisticsRecord{"odd,type": 1.5}, record)
}
