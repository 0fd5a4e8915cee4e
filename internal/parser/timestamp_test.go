package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/mindstore/internal/errors"
)

// Wednesday.
var refNow = time.Date(2025, 3, 12, 15, 42, 10, 0, time.UTC)

func TestParseTimestampNow(t *testing.T) {
	for _, in := range []string{"", "now", "NOW", "  now  "} {
		got, err := ParseTimestamp(in, refNow)
		require.NoError(t, err, in)
		assert.Equal(t, refNow, got, in)
	}
}

func TestParseTimestampPeriods(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"this hour", time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)},
		{"last hour", time.Date(2025, 3, 12, 14, 0, 0, 0, time.UTC)},
		{"this day", time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)},
		{"previous day", time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)},
		{"this week", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"last week", time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)},
		{"Current Month", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"last month", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"last year", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input, refNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTimestampSundayWeek(t *testing.T) {
	sunday := time.Date(2025, 3, 16, 9, 0, 0, 0, time.UTC)
	got, err := ParseTimestamp("this week", sunday)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), got)
}

func TestParseTimestampNaturalLanguage(t *testing.T) {
	got, err := ParseTimestamp("2025-01-31", refNow)
	require.NoError(t, err)
	assert.Equal(t, 2025, got.Year())
	assert.Equal(t, time.January, got.Month())
	assert.Equal(t, 31, got.Day())

	got, err = ParseTimestamp("3 days ago", refNow)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Day())
}

func TestParseTimestampInvalid(t *testing.T) {
	_, err := ParseTimestamp("qwzx blorp", refNow)
	require.Error(t, err)
	assert.True(t, errors.IsUserError(err))
	assert.Equal(t, TimestampExamples, errors.GetSuggestion(err))
}
