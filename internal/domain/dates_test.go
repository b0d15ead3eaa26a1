package domain

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow(t *testing.T) func() time.Time {
	t.Helper()
	return func() time.Time {
		return time.Date(2026, time.August, 29, 10, 0, 0, 0, time.Local)
	}
}

func TestToDateKey_UsesLocalCalendarFields(t *testing.T) {
	d := time.Date(2026, time.March, 7, 23, 59, 0, 0, time.Local)
	assert.Equal(t, DateKey("2026-03-07"), ToDateKey(d))
}

func TestIsValidDateKey(t *testing.T) {
	tests := []struct {
		key   DateKey
		valid bool
	}{
		{"2026-03-14", true},
		{"2024-02-29", true},  // leap day
		{"2026-02-29", false}, // not a leap year
		{"2026-3-14", false},  // missing zero padding
		{"2026-13-01", false},
		{"garbage", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, IsValidDateKey(tt.key), "key %q", tt.key)
	}
}

func TestMonthDateKeys(t *testing.T) {
	keys := MonthDateKeys("2024-02", fixedNow(t))
	require.Len(t, keys, 29, "February 2024 is a leap month")
	assert.Equal(t, DateKey("2024-02-01"), keys[0])
	assert.Equal(t, DateKey("2024-02-29"), keys[28])

	assert.True(t, sort.SliceIsSorted(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	}), "string order must equal chronological order")
}

func TestMonthDateKeys_MalformedFallsBackToCurrentMonth(t *testing.T) {
	for _, bad := range []string{"", "2026/08", "not-a-month"} {
		keys := MonthDateKeys(bad, fixedNow(t))
		require.Len(t, keys, 31, "input %q", bad)
		assert.Equal(t, DateKey("2026-08-01"), keys[0])
		assert.Equal(t, DateKey("2026-08-31"), keys[30])
	}
}

func TestCalendarGrid(t *testing.T) {
	// March 2026 starts on a Sunday and has 31 days.
	grid := CalendarGrid("2026-03", time.Sunday, fixedNow(t))
	require.Len(t, grid, 5)
	for _, week := range grid {
		require.Len(t, week, 7)
	}
	assert.Equal(t, DateKey("2026-03-01"), grid[0][0])
	assert.Equal(t, DateKey("2026-03-31"), grid[4][2])
	assert.Equal(t, DateKey(""), grid[4][3], "trailing cells are empty")
}

func TestCalendarGrid_WeekStartMonday(t *testing.T) {
	// With Monday-start weeks, Sunday March 1st sits at the end of row one.
	grid := CalendarGrid("2026-03", time.Monday, fixedNow(t))
	require.NotEmpty(t, grid)
	assert.Equal(t, DateKey(""), grid[0][0])
	assert.Equal(t, DateKey("2026-03-01"), grid[0][6])
}
