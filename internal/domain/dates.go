package domain

import (
	"time"
)

// DateKey is the canonical YYYY-MM-DD identifier for a calendar day.
// Keys are zero-padded so lexicographic order equals chronological order.
type DateKey string

const (
	dateKeyLayout    = "2006-01-02"
	monthValueLayout = "2006-01"
)

// ToDateKey formats a time as a DateKey using its local calendar fields,
// not UTC, so the key names the day the user sees on their calendar.
func ToDateKey(t time.Time) DateKey {
	return DateKey(t.Format(dateKeyLayout))
}

// ParseDateKey parses a DateKey back into a time at midnight local time.
func ParseDateKey(key DateKey) (time.Time, error) {
	return time.ParseInLocation(dateKeyLayout, string(key), time.Local)
}

// IsValidDateKey reports whether key is a well-formed, real calendar day.
func IsValidDateKey(key DateKey) bool {
	_, err := ParseDateKey(key)
	return err == nil
}

// MonthDates expands a YYYY-MM value into every day of that month, ascending.
// Malformed values fall back to the month of now() instead of erroring.
func MonthDates(monthValue string, now func() time.Time) []time.Time {
	if now == nil {
		now = time.Now
	}
	first, err := time.ParseInLocation(monthValueLayout, monthValue, time.Local)
	if err != nil {
		n := now()
		first = time.Date(n.Year(), n.Month(), 1, 0, 0, 0, 0, time.Local)
	}
	lastDay := first.AddDate(0, 1, -1).Day()
	dates := make([]time.Time, 0, lastDay)
	for day := 1; day <= lastDay; day++ {
		dates = append(dates, time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.Local))
	}
	return dates
}

// MonthDateKeys is MonthDates with each day rendered as a DateKey.
func MonthDateKeys(monthValue string, now func() time.Time) []DateKey {
	dates := MonthDates(monthValue, now)
	keys := make([]DateKey, len(dates))
	for i, d := range dates {
		keys[i] = ToDateKey(d)
	}
	return keys
}

// CalendarGrid lays out a month as week rows starting on weekStart.
// Leading and trailing cells that belong to adjacent months are empty keys.
func CalendarGrid(monthValue string, weekStart time.Weekday, now func() time.Time) [][]DateKey {
	dates := MonthDates(monthValue, now)
	if len(dates) == 0 {
		return nil
	}
	leading := (int(dates[0].Weekday()) - int(weekStart) + 7) % 7
	cells := make([]DateKey, leading, leading+len(dates))
	for _, d := range dates {
		cells = append(cells, ToDateKey(d))
	}
	for len(cells)%7 != 0 {
		cells = append(cells, "")
	}
	grid := make([][]DateKey, 0, len(cells)/7)
	for i := 0; i < len(cells); i += 7 {
		grid = append(grid, cells[i:i+7])
	}
	return grid
}
