// Package workdays counts working days between calendar dates. A working
// day is Monday through Friday excluding dates present in a holiday set.
// All arithmetic happens on UTC calendar dates; time of day never affects
// a count.
package workdays

import "time"

// dateKeyLayout is the canonical YYYY-MM-DD key shared by holiday lookups
// and the iteration cursor.
const dateKeyLayout = "2006-01-02"

// DateKey returns the canonical UTC date key for an instant.
func DateKey(t time.Time) string {
	return t.UTC().Format(dateKeyLayout)
}

// ParseDate parses a holiday or boundary value. It accepts a bare date or
// an RFC3339 timestamp and returns the zero time when the value cannot be
// parsed, which downstream treats as "no date".
func ParseDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(dateKeyLayout, raw); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

// HolidaySet holds canonical date keys excluded from working-day counts.
type HolidaySet map[string]struct{}

// NewHolidaySet builds a holiday set from instants, dropping zero values.
func NewHolidaySet(dates ...time.Time) HolidaySet {
	set := make(HolidaySet, len(dates))
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		set[DateKey(d)] = struct{}{}
	}
	return set
}

// ParseHolidaySet builds a holiday set from raw strings. Unparseable
// entries are skipped rather than reported; missing holidays only ever
// inflate a count.
func ParseHolidaySet(raw []string) HolidaySet {
	set := make(HolidaySet, len(raw))
	for _, r := range raw {
		d := ParseDate(r)
		if d.IsZero() {
			continue
		}
		set[DateKey(d)] = struct{}{}
	}
	return set
}

// Contains reports whether the instant's UTC date is a holiday.
func (s HolidaySet) Contains(t time.Time) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[DateKey(t)]
	return ok
}

// Between counts working days in the half-open interval [start, end):
// start's date is included when it is a working day, end's date never is.
// Zero-valued inputs and non-positive spans yield 0, never a negative
// count. Every SLA figure in the system derives from this function, so
// the boundary semantics here are load-bearing.
func Between(start, end time.Time, holidays HolidaySet) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}

	cursor := truncateToUTCDate(start)
	limit := truncateToUTCDate(end)
	if !limit.After(cursor) {
		return 0
	}

	count := 0
	for ; cursor.Before(limit); cursor = cursor.AddDate(0, 0, 1) {
		switch cursor.Weekday() {
		case time.Saturday, time.Sunday:
			continue
		}
		if holidays.Contains(cursor) {
			continue
		}
		count++
	}
	return count
}

func truncateToUTCDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
