package workdays

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBetweenHalfOpenInterval(t *testing.T) {
	monday := date(2026, time.February, 9)

	assert.Equal(t, 0, Between(monday, monday, nil), "same day counts zero")
	assert.Equal(t, 1, Between(monday, monday.AddDate(0, 0, 1), nil), "weekday start included, end excluded")

	saturday := date(2026, time.February, 14)
	assert.Equal(t, 0, Between(saturday, saturday.AddDate(0, 0, 1), nil), "weekend start contributes nothing")
}

func TestBetweenSkipsWeekends(t *testing.T) {
	start := date(2026, time.February, 9) // Monday
	end := date(2026, time.February, 16)  // following Monday

	assert.Equal(t, 5, Between(start, end, nil))
}

func TestBetweenExcludesHolidays(t *testing.T) {
	start := date(2026, time.February, 9)
	end := date(2026, time.February, 12)
	holidays := NewHolidaySet(date(2026, time.February, 10))

	// 02-09 and 02-11 count; 02-10 is a holiday.
	assert.Equal(t, 2, Between(start, end, holidays))
}

func TestBetweenWeekendHolidayHasNoEffect(t *testing.T) {
	start := date(2026, time.February, 9)
	end := date(2026, time.February, 16)
	holidays := NewHolidaySet(date(2026, time.February, 14)) // Saturday

	assert.Equal(t, 5, Between(start, end, holidays))
}

func TestBetweenNonPositiveSpan(t *testing.T) {
	start := date(2026, time.March, 10)

	assert.Equal(t, 0, Between(start, start.AddDate(0, 0, -5), nil))
	assert.Equal(t, 0, Between(start.Add(15*time.Hour), start.Add(2*time.Hour), nil), "same date after truncation")
}

func TestBetweenZeroInputs(t *testing.T) {
	valid := date(2026, time.February, 9)

	assert.Equal(t, 0, Between(time.Time{}, valid, nil))
	assert.Equal(t, 0, Between(valid, time.Time{}, nil))
}

func TestBetweenIgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2026, time.February, 9, 23, 59, 0, 0, time.UTC)
	end := time.Date(2026, time.February, 10, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, 1, Between(start, end, nil))
}

func TestParseDate(t *testing.T) {
	assert.Equal(t, date(2026, time.January, 12), ParseDate("2026-01-12"))
	assert.Equal(t, "2026-01-12", DateKey(ParseDate("2026-01-12T08:30:00Z")))
	assert.True(t, ParseDate("not-a-date").IsZero())
	assert.True(t, ParseDate("").IsZero())
}

func TestParseHolidaySetSkipsInvalidEntries(t *testing.T) {
	set := ParseHolidaySet([]string{"2026-01-13", "garbage", "", "2026-01-13"})

	require.Len(t, set, 1)
	assert.True(t, set.Contains(date(2026, time.January, 13)))
	assert.False(t, set.Contains(date(2026, time.January, 14)))
}

func TestDateKeyNormalisesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	local := time.Date(2026, time.February, 10, 2, 0, 0, 0, loc)

	assert.Equal(t, "2026-02-09", DateKey(local))
}
