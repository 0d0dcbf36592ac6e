package settlement_test

import (
	"testing"
	"time"

	"github.com/branchops/expense-service/internal/settlement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendar_DateOf_CrossesDayBoundary(t *testing.T) {
	// 23:00 UTC is already 01:00 the next day at UTC+2
	cal := settlement.NewCalendar(2)
	instant := time.Date(2026, time.February, 20, 23, 0, 0, 0, time.UTC)

	got := cal.DateOf(instant)

	assert.Equal(t, settlement.NewDate(2026, time.February, 21), got)
	assert.Equal(t, "2026-02-21", got.String())
}

func TestCalendar_DateOf_SameDay(t *testing.T) {
	cal := settlement.NewCalendar(2)
	instant := time.Date(2026, time.February, 20, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, settlement.NewDate(2026, time.February, 20), cal.DateOf(instant))
}

func TestCalendar_DateOf_NonUTCInstant(t *testing.T) {
	// 02:30 in UTC+5 is 21:30 UTC the previous day, which is 23:30 at UTC+2
	cal := settlement.NewCalendar(2)
	instant := time.Date(2026, time.March, 2, 2, 30, 0, 0, time.FixedZone("UTC+05", 5*3600))

	assert.Equal(t, settlement.NewDate(2026, time.March, 1), cal.DateOf(instant))
}

func TestDaysBetween_SameDateIsZero(t *testing.T) {
	d := settlement.NewDate(2026, time.February, 20)
	assert.Equal(t, 0, settlement.DaysBetween(d, d))
}

func TestDaysBetween_Antisymmetric(t *testing.T) {
	a := settlement.NewDate(2026, time.February, 20)
	b := settlement.NewDate(2026, time.March, 5)

	assert.Equal(t, 13, settlement.DaysBetween(a, b))
	assert.Equal(t, -13, settlement.DaysBetween(b, a))
	assert.Equal(t, settlement.DaysBetween(a, b), -settlement.DaysBetween(b, a))
}

func TestDaysBetween_AcrossYearBoundary(t *testing.T) {
	a := settlement.NewDate(2025, time.December, 30)
	b := settlement.NewDate(2026, time.January, 2)

	assert.Equal(t, 3, settlement.DaysBetween(a, b))
}

func TestDate_AddDays(t *testing.T) {
	d := settlement.NewDate(2026, time.February, 27)

	assert.Equal(t, settlement.NewDate(2026, time.March, 1), d.AddDays(2))
	assert.Equal(t, settlement.NewDate(2026, time.February, 20), d.AddDays(-7))
}

func TestParseDate_Valid(t *testing.T) {
	d, err := settlement.ParseDate("2026-02-20")
	require.NoError(t, err)
	assert.Equal(t, settlement.NewDate(2026, time.February, 20), d)
}

func TestParseDate_RoundTripsThroughString(t *testing.T) {
	d, err := settlement.ParseDate("2026-02-05")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-05", d.String())
}

func TestParseDate_Malformed(t *testing.T) {
	// Malformed input is a hard error; a calendar day is never guessed
	for _, input := range []string{"", "garbage", "20-02-2026", "2026-02-30", "2026-2-2", "2026-02-20T00:00:00Z"} {
		_, err := settlement.ParseDate(input)
		assert.ErrorIs(t, err, settlement.ErrInvalidDate, "input %q should not parse", input)
	}
}
