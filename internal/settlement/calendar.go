// Package settlement derives the payment state of branch expenses and decides
// which notification rules fire on a given business day. Everything in this
// package is pure: persistence and delivery live in the service layer.
package settlement

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDate reports a date string that does not parse as YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date")

// Date is a calendar date with no time component. All due-date and alert
// arithmetic works on whole days; sub-day precision never enters this package.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a calendar date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate parses a YYYY-MM-DD string. Malformed input is a hard error;
// a calendar day is never guessed from bad input.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("%w %q: %v", ErrInvalidDate, s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// AddDays returns the date n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	t := d.utc().AddDate(0, 0, n)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.utc().Before(other.utc())
}

// Equal reports whether two dates name the same calendar day.
func (d Date) Equal(other Date) bool {
	return d == other
}

func (d Date) utc() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed number of whole calendar days from a to b,
// positive when b is later. DaysBetween(d, d) == 0.
func DaysBetween(a, b Date) int {
	return int(b.utc().Sub(a.utc()).Hours() / 24)
}

// Calendar converts instants to calendar dates in the business time zone.
// The zone is a fixed offset from UTC with no daylight-saving transitions.
type Calendar struct {
	loc *time.Location
}

// NewCalendar builds a calendar for a fixed UTC offset in hours.
func NewCalendar(offsetHours int) Calendar {
	name := fmt.Sprintf("UTC%+03d", offsetHours)
	return Calendar{loc: time.FixedZone(name, offsetHours*3600)}
}

// DateOf returns the calendar date of an instant as observed in the business
// zone. An instant late in the UTC evening can already be the next day here.
func (c Calendar) DateOf(t time.Time) Date {
	local := t.In(c.loc)
	return Date{Year: local.Year(), Month: local.Month(), Day: local.Day()}
}
