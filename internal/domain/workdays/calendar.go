// Package workdays implements working-day arithmetic over a fixed holiday set.
// Everything here is pure; values are safe to share between goroutines.
package workdays

import (
	"time"
)

// Holiday is a single named day off.
type Holiday struct {
	Date time.Time
	Name string
}

type civilDate struct {
	year  int
	month time.Month
	day   int
}

func civilOf(t time.Time) civilDate {
	y, m, d := t.Date()
	return civilDate{y, m, d}
}

// HolidaySet is an immutable set of calendar dates for one jurisdiction and
// year range. Build it once at start-up.
type HolidaySet struct {
	days     map[civilDate]string
	fromYear int
	toYear   int
}

// NewHolidaySet builds a set covering fromYear..toYear inclusive. Holidays
// outside that range are ignored.
func NewHolidaySet(fromYear, toYear int, holidays []Holiday) HolidaySet {
	if toYear < fromYear {
		fromYear, toYear = toYear, fromYear
	}
	days := make(map[civilDate]string, len(holidays))
	for _, h := range holidays {
		c := civilOf(h.Date)
		if c.year < fromYear || c.year > toYear {
			continue
		}
		if _, dup := days[c]; dup {
			continue
		}
		days[c] = h.Name
	}
	return HolidaySet{days: days, fromYear: fromYear, toYear: toYear}
}

// Contains reports whether d is a holiday.
func (s HolidaySet) Contains(d time.Time) bool {
	_, ok := s.days[civilOf(d)]
	return ok
}

// Name returns the holiday name for d, if any.
func (s HolidaySet) Name(d time.Time) (string, bool) {
	name, ok := s.days[civilOf(d)]
	return name, ok
}

// Covers reports whether holiday data was loaded for year.
func (s HolidaySet) Covers(year int) bool {
	return len(s.days) > 0 && year >= s.fromYear && year <= s.toYear
}

// Uncovered lists the years between a and b (inclusive, either order) that
// have no holiday data.
func (s HolidaySet) Uncovered(a, b time.Time) []int {
	from, to := a.Year(), b.Year()
	if to < from {
		from, to = to, from
	}
	var years []int
	for y := from; y <= to; y++ {
		if !s.Covers(y) {
			years = append(years, y)
		}
	}
	return years
}

// Len returns the number of holidays in the set.
func (s HolidaySet) Len() int {
	return len(s.days)
}

// Calendar answers working-day questions: Monday to Friday, excluding holidays.
type Calendar struct {
	holidays HolidaySet
}

// NewCalendar creates a Calendar backed by holidays.
func NewCalendar(holidays HolidaySet) Calendar {
	return Calendar{holidays: holidays}
}

// Holidays returns the underlying set.
func (c Calendar) Holidays() HolidaySet {
	return c.holidays
}

// IsWorkingDay reports whether d is neither a weekend day nor a holiday.
// Years without holiday data fall back to the weekend rule alone.
func (c Calendar) IsWorkingDay(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !c.holidays.Contains(d)
}

// HolidaysBetween lists the holidays after from and up to through, in order.
func (c Calendar) HolidaysBetween(from, through time.Time) []Holiday {
	var out []Holiday
	for d := from.AddDate(0, 0, 1); !d.After(through); d = d.AddDate(0, 0, 1) {
		if name, ok := c.holidays.Name(d); ok {
			out = append(out, Holiday{Date: d, Name: name})
		}
	}
	return out
}

// AdvanceWorkingDays walks forward from start one calendar day at a time
// until n working days have been counted. n <= 0 returns start.
func (c Calendar) AdvanceWorkingDays(start time.Time, n int) time.Time {
	current := start
	for counted := 0; counted < n; {
		current = current.AddDate(0, 0, 1)
		if c.IsWorkingDay(current) {
			counted++
		}
	}
	return current
}

// AddCalendarMonths adds months to d, clamping to the last day of the target
// month when d's day does not exist there (31 Jan + 1 month = 28/29 Feb).
func AddCalendarMonths(d time.Time, months int) time.Time {
	y, m, day := d.Date()
	hh, mm, ss := d.Clock()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, d.Location())
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, hh, mm, ss, d.Nanosecond(), d.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
