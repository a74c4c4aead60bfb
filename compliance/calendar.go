package compliance

import (
	"sort"
	"time"
)

// FederalHoliday is one observed federal holiday. Fixed-date holidays that
// fall on a weekend carry their observed date, not the nominal one.
type FederalHoliday struct {
	Date Date   `json:"date"`
	Name string `json:"name"`
}

// FederalHolidays returns the 11 US federal holidays for a year, sorted by
// date. Fixed-date holidays are shifted to their observed date
// (Saturday to the preceding Friday, Sunday to the following Monday);
// nth-weekday holidays never need shifting.
func FederalHolidays(year int) []FederalHoliday {
	holidays := []FederalHoliday{
		{observedDate(NewDate(year, time.January, 1)), "New Year's Day"},
		{nthWeekdayOfMonth(year, time.January, time.Monday, 3), "Martin Luther King Jr. Day"},
		{nthWeekdayOfMonth(year, time.February, time.Monday, 3), "Presidents' Day"},
		{lastWeekdayOfMonth(year, time.May, time.Monday), "Memorial Day"},
		{observedDate(NewDate(year, time.June, 19)), "Juneteenth"},
		{observedDate(NewDate(year, time.July, 4)), "Independence Day"},
		{nthWeekdayOfMonth(year, time.September, time.Monday, 1), "Labor Day"},
		{nthWeekdayOfMonth(year, time.October, time.Monday, 2), "Columbus Day"},
		{observedDate(NewDate(year, time.November, 11)), "Veterans Day"},
		{nthWeekdayOfMonth(year, time.November, time.Thursday, 4), "Thanksgiving Day"},
		{observedDate(NewDate(year, time.December, 25)), "Christmas Day"},
	}

	sort.Slice(holidays, func(i, j int) bool {
		return holidays[i].Date.Before(holidays[j].Date.Time)
	})
	return holidays
}

// IsFederalHoliday reports whether a date is an observed federal holiday.
func IsFederalHoliday(date Date) bool {
	for _, h := range FederalHolidays(date.Year()) {
		if h.Date.Equal(date) {
			return true
		}
	}
	return false
}

// IsWeekend reports whether a date falls on Saturday or Sunday.
func IsWeekend(date Date) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// NextBusinessDay advances past weekends and federal holidays. A weekend
// landing can roll into a Monday holiday, so this loops rather than
// correcting once.
func NextBusinessDay(date Date) Date {
	current := date
	for IsWeekend(current) || IsFederalHoliday(current) {
		current = current.AddDays(1)
	}
	return current
}

// observedDate applies the federal observation rule for fixed-date holidays:
// Saturday is observed the preceding Friday, Sunday the following Monday.
func observedDate(date Date) Date {
	switch date.Weekday() {
	case time.Saturday:
		return date.AddDays(-1)
	case time.Sunday:
		return date.AddDays(1)
	default:
		return date
	}
}

// nthWeekdayOfMonth computes e.g. the third Monday of January.
func nthWeekdayOfMonth(year int, month time.Month, weekday time.Weekday, n int) Date {
	first := NewDate(year, month, 1)
	daysAhead := (int(weekday) - int(first.Weekday()) + 7) % 7
	return first.AddDays(daysAhead + (n-1)*7)
}

// lastWeekdayOfMonth computes e.g. the last Monday of May.
func lastWeekdayOfMonth(year int, month time.Month, weekday time.Weekday) Date {
	last := NewDate(year, month+1, 1).AddDays(-1)
	daysBack := (int(last.Weekday()) - int(weekday) + 7) % 7
	return last.AddDays(-daysBack)
}
