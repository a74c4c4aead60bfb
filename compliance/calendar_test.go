package compliance

import (
	"testing"
	"time"
)

func TestFederalHolidaysCount(t *testing.T) {
	for _, year := range []int{2024, 2025, 2026, 2030} {
		holidays := FederalHolidays(year)
		if len(holidays) != 11 {
			t.Errorf("FederalHolidays(%d) returned %d holidays, want 11", year, len(holidays))
		}
	}
}

func TestFederalHolidays2025(t *testing.T) {
	holidays := FederalHolidays(2025)

	expected := map[string]Date{
		"New Year's Day":             NewDate(2025, time.January, 1),
		"Martin Luther King Jr. Day": NewDate(2025, time.January, 20),
		"Presidents' Day":            NewDate(2025, time.February, 17),
		"Memorial Day":               NewDate(2025, time.May, 26),
		"Juneteenth":                 NewDate(2025, time.June, 19),
		"Independence Day":           NewDate(2025, time.July, 4),
		"Labor Day":                  NewDate(2025, time.September, 1),
		"Columbus Day":               NewDate(2025, time.October, 13),
		"Veterans Day":               NewDate(2025, time.November, 11),
		"Thanksgiving Day":           NewDate(2025, time.November, 27),
		"Christmas Day":              NewDate(2025, time.December, 25),
	}

	for _, h := range holidays {
		want, ok := expected[h.Name]
		if !ok {
			t.Errorf("unexpected holiday %q on %s", h.Name, h.Date)
			continue
		}
		if !h.Date.Equal(want) {
			t.Errorf("%s = %s, want %s", h.Name, h.Date, want)
		}
	}
}

func TestFederalHolidaysSorted(t *testing.T) {
	holidays := FederalHolidays(2025)
	for i := 1; i < len(holidays); i++ {
		if holidays[i].Date.Before(holidays[i-1].Date.Time) {
			t.Errorf("holidays out of order: %s (%s) before %s (%s)",
				holidays[i].Name, holidays[i].Date,
				holidays[i-1].Name, holidays[i-1].Date)
		}
	}
}

// Independence Day 2026 falls on a Saturday and is observed the preceding
// Friday; the nominal date itself is a regular Saturday.
func TestObservedHolidayShift(t *testing.T) {
	if !IsFederalHoliday(NewDate(2026, time.July, 3)) {
		t.Error("2026-07-03 (observed Independence Day) should be a federal holiday")
	}

	var found bool
	for _, h := range FederalHolidays(2026) {
		if h.Date.Equal(NewDate(2026, time.July, 4)) {
			found = true
		}
	}
	if found {
		t.Error("2026-07-04 should not appear in the observed holiday list")
	}
}

func TestIsWeekend(t *testing.T) {
	tests := []struct {
		date Date
		want bool
	}{
		{NewDate(2025, time.October, 11), true},  // Saturday
		{NewDate(2025, time.October, 12), true},  // Sunday
		{NewDate(2025, time.October, 13), false}, // Monday
		{NewDate(2025, time.October, 10), false}, // Friday
	}

	for _, tt := range tests {
		if got := IsWeekend(tt.date); got != tt.want {
			t.Errorf("IsWeekend(%s) = %v, want %v", tt.date, got, tt.want)
		}
	}
}

func TestNextBusinessDay(t *testing.T) {
	tests := []struct {
		name string
		date Date
		want Date
	}{
		{
			name: "business day unchanged",
			date: NewDate(2025, time.October, 15),
			want: NewDate(2025, time.October, 15),
		},
		{
			name: "Saturday to Monday",
			date: NewDate(2025, time.October, 4),
			want: NewDate(2025, time.October, 6),
		},
		{
			// Sat 10/11 -> Sun 10/12 -> Columbus Day Mon 10/13 -> Tue 10/14.
			name: "weekend rolls into Monday holiday",
			date: NewDate(2025, time.October, 11),
			want: NewDate(2025, time.October, 14),
		},
		{
			name: "holiday to next day",
			date: NewDate(2025, time.December, 25),
			want: NewDate(2025, time.December, 26),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextBusinessDay(tt.date); !got.Equal(tt.want) {
				t.Errorf("NextBusinessDay(%s) = %s, want %s", tt.date, got, tt.want)
			}
		})
	}
}
