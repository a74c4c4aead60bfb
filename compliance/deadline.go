package compliance

import (
	"errors"
	"fmt"
	"strings"

	"github.com/courtflow/compliance/rules"
)

// ErrNegativePeriod is returned when a deadline is requested for a negative
// period. It is the only hard error the deadline engine produces.
var ErrNegativePeriod = errors.New("period days cannot be negative")

// shortPeriodThreshold is the FRCP 6 boundary below which a period gets
// short-period procedural treatment.
const shortPeriodThreshold = 14

// DeadlineRequest asks for a statutory deadline per FRCP 6(a)/(d).
type DeadlineRequest struct {
	TriggerDate   Date                `json:"trigger_date"`
	PeriodDays    int                 `json:"period_days"`
	ServiceMethod rules.ServiceMethod `json:"service_method"`
	Jurisdiction  string              `json:"jurisdiction"`
	Description   string              `json:"description"`
	RuleCitation  string              `json:"rule_citation"`
}

// DeadlineResult is a computed deadline. ComputationNotes documents every
// step of the calculation and is part of the audit trail, not optional
// logging.
type DeadlineResult struct {
	DueDate          Date   `json:"due_date"`
	Description      string `json:"description"`
	RuleCitation     string `json:"rule_citation"`
	ComputationNotes string `json:"computation_notes"`
	IsShortPeriod    bool   `json:"is_short_period"`
}

// ComputeDeadline computes a deadline per FRCP 6(a), effective Dec 1, 2009:
// exclude the trigger date, count every calendar day, and extend a landing
// day that falls on a weekend or federal holiday to the next business day.
// Service by mail, leaving with the clerk, or other methods adds 3 days per
// FRCP 6(d).
func ComputeDeadline(req DeadlineRequest) (*DeadlineResult, error) {
	if req.PeriodDays < 0 {
		return nil, ErrNegativePeriod
	}

	serviceAdditional := req.ServiceMethod.AdditionalDays()
	totalPeriod := req.PeriodDays + serviceAdditional
	isShort := totalPeriod <= shortPeriodThreshold

	// Counting begins the day after the trigger date.
	startDate := req.TriggerDate.AddDays(1)
	rawDueDate := countCalendarDays(startDate, totalPeriod)
	dueDate := NextBusinessDay(rawDueDate)

	var notes []string
	notes = append(notes, fmt.Sprintf(
		"Trigger date: %s; counting begins %s", req.TriggerDate, startDate))

	if serviceAdditional > 0 {
		notes = append(notes, fmt.Sprintf(
			"Service method (%s): +%d days added to base period of %d days",
			req.ServiceMethod, serviceAdditional, req.PeriodDays))
	}

	shortNote := ""
	if isShort {
		shortNote = " (short period per FRCP 6(a)(2))"
	}
	notes = append(notes, fmt.Sprintf(
		"Total period: %d calendar days%s", totalPeriod, shortNote))

	if !dueDate.Equal(rawDueDate) {
		notes = append(notes, fmt.Sprintf(
			"Landing day %s falls on weekend/holiday; extended to next business day %s",
			rawDueDate, dueDate))
	}

	notes = append(notes, fmt.Sprintf("Due date: %s", dueDate))

	return &DeadlineResult{
		DueDate:          dueDate,
		Description:      req.Description,
		RuleCitation:     req.RuleCitation,
		ComputationNotes: strings.Join(notes, "; "),
		IsShortPeriod:    isShort,
	}, nil
}

// countCalendarDays lands on the nth calendar day counting the start date as
// day one. A zero-day period resolves to the start date itself.
func countCalendarDays(start Date, days int) Date {
	if days <= 0 {
		return start
	}
	return start.AddDays(days - 1)
}
