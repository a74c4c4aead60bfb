package main

import (
	"encoding/json"

	"github.com/courtflow/compliance/compliance"
)

// API request and response models.

// EvaluateRequest is the request body for running the compliance pipeline.
type EvaluateRequest struct {
	CourtID string                    `json:"court_id"`
	Trigger string                    `json:"trigger"`
	Context *compliance.FilingContext `json:"context"`
}

// EvaluateResponse wraps the compliance report with timing information.
type EvaluateResponse struct {
	Report         compliance.ComplianceReport `json:"report"`
	RulesEvaluated int                         `json:"rules_evaluated"`
	EvaluationTime string                      `json:"evaluation_time"`
}

// CreateRuleRequest is the request body for creating a rule.
type CreateRuleRequest struct {
	Name           string          `json:"name"`
	Description    *string         `json:"description,omitempty"`
	Source         string          `json:"source"`
	Category       string          `json:"category"`
	Priority       int             `json:"priority"`
	Status         *string         `json:"status,omitempty"`
	Jurisdiction   *string         `json:"jurisdiction,omitempty"`
	Citation       *string         `json:"citation,omitempty"`
	EffectiveDate  *string         `json:"effective_date,omitempty"`
	ExpirationDate *string         `json:"expiration_date,omitempty"`
	Conditions     json.RawMessage `json:"conditions,omitempty"`
	Actions        json.RawMessage `json:"actions,omitempty"`
	Triggers       []string        `json:"triggers,omitempty"`
}

// UpdateRuleRequest is the request body for updating a rule; all fields are
// optional and unset fields keep their stored values.
type UpdateRuleRequest struct {
	Name           *string         `json:"name,omitempty"`
	Description    *string         `json:"description,omitempty"`
	Source         *string         `json:"source,omitempty"`
	Category       *string         `json:"category,omitempty"`
	Priority       *int            `json:"priority,omitempty"`
	Status         *string         `json:"status,omitempty"`
	Jurisdiction   *string         `json:"jurisdiction,omitempty"`
	Citation       *string         `json:"citation,omitempty"`
	EffectiveDate  *string         `json:"effective_date,omitempty"`
	ExpirationDate *string         `json:"expiration_date,omitempty"`
	Conditions     json.RawMessage `json:"conditions,omitempty"`
	Actions        json.RawMessage `json:"actions,omitempty"`
	Triggers       []string        `json:"triggers,omitempty"`
}

// ComputeDeadlineRequest mirrors compliance.DeadlineRequest at the API
// boundary with the service method as a plain string.
type ComputeDeadlineRequest struct {
	TriggerDate   compliance.Date `json:"trigger_date"`
	PeriodDays    int             `json:"period_days"`
	ServiceMethod string          `json:"service_method"`
	Jurisdiction  string          `json:"jurisdiction"`
	Description   string          `json:"description"`
	RuleCitation  string          `json:"rule_citation"`
}

// HolidaysResponse lists the federal holidays for one year.
type HolidaysResponse struct {
	Year     int                         `json:"year"`
	Holidays []compliance.FederalHoliday `json:"holidays"`
}
