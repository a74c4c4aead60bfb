package compliance

import "github.com/google/uuid"

// ComplianceReport aggregates the results of evaluating a rule set against
// one filing context. Built fresh per evaluation; ownership transfers to the
// caller, which persists deadlines, fees, and audit entries as it sees fit.
type ComplianceReport struct {
	Results      []RuleResult     `json:"results"`
	Blocked      bool             `json:"blocked"`
	BlockReasons []string         `json:"block_reasons"`
	Warnings     []string         `json:"warnings"`
	Deadlines    []DeadlineResult `json:"deadlines"`
	Fees         []FeeRequirement `json:"fees"`
	// Degraded lists rules whose stored conditions or actions could not be
	// parsed and were treated as empty. Hosts log these by rule id.
	Degraded []uuid.UUID `json:"degraded_rule_ids"`
}

// NewComplianceReport returns an empty, not-blocked report with non-nil
// slices so the JSON form is stable.
func NewComplianceReport() ComplianceReport {
	return ComplianceReport{
		Results:      []RuleResult{},
		BlockReasons: []string{},
		Warnings:     []string{},
		Deadlines:    []DeadlineResult{},
		Fees:         []FeeRequirement{},
		Degraded:     []uuid.UUID{},
	}
}

// RuleResult records the outcome for a single evaluated rule. Every rule in
// the ordered set appears exactly once per action taken, or once with
// Matched=false, so the report doubles as the audit trail.
type RuleResult struct {
	RuleID      uuid.UUID `json:"rule_id"`
	RuleName    string    `json:"rule_name"`
	Matched     bool      `json:"matched"`
	ActionTaken string    `json:"action_taken"`
	Message     string    `json:"message"`
}

// FeeRequirement is a fee a matched rule requires before the filing can
// proceed.
type FeeRequirement struct {
	RuleID      uuid.UUID `json:"rule_id"`
	RuleName    string    `json:"rule_name"`
	AmountCents uint64    `json:"amount_cents"`
	Description string    `json:"description"`
}
