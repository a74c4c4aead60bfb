package compliance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/courtflow/compliance/rules"
)

// Engine runs the compliance pipeline: select applicable rules, order them
// by priority, evaluate condition trees, and process matched actions into a
// ComplianceReport. The engine holds no per-request state; one instance
// serves concurrent evaluations.
type Engine struct {
	eval *Evaluator
}

// NewEngine creates a compliance engine.
func NewEngine() (*Engine, error) {
	eval, err := NewEvaluator()
	if err != nil {
		return nil, fmt.Errorf("failed to create evaluator: %w", err)
	}
	return &Engine{eval: eval}, nil
}

// Evaluator exposes the engine's condition evaluator, e.g. for validating
// expression conditions at rule-creation time.
func (en *Engine) Evaluator() *Evaluator {
	return en.eval
}

// SelectRules filters a rule snapshot down to the rules applicable to a
// jurisdiction and trigger event at the given instant. A rule applies iff it
// is active, inside its effective window, scoped to the jurisdiction
// (case-insensitive) or global, and lists the trigger. No ordering is
// established here.
func SelectRules(jurisdictionID string, trigger rules.TriggerEvent, allRules []rules.Rule, now time.Time) []rules.Rule {
	var selected []rules.Rule
	for _, rule := range allRules {
		if rule.Status != rules.StatusActive {
			continue
		}
		if rule.EffectiveDate != nil && now.Before(*rule.EffectiveDate) {
			continue
		}
		if rule.ExpirationDate != nil && now.After(*rule.ExpirationDate) {
			continue
		}
		if rule.Jurisdiction != nil && !strings.EqualFold(*rule.Jurisdiction, jurisdictionID) {
			continue
		}
		if !rule.HasTrigger(trigger) {
			continue
		}
		selected = append(selected, rule)
	}
	return selected
}

// ResolvePriority orders rules by descending priority weight. The sort is
// stable: rules in the same tier keep their input order, which makes
// evaluation sequencing deterministic.
func ResolvePriority(selected []rules.Rule) []rules.Rule {
	ordered := make([]rules.Rule, len(selected))
	copy(ordered, selected)
	sort.SliceStable(ordered, func(i, j int) bool {
		wi := rules.PriorityFromInt(ordered[i].Priority).Weight()
		wj := rules.PriorityFromInt(ordered[j].Priority).Weight()
		return wi > wj
	})
	return ordered
}

// RunPipeline composes selection, priority resolution, and evaluation for a
// host action. The clock is read exactly once and threaded through, so a
// slow call straddling midnight stays internally consistent.
func (en *Engine) RunPipeline(jurisdictionID string, trigger rules.TriggerEvent, fc *FilingContext, allRules []rules.Rule) ComplianceReport {
	now := time.Now().UTC()
	selected := SelectRules(jurisdictionID, trigger, allRules, now)
	ordered := ResolvePriority(selected)
	return en.Evaluate(fc, ordered, now)
}

// Evaluate runs the ordered rules against a filing context as of the given
// instant. Top-level conditions use AND semantics; a rule with no conditions
// matches vacuously. Malformed stored JSON degrades that one rule to empty
// conditions/actions, records its id in the report's degraded list, and never
// aborts the batch. Every rule appears in the report's results, matched or
// not.
func (en *Engine) Evaluate(fc *FilingContext, orderedRules []rules.Rule, now time.Time) ComplianceReport {
	report := NewComplianceReport()
	today := DateOf(now)

	for i := range orderedRules {
		rule := &orderedRules[i]
		conditions, condErr := ParseConditions(rule.Conditions)
		degraded := condErr != nil

		allMatch := true
		for j := range conditions {
			if !en.eval.Evaluate(&conditions[j], fc) {
				allMatch = false
				break
			}
		}

		if allMatch {
			actions, actErr := ParseActions(rule.Actions)
			if actErr != nil {
				degraded = true
			}
			en.processActions(rule, actions, &report, today)
		} else {
			report.Results = append(report.Results, RuleResult{
				RuleID:      rule.ID,
				RuleName:    rule.Name,
				Matched:     false,
				ActionTaken: "none",
				Message:     "Conditions not met",
			})
		}

		if degraded {
			report.Degraded = append(report.Degraded, rule.ID)
		}
	}

	return report
}

// processActions applies a matched rule's actions to the report.
func (en *Engine) processActions(rule *rules.Rule, actions []RuleAction, report *ComplianceReport, today Date) {
	for _, action := range actions {
		switch action.Type {
		case ActionBlockFiling:
			report.Blocked = true
			report.BlockReasons = append(report.BlockReasons,
				fmt.Sprintf("[%s] %s", rule.Name, action.Reason))
			report.Results = append(report.Results, RuleResult{
				RuleID:      rule.ID,
				RuleName:    rule.Name,
				Matched:     true,
				ActionTaken: string(ActionBlockFiling),
				Message:     action.Reason,
			})

		case ActionFlagForReview:
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("[%s] %s", rule.Name, action.Reason))
			report.Results = append(report.Results, RuleResult{
				RuleID:      rule.ID,
				RuleName:    rule.Name,
				Matched:     true,
				ActionTaken: string(ActionFlagForReview),
				Message:     action.Reason,
			})

		case ActionGenerateDeadline:
			// Plain offset from today; the statutory FRCP calculator is a
			// separate path and applies no business-day correction here.
			dueDate := today.AddDays(action.DaysFromTrigger)
			citation := ""
			if rule.Citation != nil {
				citation = *rule.Citation
			}
			report.Deadlines = append(report.Deadlines, DeadlineResult{
				DueDate:      dueDate,
				Description:  action.Description,
				RuleCitation: citation,
				ComputationNotes: fmt.Sprintf(
					"Generated by rule '%s': %d days from trigger",
					rule.Name, action.DaysFromTrigger),
				IsShortPeriod: action.DaysFromTrigger <= shortPeriodThreshold,
			})
			report.Results = append(report.Results, RuleResult{
				RuleID:      rule.ID,
				RuleName:    rule.Name,
				Matched:     true,
				ActionTaken: string(ActionGenerateDeadline),
				Message:     fmt.Sprintf("%s (due %s)", action.Description, dueDate),
			})

		case ActionRequireRedaction:
			fieldList := strings.Join(action.Fields, ", ")
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("[%s] Redaction required for: %s", rule.Name, fieldList))
			report.Results = append(report.Results, RuleResult{
				RuleID:      rule.ID,
				RuleName:    rule.Name,
				Matched:     true,
				ActionTaken: string(ActionRequireRedaction),
				Message:     fmt.Sprintf("Redaction required for: %s", fieldList),
			})

		case ActionSendNotification:
			// Recorded as an intent only; delivery is the host's concern.
			report.Results = append(report.Results, RuleResult{
				RuleID:      rule.ID,
				RuleName:    rule.Name,
				Matched:     true,
				ActionTaken: string(ActionSendNotification),
				Message:     fmt.Sprintf("Notify %s: %s", action.Recipient, action.Message),
			})

		case ActionRequireFee:
			report.Fees = append(report.Fees, FeeRequirement{
				RuleID:      rule.ID,
				RuleName:    rule.Name,
				AmountCents: action.AmountCents,
				Description: action.Description,
			})
			report.Results = append(report.Results, RuleResult{
				RuleID:      rule.ID,
				RuleName:    rule.Name,
				Matched:     true,
				ActionTaken: string(ActionRequireFee),
				Message: fmt.Sprintf("%s: $%.2f",
					action.Description, float64(action.AmountCents)/100.0),
			})

		case ActionLogCompliance:
			report.Results = append(report.Results, RuleResult{
				RuleID:      rule.ID,
				RuleName:    rule.Name,
				Matched:     true,
				ActionTaken: string(ActionLogCompliance),
				Message:     action.Message,
			})
		}
	}
}
