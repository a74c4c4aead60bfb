package rules

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Rule is a procedural rule tracked for a court: a statute, federal rule,
// administrative order, local rule, or standing order. Conditions, actions,
// and triggers are stored as raw JSON exactly as persisted, and are parsed
// lazily by the compliance engine so that one malformed rule never poisons
// an evaluation batch.
type Rule struct {
	ID          uuid.UUID `json:"id"`
	CourtID     string    `json:"court_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	// RuleSource stored as text (e.g. "FRCP", "LocalRule", "Statute").
	Source   string `json:"source"`
	Category string `json:"category"`
	// Integer priority; bucketed into a RulePriority tier for ordering.
	Priority       int        `json:"priority"`
	Status         string     `json:"status"`
	Jurisdiction   *string    `json:"jurisdiction,omitempty"`
	Citation       *string    `json:"citation,omitempty"`
	EffectiveDate  *time.Time `json:"effective_date,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	SupersedesRule *uuid.UUID `json:"supersedes_rule_id,omitempty"`
	// Condition tree JSON (typed array, single object, or legacy flat object).
	Conditions json.RawMessage `json:"conditions"`
	// Action list JSON (typed array, single object, or legacy object).
	Actions json.RawMessage `json:"actions"`
	// JSON array of trigger event names.
	Triggers  json.RawMessage `json:"triggers"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StatusActive is the only rule status considered during evaluation.
const StatusActive = "Active"

// HasTrigger reports whether the rule's triggers array names the given event.
// Non-string elements are skipped; a missing or malformed triggers array
// matches nothing.
func (r *Rule) HasTrigger(trigger TriggerEvent) bool {
	var names []any
	if err := json.Unmarshal(r.Triggers, &names); err != nil {
		return false
	}
	for _, n := range names {
		if s, ok := n.(string); ok && s == string(trigger) {
			return true
		}
	}
	return false
}

// TriggerEvent names a case-lifecycle occurrence that activates rule
// evaluation. Values are the snake_case names stored in the triggers column.
type TriggerEvent string

const (
	TriggerCaseFiled                     TriggerEvent = "case_filed"
	TriggerMotionFiled                   TriggerEvent = "motion_filed"
	TriggerOrderIssued                   TriggerEvent = "order_issued"
	TriggerDocumentFiled                 TriggerEvent = "document_filed"
	TriggerStatusChanged                 TriggerEvent = "status_changed"
	TriggerDeadlineApproaching           TriggerEvent = "deadline_approaching"
	TriggerPleaEntered                   TriggerEvent = "plea_entered"
	TriggerSentencingScheduled           TriggerEvent = "sentencing_scheduled"
	TriggerCaseAssigned                  TriggerEvent = "case_assigned"
	TriggerCaseReassigned                TriggerEvent = "case_reassigned"
	TriggerAppearanceFiled               TriggerEvent = "appearance_filed"
	TriggerExtensionRequested            TriggerEvent = "extension_requested"
	TriggerManualEvaluation              TriggerEvent = "manual_evaluation"
	TriggerComplaintFiled                TriggerEvent = "complaint_filed"
	TriggerServiceComplete               TriggerEvent = "service_complete"
	TriggerDocumentServed                TriggerEvent = "document_served"
	TriggerAmendedPleadingFiled          TriggerEvent = "amended_pleading_filed"
	TriggerLeaveToAmendGranted           TriggerEvent = "leave_to_amend_granted"
	TriggerSummaryJudgmentFiled          TriggerEvent = "summary_judgment_filed"
	TriggerSummaryJudgmentResponseFiled  TriggerEvent = "summary_judgment_response_filed"
	TriggerJudgmentEntered               TriggerEvent = "judgment_entered"
	TriggerMagistrateRecommendationFiled TriggerEvent = "magistrate_recommendation_filed"
	TriggerProHacViceFiled               TriggerEvent = "pro_hac_vice_filed"
	TriggerClassActionFiled              TriggerEvent = "class_action_filed"
	TriggerDiscoveryRequestServed        TriggerEvent = "discovery_request_served"
	TriggerDiscoveryResponseFiled        TriggerEvent = "discovery_response_filed"
	TriggerProposedOrderSubmitted        TriggerEvent = "proposed_order_submitted"
	TriggerDocumentUploaded              TriggerEvent = "document_uploaded"
	TriggerSettlementReached             TriggerEvent = "settlement_reached"
	TriggerWaiverOfServiceRequested      TriggerEvent = "waiver_of_service_requested"
	TriggerWaiverOfServiceAccepted       TriggerEvent = "waiver_of_service_accepted"
	TriggerAnswerFiled                   TriggerEvent = "answer_filed"
	TriggerMotionDenied                  TriggerEvent = "motion_denied"
	TriggerThirdPartyComplaintFiled      TriggerEvent = "third_party_complaint_filed"
	TriggerRule26fConferenceHeld         TriggerEvent = "rule26f_conference_held"
	TriggerPartyJoined                   TriggerEvent = "party_joined"
	TriggerTrialDateSet                  TriggerEvent = "trial_date_set"
	TriggerDepositionNoticed             TriggerEvent = "deposition_noticed"
	TriggerStatementOfDeathFiled         TriggerEvent = "statement_of_death_filed"
	TriggerDefendantAppeared             TriggerEvent = "defendant_appeared"
	TriggerTroEntered                    TriggerEvent = "tro_entered"
	TriggerOfferOfJudgmentServed         TriggerEvent = "offer_of_judgment_served"
	TriggerMagistrateOrderEntered        TriggerEvent = "magistrate_order_entered"
	TriggerAnswerDeadlinePassed          TriggerEvent = "answer_deadline_passed"
	TriggerDiscoveryClosed               TriggerEvent = "discovery_closed"
	TriggerResponseFiled                 TriggerEvent = "response_filed"
	TriggerLastPleadingServed            TriggerEvent = "last_pleading_served"
	TriggerNoActivity                    TriggerEvent = "no_activity"
)

// AllTriggerEvents lists every known trigger event, in declaration order.
var AllTriggerEvents = []TriggerEvent{
	TriggerCaseFiled, TriggerMotionFiled, TriggerOrderIssued,
	TriggerDocumentFiled, TriggerStatusChanged, TriggerDeadlineApproaching,
	TriggerPleaEntered, TriggerSentencingScheduled, TriggerCaseAssigned,
	TriggerCaseReassigned, TriggerAppearanceFiled, TriggerExtensionRequested,
	TriggerManualEvaluation, TriggerComplaintFiled, TriggerServiceComplete,
	TriggerDocumentServed, TriggerAmendedPleadingFiled,
	TriggerLeaveToAmendGranted, TriggerSummaryJudgmentFiled,
	TriggerSummaryJudgmentResponseFiled, TriggerJudgmentEntered,
	TriggerMagistrateRecommendationFiled, TriggerProHacViceFiled,
	TriggerClassActionFiled, TriggerDiscoveryRequestServed,
	TriggerDiscoveryResponseFiled, TriggerProposedOrderSubmitted,
	TriggerDocumentUploaded, TriggerSettlementReached,
	TriggerWaiverOfServiceRequested, TriggerWaiverOfServiceAccepted,
	TriggerAnswerFiled, TriggerMotionDenied, TriggerThirdPartyComplaintFiled,
	TriggerRule26fConferenceHeld, TriggerPartyJoined, TriggerTrialDateSet,
	TriggerDepositionNoticed, TriggerStatementOfDeathFiled,
	TriggerDefendantAppeared, TriggerTroEntered, TriggerOfferOfJudgmentServed,
	TriggerMagistrateOrderEntered, TriggerAnswerDeadlinePassed,
	TriggerDiscoveryClosed, TriggerResponseFiled, TriggerLastPleadingServed,
	TriggerNoActivity,
}

var triggerEventSet = func() map[TriggerEvent]bool {
	m := make(map[TriggerEvent]bool, len(AllTriggerEvents))
	for _, t := range AllTriggerEvents {
		m[t] = true
	}
	return m
}()

// ParseTriggerEvent returns the trigger event for a stored name.
func ParseTriggerEvent(s string) (TriggerEvent, bool) {
	t := TriggerEvent(s)
	return t, triggerEventSet[t]
}

// RulePriority is the ordinal tier used for evaluation ordering.
// Higher weight is evaluated first.
type RulePriority int

const (
	PriorityStatutory RulePriority = iota
	PriorityFederalRule
	PriorityAdministrative
	PriorityLocal
	PriorityStandingOrder
)

// PriorityFromInt buckets a stored integer priority into a tier.
// Convention: 10=Statutory, 20=Federal, 30=Admin, 40=Local, 50=Standing.
func PriorityFromInt(p int) RulePriority {
	switch {
	case p >= 50:
		return PriorityStandingOrder
	case p >= 40:
		return PriorityLocal
	case p >= 30:
		return PriorityAdministrative
	case p >= 20:
		return PriorityFederalRule
	default:
		return PriorityStatutory
	}
}

// Weight returns the sort weight for the tier.
func (p RulePriority) Weight() int {
	switch p {
	case PriorityStandingOrder:
		return 50
	case PriorityLocal:
		return 40
	case PriorityAdministrative:
		return 30
	case PriorityFederalRule:
		return 20
	default:
		return 10
	}
}

func (p RulePriority) String() string {
	switch p {
	case PriorityStandingOrder:
		return "standing_order"
	case PriorityLocal:
		return "local"
	case PriorityAdministrative:
		return "administrative"
	case PriorityFederalRule:
		return "federal_rule"
	default:
		return "statutory"
	}
}

// ServiceMethod is how a document was served, for deadline computation.
// Mail, leaving with the clerk, and other methods add 3 days per FRCP 6(d).
type ServiceMethod string

const (
	ServiceElectronic       ServiceMethod = "electronic"
	ServicePersonalDelivery ServiceMethod = "personal_delivery"
	ServiceMail             ServiceMethod = "mail"
	ServiceLeavingWithClerk ServiceMethod = "leaving_with_clerk"
	ServiceOther            ServiceMethod = "other"
)

// AdditionalDays returns the FRCP 6(d) service adjustment. Unknown methods
// are treated like Other.
func (m ServiceMethod) AdditionalDays() int {
	switch m {
	case ServiceElectronic, ServicePersonalDelivery:
		return 0
	default:
		return 3
	}
}
