package rules

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestPriorityFromInt(t *testing.T) {
	tests := []struct {
		priority int
		want     RulePriority
	}{
		{0, PriorityStatutory},
		{10, PriorityStatutory},
		{19, PriorityStatutory},
		{20, PriorityFederalRule},
		{29, PriorityFederalRule},
		{30, PriorityAdministrative},
		{40, PriorityLocal},
		{49, PriorityLocal},
		{50, PriorityStandingOrder},
		{100, PriorityStandingOrder},
		{-5, PriorityStatutory},
	}

	for _, tt := range tests {
		if got := PriorityFromInt(tt.priority); got != tt.want {
			t.Errorf("PriorityFromInt(%d) = %v, want %v", tt.priority, got, tt.want)
		}
	}
}

func TestPriorityWeightOrdering(t *testing.T) {
	tiers := []RulePriority{
		PriorityStatutory, PriorityFederalRule, PriorityAdministrative,
		PriorityLocal, PriorityStandingOrder,
	}
	for i := 1; i < len(tiers); i++ {
		if tiers[i].Weight() <= tiers[i-1].Weight() {
			t.Errorf("%s weight %d should exceed %s weight %d",
				tiers[i], tiers[i].Weight(), tiers[i-1], tiers[i-1].Weight())
		}
	}
}

func TestServiceMethodAdditionalDays(t *testing.T) {
	tests := []struct {
		method ServiceMethod
		want   int
	}{
		{ServiceElectronic, 0},
		{ServicePersonalDelivery, 0},
		{ServiceMail, 3},
		{ServiceLeavingWithClerk, 3},
		{ServiceOther, 3},
		{ServiceMethod("carrier_pigeon"), 3},
	}

	for _, tt := range tests {
		if got := tt.method.AdditionalDays(); got != tt.want {
			t.Errorf("%s.AdditionalDays() = %d, want %d", tt.method, got, tt.want)
		}
	}
}

func TestParseTriggerEvent(t *testing.T) {
	if _, ok := ParseTriggerEvent("case_filed"); !ok {
		t.Error("case_filed should be a known trigger")
	}
	if _, ok := ParseTriggerEvent("rule26f_conference_held"); !ok {
		t.Error("rule26f_conference_held should be a known trigger")
	}
	if _, ok := ParseTriggerEvent("case_unfiled"); ok {
		t.Error("case_unfiled should not be a known trigger")
	}
	if _, ok := ParseTriggerEvent(""); ok {
		t.Error("empty string should not be a known trigger")
	}
}

func TestAllTriggerEventsComplete(t *testing.T) {
	if len(AllTriggerEvents) != 48 {
		t.Errorf("AllTriggerEvents has %d entries, want 48", len(AllTriggerEvents))
	}
	seen := make(map[TriggerEvent]bool)
	for _, tr := range AllTriggerEvents {
		if seen[tr] {
			t.Errorf("duplicate trigger event %q", tr)
		}
		seen[tr] = true
	}
}

func TestHasTrigger(t *testing.T) {
	tests := []struct {
		name     string
		triggers json.RawMessage
		trigger  TriggerEvent
		want     bool
	}{
		{"present", json.RawMessage(`["case_filed", "motion_filed"]`), TriggerMotionFiled, true},
		{"absent", json.RawMessage(`["case_filed"]`), TriggerMotionFiled, false},
		{"empty array", json.RawMessage(`[]`), TriggerCaseFiled, false},
		{"non-string elements skipped", json.RawMessage(`["case_filed", 5, null]`), TriggerCaseFiled, true},
		{"only non-string elements", json.RawMessage(`[5, true]`), TriggerCaseFiled, false},
		{"malformed", json.RawMessage(`{"trigger": "case_filed"}`), TriggerCaseFiled, false},
		{"nil", nil, TriggerCaseFiled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := Rule{ID: uuid.New(), Triggers: tt.triggers}
			if got := rule.HasTrigger(tt.trigger); got != tt.want {
				t.Errorf("HasTrigger(%s) = %v, want %v", tt.trigger, got, tt.want)
			}
		})
	}
}
