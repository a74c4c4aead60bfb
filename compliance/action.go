package compliance

import (
	"encoding/json"
	"fmt"
)

// ActionType tags a RuleAction variant.
type ActionType string

const (
	ActionGenerateDeadline ActionType = "generate_deadline"
	ActionRequireRedaction ActionType = "require_redaction"
	ActionSendNotification ActionType = "send_notification"
	ActionBlockFiling      ActionType = "block_filing"
	ActionRequireFee       ActionType = "require_fee"
	ActionFlagForReview    ActionType = "flag_for_review"
	ActionLogCompliance    ActionType = "log_compliance"
)

// RuleAction is one typed effect a matched rule produces, stored as JSON in
// the rules.actions column with a snake_case "type" tag. The engine only
// records actions in the compliance report; dispatch (notifications, fee
// collection) is the host's job.
type RuleAction struct {
	Type            ActionType `json:"type"`
	Description     string     `json:"description,omitempty"`
	DaysFromTrigger int        `json:"days_from_trigger,omitempty"`
	Fields          []string   `json:"fields,omitempty"`
	Recipient       string     `json:"recipient,omitempty"`
	Message         string     `json:"message,omitempty"`
	Reason          string     `json:"reason,omitempty"`
	AmountCents     uint64     `json:"amount_cents,omitempty"`
}

// Validate checks that the action is a well-formed variant.
func (a *RuleAction) Validate() error {
	switch a.Type {
	case ActionGenerateDeadline:
		if a.Description == "" {
			return fmt.Errorf("generate_deadline action requires a description")
		}
	case ActionRequireRedaction:
		if a.Fields == nil {
			return fmt.Errorf("require_redaction action requires fields")
		}
	case ActionSendNotification:
		if a.Recipient == "" {
			return fmt.Errorf("send_notification action requires a recipient")
		}
	case ActionBlockFiling, ActionFlagForReview:
		if a.Reason == "" {
			return fmt.Errorf("%s action requires a reason", a.Type)
		}
	case ActionRequireFee:
		if a.Description == "" {
			return fmt.Errorf("require_fee action requires a description")
		}
	case ActionLogCompliance:
		if a.Message == "" {
			return fmt.Errorf("log_compliance action requires a message")
		}
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
	return nil
}

// ParseActions normalizes stored action JSON into an action list. Accepted
// shapes, tried in order: array of typed actions, a single typed action, or
// the legacy {"create_deadline": {"days": 90, "title": "..."}} object.
// Anything else degrades to an empty list and returns a non-nil error so the
// caller can report the degradation with the offending rule id.
func ParseActions(data json.RawMessage) ([]RuleAction, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var list []RuleAction
	if err := json.Unmarshal(data, &list); err == nil {
		valid := true
		for i := range list {
			if err := list[i].Validate(); err != nil {
				valid = false
				break
			}
		}
		if valid {
			return list, nil
		}
	}

	var single RuleAction
	if err := json.Unmarshal(data, &single); err == nil {
		if err := single.Validate(); err == nil {
			return []RuleAction{single}, nil
		}
	}

	var legacy map[string]json.RawMessage
	if err := json.Unmarshal(data, &legacy); err == nil {
		if dl, ok := legacy["create_deadline"]; ok {
			var payload struct {
				Days  *int   `json:"days"`
				Title string `json:"title"`
			}
			if err := json.Unmarshal(dl, &payload); err == nil && payload.Days != nil {
				title := payload.Title
				if title == "" {
					title = "Deadline"
				}
				return []RuleAction{{
					Type:            ActionGenerateDeadline,
					Description:     title,
					DaysFromTrigger: *payload.Days,
				}}, nil
			}
			return nil, fmt.Errorf("create_deadline action requires days")
		}
	}

	return nil, fmt.Errorf("actions do not match any recognized shape")
}
