package compliance

import (
	"encoding/json"
	"fmt"
)

// ConditionType tags a RuleCondition variant.
type ConditionType string

const (
	CondAnd              ConditionType = "and"
	CondOr               ConditionType = "or"
	CondNot              ConditionType = "not"
	CondFieldEquals      ConditionType = "field_equals"
	CondFieldContains    ConditionType = "field_contains"
	CondFieldExists      ConditionType = "field_exists"
	CondFieldGreaterThan ConditionType = "field_greater_than"
	CondFieldLessThan    ConditionType = "field_less_than"
	CondAlways           ConditionType = "always"
	// CondExpression evaluates a CEL expression against the filing context.
	CondExpression ConditionType = "expression"
)

// RuleCondition is one node of a recursive boolean condition tree, stored as
// JSON in the rules.conditions column with a snake_case "type" tag. Which of
// the remaining fields are meaningful depends on Type: And/Or use Conditions,
// Not uses Condition, the field checks use Field (and Value), and Expression
// uses Expression.
type RuleCondition struct {
	Type       ConditionType   `json:"type"`
	Conditions []RuleCondition `json:"conditions,omitempty"`
	Condition  *RuleCondition  `json:"condition,omitempty"`
	Field      string          `json:"field,omitempty"`
	Value      string          `json:"value,omitempty"`
	Expression string          `json:"expression,omitempty"`
}

// Validate checks that the node (recursively) is a well-formed variant.
// Stored rule data predates the typed format, so callers treat a validation
// failure as "not the typed format" rather than an error.
func (c *RuleCondition) Validate() error {
	switch c.Type {
	case CondAnd, CondOr:
		if c.Conditions == nil {
			return fmt.Errorf("%s condition requires a conditions array", c.Type)
		}
		for i := range c.Conditions {
			if err := c.Conditions[i].Validate(); err != nil {
				return err
			}
		}
	case CondNot:
		if c.Condition == nil {
			return fmt.Errorf("not condition requires an inner condition")
		}
		return c.Condition.Validate()
	case CondFieldEquals, CondFieldContains, CondFieldGreaterThan, CondFieldLessThan:
		if c.Field == "" {
			return fmt.Errorf("%s condition requires a field", c.Type)
		}
	case CondFieldExists:
		if c.Field == "" {
			return fmt.Errorf("field_exists condition requires a field")
		}
	case CondAlways:
		// no operands
	case CondExpression:
		if c.Expression == "" {
			return fmt.Errorf("expression condition requires an expression")
		}
	default:
		return fmt.Errorf("unknown condition type %q", c.Type)
	}
	return nil
}

// ParseConditions normalizes stored condition JSON into a condition list.
// Accepted shapes, tried in order:
//   - array of typed conditions: [{"type": "field_equals", ...}, ...]
//   - a single typed condition object
//   - legacy flat object: {"case_type": "civil", ...} converted to
//     field_equals conditions, ignoring the legacy "trigger" key since
//     triggers moved to their own column
//
// Anything else (including malformed JSON) degrades to an empty list, which
// matches vacuously, and returns a non-nil error so the caller can report the
// degradation with the offending rule id. One bad rule never aborts a batch.
func ParseConditions(data json.RawMessage) ([]RuleCondition, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var list []RuleCondition
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

	var single RuleCondition
	if err := json.Unmarshal(data, &single); err == nil {
		if err := single.Validate(); err == nil {
			return []RuleCondition{single}, nil
		}
	}

	var legacy map[string]any
	if err := json.Unmarshal(data, &legacy); err == nil {
		var conditions []RuleCondition
		for key, val := range legacy {
			if key == "trigger" {
				continue
			}
			if s, ok := val.(string); ok {
				conditions = append(conditions, RuleCondition{
					Type:  CondFieldEquals,
					Field: key,
					Value: s,
				})
			}
		}
		return conditions, nil
	}

	return nil, fmt.Errorf("conditions do not match any recognized shape")
}
