package compliance

import (
	"encoding/json"
	"strconv"

	"github.com/courtflow/compliance/rules"
)

// FilingContext describes the filing or action being evaluated. Field
// resolution checks the known attributes first and falls back to the open
// metadata map, so rules can reference fields the schema has never heard of.
// Constructed per evaluation and discarded; the engine never mutates it.
type FilingContext struct {
	CaseType       string               `json:"case_type"`
	DocumentType   string               `json:"document_type"`
	FilerRole      string               `json:"filer_role"`
	JurisdictionID string               `json:"jurisdiction_id"`
	Division       *string              `json:"division,omitempty"`
	AssignedJudge  *string              `json:"assigned_judge,omitempty"`
	ServiceMethod  *rules.ServiceMethod `json:"service_method,omitempty"`
	// Extensible metadata (case_id, party_count, sealed, etc.)
	Metadata map[string]any `json:"metadata,omitempty"`
}

// FieldValue resolves a field to its string form. Known context attributes
// win over metadata; metadata numbers and bools are coerced to strings.
// Returns false only when the field resolves to nothing at all.
func (fc *FilingContext) FieldValue(field string) (string, bool) {
	switch field {
	case "case_type":
		return fc.CaseType, true
	case "document_type":
		return fc.DocumentType, true
	case "filer_role":
		return fc.FilerRole, true
	case "jurisdiction_id":
		return fc.JurisdictionID, true
	case "division":
		if fc.Division != nil {
			return *fc.Division, true
		}
		return "", false
	case "assigned_judge":
		if fc.AssignedJudge != nil {
			return *fc.AssignedJudge, true
		}
		return "", false
	}

	v, ok := fc.Metadata[field]
	if !ok {
		return "", false
	}
	return metadataString(v), true
}

// FieldExists reports whether a field resolves to a present, non-null value.
func (fc *FilingContext) FieldExists(field string) bool {
	switch field {
	case "case_type", "document_type", "filer_role", "jurisdiction_id":
		return true
	case "division":
		return fc.Division != nil
	case "assigned_judge":
		return fc.AssignedJudge != nil
	case "service_method":
		return fc.ServiceMethod != nil
	}

	v, ok := fc.Metadata[field]
	return ok && v != nil
}

// metadataString coerces a decoded JSON value to its string form. Anything
// beyond strings, numbers, and bools falls back to its JSON serialization.
func metadataString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
