package compliance

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
)

// Evaluator evaluates condition trees against filing contexts. Evaluation is
// pure and total: identical (condition, context) pairs always yield the same
// bool, unknown fields resolve to false, and nothing errors mid-pipeline.
// The only state is a cache of compiled CEL programs for expression
// conditions, guarded by an RWMutex so concurrent evaluations share it.
type Evaluator struct {
	env      *cel.Env
	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewEvaluator creates an evaluator with a CEL environment exposing the
// filing-context attributes and the open metadata map.
func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("case_type", cel.StringType),
		cel.Variable("document_type", cel.StringType),
		cel.Variable("filer_role", cel.StringType),
		cel.Variable("jurisdiction_id", cel.StringType),
		cel.Variable("division", cel.StringType),
		cel.Variable("assigned_judge", cel.StringType),
		cel.Variable("service_method", cel.StringType),
		cel.Variable("metadata", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// CompileExpression compiles and caches a CEL expression. Used both for
// evaluation and to validate expression conditions at rule-creation time.
func (e *Evaluator) CompileExpression(expression string) (cel.Program, error) {
	e.mu.RLock()
	prog, ok := e.programs[expression]
	e.mu.RUnlock()
	if ok {
		return prog, nil
	}

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}

	// Cost limit prevents resource exhaustion from runaway expressions.
	prog, err := e.env.Program(ast, cel.CostLimit(1000000))
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}

	e.mu.Lock()
	e.programs[expression] = prog
	e.mu.Unlock()

	return prog, nil
}

// Evaluate walks a condition tree against a filing context.
//   - and: all children true (empty matches)
//   - or: any child true (empty does not match)
//   - not: negates its child
//   - field_equals / field_contains: string comparison on the resolved value
//   - field_greater_than / field_less_than: numeric when both sides parse,
//     otherwise lexicographic
//   - field_exists: present, non-null value
//   - always: true
//   - expression: compiled CEL, false on any compile/eval failure
func (e *Evaluator) Evaluate(c *RuleCondition, fc *FilingContext) bool {
	switch c.Type {
	case CondAnd:
		for i := range c.Conditions {
			if !e.Evaluate(&c.Conditions[i], fc) {
				return false
			}
		}
		return true
	case CondOr:
		for i := range c.Conditions {
			if e.Evaluate(&c.Conditions[i], fc) {
				return true
			}
		}
		return false
	case CondNot:
		if c.Condition == nil {
			return false
		}
		return !e.Evaluate(c.Condition, fc)
	case CondFieldEquals:
		v, ok := fc.FieldValue(c.Field)
		return ok && v == c.Value
	case CondFieldContains:
		v, ok := fc.FieldValue(c.Field)
		return ok && strings.Contains(v, c.Value)
	case CondFieldExists:
		return fc.FieldExists(c.Field)
	case CondFieldGreaterThan:
		v, ok := fc.FieldValue(c.Field)
		return ok && compareFields(v, c.Value) > 0
	case CondFieldLessThan:
		v, ok := fc.FieldValue(c.Field)
		return ok && compareFields(v, c.Value) < 0
	case CondAlways:
		return true
	case CondExpression:
		return e.evaluateExpression(c.Expression, fc)
	default:
		return false
	}
}

// compareFields compares numerically when both sides parse as floats, and
// lexicographically otherwise. The lexicographic fallback ("10" < "9") is
// longstanding behavior that existing rule data depends on.
func compareFields(fieldValue, threshold string) int {
	fn, errF := strconv.ParseFloat(fieldValue, 64)
	tn, errT := strconv.ParseFloat(threshold, 64)
	if errF == nil && errT == nil {
		switch {
		case fn > tn:
			return 1
		case fn < tn:
			return -1
		default:
			return 0
		}
	}
	return strings.Compare(fieldValue, threshold)
}

// evaluateExpression evaluates a CEL expression condition. Compile errors,
// evaluation errors (including references to absent optional fields), and
// non-bool results all resolve to false.
func (e *Evaluator) evaluateExpression(expression string, fc *FilingContext) bool {
	prog, err := e.CompileExpression(expression)
	if err != nil {
		return false
	}

	out, _, err := prog.Eval(celActivation(fc))
	if err != nil {
		return false
	}

	matched, ok := out.Value().(bool)
	return ok && matched
}

// celActivation builds the variable bindings for one evaluation. Optional
// attributes are bound only when present, so expressions referencing them on
// a context without them fail evaluation and resolve to false.
func celActivation(fc *FilingContext) map[string]any {
	vars := map[string]any{
		"case_type":       fc.CaseType,
		"document_type":   fc.DocumentType,
		"filer_role":      fc.FilerRole,
		"jurisdiction_id": fc.JurisdictionID,
	}
	if fc.Division != nil {
		vars["division"] = *fc.Division
	}
	if fc.AssignedJudge != nil {
		vars["assigned_judge"] = *fc.AssignedJudge
	}
	if fc.ServiceMethod != nil {
		vars["service_method"] = string(*fc.ServiceMethod)
	}
	if fc.Metadata != nil {
		vars["metadata"] = fc.Metadata
	} else {
		vars["metadata"] = map[string]any{}
	}
	return vars
}
