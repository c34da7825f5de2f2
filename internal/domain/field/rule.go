package field

import (
	"strings"

	"github.com/kailas-cloud/arborist/internal/domain/criteria"
	"github.com/kailas-cloud/arborist/internal/domain/value"
)

// Reason explains why a criterion was not applied.
type Reason string

// Skip reasons.
const (
	ReasonNone                Reason = ""
	ReasonInvalidCriterion    Reason = "invalid_criterion"
	ReasonUnknownField        Reason = "unknown_field"
	ReasonFieldNotInDataset   Reason = "field_not_in_dataset"
	ReasonUnsupportedOperator Reason = "unsupported_operator"
	ReasonInvalidValue        Reason = "invalid_value"
)

// Predicate reports whether a record value satisfies a criterion.
type Predicate func(value.Value) bool

// Rule resolves a criterion against a field class into a predicate.
// The operand is resolved once here, not per comparison.
// A non-empty Reason means the criterion must be skipped.
func Rule(c Class, op criteria.Operator, operand value.Value) (Predicate, Reason) {
	switch c {
	case CategoricalExact:
		if op != criteria.Eq {
			return nil, ReasonUnsupportedOperator
		}
		return equalFold(operand.String()), ReasonNone
	case BinaryFlag:
		if op != criteria.Eq {
			return nil, ReasonUnsupportedOperator
		}
		flag, ok := normalizeFlag(operand.String())
		if !ok {
			return nil, ReasonInvalidValue
		}
		return equalFold(flag), ReasonNone
	case NumericRange:
		if !op.IsValid() {
			return nil, ReasonUnsupportedOperator
		}
		bound, ok := operand.Float()
		if !ok {
			return nil, ReasonInvalidValue
		}
		return compare(op, bound), ReasonNone
	default:
		return nil, ReasonUnknownField
	}
}

// equalFold matches the string form case-insensitively. Missing values never match.
func equalFold(want string) Predicate {
	return func(v value.Value) bool {
		if v.IsNull() {
			return false
		}
		return strings.EqualFold(v.String(), want)
	}
}

// compare treats missing and non-numeric record values as never matching.
func compare(op criteria.Operator, bound float64) Predicate {
	return func(v value.Value) bool {
		f, ok := v.Float()
		if !ok {
			return false
		}
		switch op {
		case criteria.Eq:
			return f == bound
		case criteria.Gt:
			return f > bound
		case criteria.Lt:
			return f < bound
		case criteria.Gte:
			return f >= bound
		case criteria.Lte:
			return f <= bound
		}
		return false
	}
}

func normalizeFlag(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return "yes", true
	case "no", "n", "false", "0":
		return "no", true
	}
	return "", false
}
