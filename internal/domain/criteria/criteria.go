package criteria

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/arborist/internal/domain/value"
)

// Operator is a comparison operator.
type Operator string

// Supported operators.
const (
	Eq  Operator = "=="
	Gt  Operator = ">"
	Lt  Operator = "<"
	Gte Operator = ">="
	Lte Operator = "<="
)

// IsValid reports whether the operator is one of the five supported comparisons.
func (o Operator) IsValid() bool {
	switch o {
	case Eq, Gt, Lt, Gte, Lte:
		return true
	}
	return false
}

// Reasons a criterion is invalid on its own.
var (
	errMissingField    = errors.New("missing field")
	errMissingOperator = errors.New("missing operator")
	errMissingValue    = errors.New("missing value")
)

// Criterion is a single field/operator/value condition.
// It may be invalid; the filter engine skips invalid criteria instead of failing.
type Criterion struct {
	field    string
	operator Operator
	value    value.Value
}

// New creates a criterion without validation.
func New(field string, op Operator, v value.Value) Criterion {
	return Criterion{field: field, operator: op, value: v}
}

// Field returns the target field name.
func (c Criterion) Field() string { return c.field }

// Operator returns the comparison operator.
func (c Criterion) Operator() Operator { return c.operator }

// Value returns the comparison operand.
func (c Criterion) Value() value.Value { return c.value }

// Validate reports why the criterion cannot be evaluated at all, or nil.
func (c Criterion) Validate() error {
	switch {
	case c.field == "":
		return errMissingField
	case c.operator == "":
		return errMissingOperator
	case c.value.IsNull():
		return errMissingValue
	}
	return nil
}

// MarshalJSON renders the criterion in translator wire form.
func (c Criterion) MarshalJSON() ([]byte, error) {
	b, err := marshalWire(wireCriterion{
		Field:    c.field,
		Operator: string(c.operator),
		Value:    c.value.Interface(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal criterion: %w", err)
	}
	return b, nil
}

type wireCriterion struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// Set is an ordered, conjunctive sequence of criteria. Empty means "no explicit filter".
type Set struct {
	items []Criterion
}

// NewSet creates a set preserving the given order.
func NewSet(items ...Criterion) Set {
	return Set{items: items}
}

// Items returns the criteria in application order.
func (s Set) Items() []Criterion { return s.items }

// Len returns the number of criteria.
func (s Set) Len() int { return len(s.items) }

// IsEmpty reports whether no explicit filter was requested.
func (s Set) IsEmpty() bool { return len(s.items) == 0 }

// Mentions reports whether any criterion, valid or not, names field.
func (s Set) Mentions(field string) bool {
	for _, c := range s.items {
		if c.field == field {
			return true
		}
	}
	return false
}

// MarshalJSON renders the set as {"filters": [...]}.
func (s Set) MarshalJSON() ([]byte, error) {
	items := s.items
	if items == nil {
		items = []Criterion{}
	}
	b, err := marshalWire(struct {
		Filters []Criterion `json:"filters"`
	}{Filters: items})
	if err != nil {
		return nil, fmt.Errorf("marshal criteria set: %w", err)
	}
	return b, nil
}

// marshalWire encodes without HTML escaping so operators stay literal ("<=", not "\u003c=").
func marshalWire(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
