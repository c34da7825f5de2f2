// Package value holds the tagged scalar shared by dataset records and filter criteria.
package value

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the type tag of a Value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindString
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	default:
		return "null"
	}
}

// Value is a string | number | null scalar.
type Value struct {
	kind Kind
	str  string
	num  float64
}

// Null returns the absent-value marker.
func Null() Value { return Value{} }

// Str wraps s.
func Str(s string) Value { return Value{kind: KindString, str: s} }

// Num wraps f. NaN is the source data's "missing" token and becomes Null.
func Num(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// Kind returns the type tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is missing.
func (v Value) IsNull() bool { return v.kind == KindNull }

// String returns the textual form used for exact comparisons.
// Numbers use the shortest representation, so 11375 renders as "11375".
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Float resolves the value as a finite number.
// Strings are parsed after trimming; NaN and infinities are rejected.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Interface returns the JSON-ready form: string, float64, or nil for missing values.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	default:
		return nil
	}
}

// Text wraps raw column text. Empty text is Null.
func Text(raw string) Value {
	if strings.TrimSpace(raw) == "" {
		return Null()
	}
	return Str(raw)
}

// Coerce converts raw column text to a number; anything unparsable becomes Null.
func Coerce(raw string) Value {
	v, ok := Str(raw).Float()
	if !ok {
		return Null()
	}
	return Num(v)
}
