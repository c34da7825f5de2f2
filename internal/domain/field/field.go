package field

import "fmt"

// Class is the evaluation class of a field.
type Class string

// Field class constants.
const (
	// CategoricalExact holds a fixed or open string vocabulary; only == is supported.
	CategoricalExact Class = "categorical"
	// BinaryFlag holds a yes/no indicator; only == is supported.
	BinaryFlag Class = "binary"
	// NumericRange holds a number; all five comparison operators are supported.
	NumericRange Class = "numeric"
)

// IsValid checks if the class is one of the supported values.
func (c Class) IsValid() bool {
	return c == CategoricalExact || c == BinaryFlag || c == NumericRange
}

// Field is an immutable value object describing a filterable dataset field.
type Field struct {
	name  string
	class Class
}

// New validates and creates a Field.
// Name must be non-empty and at most 64 chars; class must be valid.
func New(name string, c Class) (Field, error) {
	if name == "" {
		return Field{}, fmt.Errorf("field name is required")
	}
	if len(name) > 64 {
		return Field{}, fmt.Errorf("field name %q too long (max 64)", name)
	}
	if !c.IsValid() {
		return Field{}, fmt.Errorf("invalid field class %q for %q", c, name)
	}
	return Field{name: name, class: c}, nil
}

// Name returns the field name.
func (f Field) Name() string { return f.name }

// Class returns the evaluation class.
func (f Field) Class() Class { return f.class }
