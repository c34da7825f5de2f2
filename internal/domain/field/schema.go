package field

import "fmt"

// DefaultNumericField is the trunk diameter column of the tree census.
const DefaultNumericField = "tree_dbh"

// Schema maps filterable field names to their evaluation class.
type Schema struct {
	fields         []Field
	byName         map[string]Field
	defaultNumeric string
}

// NewSchema validates and creates a Schema.
// defaultNumeric names the field guarded by the implicit positive-value filter;
// it may be empty, otherwise it must be a numeric-range field of the schema.
func NewSchema(fields []Field, defaultNumeric string) (Schema, error) {
	byName := make(map[string]Field, len(fields))
	for _, f := range fields {
		if _, dup := byName[f.name]; dup {
			return Schema{}, fmt.Errorf("duplicate field %q", f.name)
		}
		byName[f.name] = f
	}
	if defaultNumeric != "" {
		f, ok := byName[defaultNumeric]
		if !ok {
			return Schema{}, fmt.Errorf("default numeric field %q is not in the schema", defaultNumeric)
		}
		if f.class != NumericRange {
			return Schema{}, fmt.Errorf("default numeric field %q must be numeric, got %s", defaultNumeric, f.class)
		}
	}
	return Schema{fields: fields, byName: byName, defaultNumeric: defaultNumeric}, nil
}

// DefaultSchema returns the street tree census schema.
func DefaultSchema() Schema {
	fields := []Field{
		{name: "status", class: CategoricalExact},
		{name: "spc_common", class: CategoricalExact},
		{name: "boroname", class: CategoricalExact},
		{name: "zipcode", class: CategoricalExact},
		{name: "address", class: CategoricalExact},
		{name: "sidw_crack", class: BinaryFlag},
		{name: "inf_wires", class: BinaryFlag},
		{name: "trunk_dmg", class: BinaryFlag},
		{name: DefaultNumericField, class: NumericRange},
	}
	s, err := NewSchema(fields, DefaultNumericField)
	if err != nil {
		panic(err)
	}
	return s
}

// Classify returns the class of a field; ok is false for unknown fields.
func (s Schema) Classify(name string) (Class, bool) {
	f, ok := s.byName[name]
	if !ok {
		return "", false
	}
	return f.class, true
}

// Fields returns the schema fields in declaration order.
func (s Schema) Fields() []Field { return s.fields }

// DefaultNumeric returns the field guarded by the implicit default filter, or "".
func (s Schema) DefaultNumeric() string { return s.defaultNumeric }

// NumericFields returns the names of all numeric-range fields.
func (s Schema) NumericFields() []string {
	var out []string
	for _, f := range s.fields {
		if f.class == NumericRange {
			out = append(out, f.name)
		}
	}
	return out
}
