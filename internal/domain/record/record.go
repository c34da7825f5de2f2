package record

import (
	"github.com/paulmach/orb"

	"github.com/kailas-cloud/arborist/internal/domain/value"
)

// Record is one immutable dataset row: named field values plus an optional point location.
type Record struct {
	fields   map[string]value.Value
	location orb.Point
	located  bool
}

// New creates an unlocated record. The fields map is owned by the record afterwards.
func New(fields map[string]value.Value) Record {
	return Record{fields: fields}
}

// NewLocated creates a record at the given point.
func NewLocated(fields map[string]value.Value, p orb.Point) Record {
	return Record{fields: fields, location: p, located: true}
}

// Get returns the value of a field. Absent fields are reported as Null with ok=false.
func (r Record) Get(name string) (value.Value, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// Location returns the point location, if the record has one.
func (r Record) Location() (orb.Point, bool) {
	return r.location, r.located
}

// HasLocation reports whether the record can be rendered as a geometry.
func (r Record) HasLocation() bool { return r.located }

// Len returns the number of fields.
func (r Record) Len() int { return len(r.fields) }

// Properties returns the fields in JSON-ready form with missing values as nil.
func (r Record) Properties() map[string]any {
	props := make(map[string]any, len(r.fields))
	for k, v := range r.fields {
		props[k] = v.Interface()
	}
	return props
}
