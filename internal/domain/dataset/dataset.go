package dataset

import (
	"time"

	"github.com/kailas-cloud/arborist/internal/domain/record"
	"github.com/kailas-cloud/arborist/internal/domain/value"
)

// Info describes where a dataset came from.
type Info struct {
	Source   string
	LoadedAt time.Time
	// Dropped counts source rows discarded during preparation (invalid coordinates).
	Dropped int
}

// Dataset is an immutable, ordered collection of records with known columns.
type Dataset struct {
	columns []string
	known   map[string]struct{}
	numeric map[string]bool
	records []record.Record
	located int
	info    Info
}

// New builds a dataset. Column order is preserved; a column is numeric when no
// record holds a string value for it.
func New(columns []string, records []record.Record, info Info) *Dataset {
	d := &Dataset{
		columns: columns,
		known:   make(map[string]struct{}, len(columns)),
		numeric: make(map[string]bool, len(columns)),
		records: records,
		info:    info,
	}
	for _, c := range columns {
		d.known[c] = struct{}{}
		d.numeric[c] = true
	}
	for _, r := range records {
		if r.HasLocation() {
			d.located++
		}
		for _, c := range columns {
			if !d.numeric[c] {
				continue
			}
			if v, ok := r.Get(c); ok && v.Kind() == value.KindString {
				d.numeric[c] = false
			}
		}
	}
	return d
}

// Records returns the records in load order. Callers must not modify the slice.
func (d *Dataset) Records() []record.Record { return d.records }

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// Located returns the number of records that carry a location.
func (d *Dataset) Located() int { return d.located }

// Columns returns the known field names in source order.
func (d *Dataset) Columns() []string { return d.columns }

// HasColumn reports whether the dataset knows the field.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.known[name]
	return ok
}

// IsNumeric reports whether the field exists and holds only numbers or missing values.
func (d *Dataset) IsNumeric(name string) bool {
	return d.HasColumn(name) && d.numeric[name]
}

// Info returns the dataset provenance.
func (d *Dataset) Info() Info { return d.info }
