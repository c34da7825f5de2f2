package filter

import (
	"github.com/kailas-cloud/arborist/internal/domain/criteria"
	"github.com/kailas-cloud/arborist/internal/domain/field"
	"github.com/kailas-cloud/arborist/internal/domain/record"
)

// Status is the per-criterion outcome.
type Status string

// Outcome statuses.
const (
	// Applied means the criterion's predicate reduced the working set.
	Applied Status = "applied"
	// Skipped means the criterion could not be evaluated and was ignored.
	Skipped Status = "skipped"
	// NotReached means the working set was already empty.
	NotReached Status = "not_reached"
)

// Outcome records what happened to one criterion.
type Outcome struct {
	Criterion criteria.Criterion `json:"criterion"`
	Status    Status             `json:"status"`
	Removed   int                `json:"removed"`
	Reason    field.Reason       `json:"reason,omitempty"`
}

// DefaultOutcome records the implicit positive-value filter.
type DefaultOutcome struct {
	Field   string `json:"field,omitempty"`
	Applied bool   `json:"applied"`
	Removed int    `json:"removed"`
}

// Result is the reduced record set plus provenance.
type Result struct {
	records  []record.Record
	input    int
	implicit DefaultOutcome
	outcomes []Outcome
}

// NewResult creates a Result (used by tests and by callers that shape pre-filtered records).
func NewResult(records []record.Record, input int, implicit DefaultOutcome, outcomes []Outcome) Result {
	return Result{records: records, input: input, implicit: implicit, outcomes: outcomes}
}

// Records returns the surviving records in dataset order.
func (r Result) Records() []record.Record { return r.records }

// Len returns the number of surviving records.
func (r Result) Len() int { return len(r.records) }

// Input returns the number of records before any filtering.
func (r Result) Input() int { return r.input }

// Default returns the implicit default filter outcome.
func (r Result) Default() DefaultOutcome { return r.implicit }

// Outcomes returns one outcome per criterion, in application order.
func (r Result) Outcomes() []Outcome { return r.outcomes }

// Skipped returns the number of criteria that were ignored.
func (r Result) Skipped() int {
	n := 0
	for _, o := range r.outcomes {
		if o.Status == Skipped {
			n++
		}
	}
	return n
}
