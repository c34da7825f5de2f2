// Package shape turns a filter result into a capped, renderable record list.
package shape

import (
	"github.com/kailas-cloud/arborist/internal/domain/record"
	"github.com/kailas-cloud/arborist/internal/usecase/filter"
)

// Metadata describes how the returned records relate to the full match count.
type Metadata struct {
	ResultsLimited bool `json:"results_limited"`
	OriginalCount  *int `json:"original_count,omitempty"`
	LimitApplied   *int `json:"limit_applied,omitempty"`
}

// Shape drops records without a location and head-cuts the rest to limit.
// A limit of zero or less means no cap.
func Shape(res filter.Result, limit int) ([]record.Record, Metadata) {
	in := res.Records()
	located := make([]record.Record, 0, len(in))
	for _, r := range in {
		if r.HasLocation() {
			located = append(located, r)
		}
	}

	n := len(located)
	if limit <= 0 || n <= limit {
		return located, Metadata{}
	}
	return located[:limit:limit], Metadata{
		ResultsLimited: true,
		OriginalCount:  &n,
		LimitApplied:   &limit,
	}
}

// EffectiveLimit combines the configured cap with an optional per-request limit.
// The request can only lower the cap.
func EffectiveLimit(configured, requested int) int {
	switch {
	case requested <= 0:
		return configured
	case configured <= 0:
		return requested
	case requested < configured:
		return requested
	default:
		return configured
	}
}
