// Package usage describes translator token consumption over a budget period.
package usage

import (
	"fmt"
	"time"
)

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name. Empty means PeriodMonth.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodMonth:
		return PeriodMonth, nil
	case PeriodDay:
		return PeriodDay, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// Report is the translator token usage for one period.
type Report struct {
	period    Period
	start     time.Time
	end       time.Time
	used      int64
	limit     int64
	remaining int64
}

// NewReport creates a usage report. A zero limit means unlimited.
func NewReport(period Period, start, end time.Time, used, limit, remaining int64) Report {
	if limit <= 0 {
		limit, remaining = 0, -1
	}
	return Report{
		period:    period,
		start:     start,
		end:       end,
		used:      used,
		limit:     limit,
		remaining: remaining,
	}
}

// Period returns the aggregation granularity.
func (r Report) Period() Period { return r.period }

// Start returns the period start (UTC).
func (r Report) Start() time.Time { return r.start }

// End returns the period end, which is also when the budget resets.
func (r Report) End() time.Time { return r.end }

// TokensUsed returns tokens consumed in the period.
func (r Report) TokensUsed() int64 { return r.used }

// Limited reports whether a token limit applies to the period.
func (r Report) Limited() bool { return r.limit > 0 }

// TokensLimit returns the limit, 0 when unlimited.
func (r Report) TokensLimit() int64 { return r.limit }

// TokensRemaining returns tokens left, -1 when unlimited.
func (r Report) TokensRemaining() int64 { return r.remaining }

// IsExhausted reports whether a limited budget has no tokens left.
func (r Report) IsExhausted() bool { return r.Limited() && r.remaining <= 0 }
