// Package usage reports translator token consumption against the budget.
package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/arborist/internal/domain/usage"
)

// Service handles usage reporting.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil when no budget is configured.
func New(br BudgetReader) *Service {
	return &Service{br: br, now: time.Now}
}

// GetReport builds a usage report for the current day or month (UTC).
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	now := s.now().UTC()

	var start, end time.Time
	var used, limit, remaining int64

	switch period {
	case domusage.PeriodDay:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		end = start.Add(24 * time.Hour)
		if s.br != nil {
			used, limit, remaining = s.br.DailyUsed(), s.br.DailyLimit(), s.br.RemainingDaily()
		}
	default:
		period = domusage.PeriodMonth
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
		if s.br != nil {
			used, limit, remaining = s.br.MonthlyUsed(), s.br.MonthlyLimit(), s.br.RemainingMonthly()
		}
	}

	return domusage.NewReport(period, start, end, used, limit, remaining)
}
