// Package translation decorates the prompt translator with budget enforcement,
// usage accounting, and logging.
package translation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/arborist/internal/domain"
	domtr "github.com/kailas-cloud/arborist/internal/domain/translation"
	"github.com/kailas-cloud/arborist/internal/metrics"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// InstrumentedTranslator wraps a Translator with budget enforcement and logging.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedTranslator struct {
	inner    domtr.Translator
	provider string
	model    string
	budget   BudgetChecker
	logger   *zap.Logger
}

// NewInstrumentedTranslator wraps a translator. budget may be nil.
func NewInstrumentedTranslator(
	inner domtr.Translator, provider, model string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedTranslator {
	return &InstrumentedTranslator{
		inner:    inner,
		provider: provider,
		model:    model,
		budget:   budget,
		logger:   logger,
	}
}

// Translate checks the budget, delegates, and records token usage.
func (p *InstrumentedTranslator) Translate(ctx context.Context, prompt string) (domtr.Result, error) {
	if p.budget != nil {
		if err := p.budget.Check(ctx); err != nil {
			p.logger.Error("Translation budget exceeded",
				zap.String("provider", p.provider),
				zap.String("model", p.model),
				zap.Error(err),
			)
			return domtr.Result{}, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()
	result, err := p.inner.Translate(ctx, prompt)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Translation failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domtr.Result{}, fmt.Errorf("translate: %w", err)
	}

	domain.UsageFromContext(ctx).AddTokens(result.TotalTokens)

	if p.budget != nil && result.TotalTokens > 0 {
		p.budget.Record(int64(result.TotalTokens))
		remaining := metrics.TranslatorBudgetTokensRemaining
		remaining.WithLabelValues(p.provider, "daily").Set(float64(p.budget.RemainingDaily()))
		remaining.WithLabelValues(p.provider, "monthly").Set(float64(p.budget.RemainingMonthly()))
	}

	p.logger.Debug("Translation completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("criteria", result.Criteria.Len()),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

// HealthCheck delegates to the inner translator when it supports health checks.
func (p *InstrumentedTranslator) HealthCheck(ctx context.Context) error {
	hc, ok := p.inner.(domtr.HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("translator health: %w", err)
	}
	return nil
}
