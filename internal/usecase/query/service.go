// Package query orchestrates a natural-language query: translate, filter, shape.
package query

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/arborist/internal/domain"
	"github.com/kailas-cloud/arborist/internal/domain/criteria"
	"github.com/kailas-cloud/arborist/internal/domain/record"
	domtr "github.com/kailas-cloud/arborist/internal/domain/translation"
	"github.com/kailas-cloud/arborist/internal/logger"
	"github.com/kailas-cloud/arborist/internal/metrics"
	"github.com/kailas-cloud/arborist/internal/usecase/filter"
	"github.com/kailas-cloud/arborist/internal/usecase/shape"
)

// Request is a single query.
type Request struct {
	Prompt  string
	Limit   int // optional, can only lower the configured cap
	Explain bool
}

// Response is the shaped result with the provenance needed for explain mode.
type Response struct {
	Records  []record.Record
	Metadata shape.Metadata
	Criteria criteria.Set
	Filter   filter.Result
	Explain  bool
}

// Service handles natural-language queries over the tree dataset.
type Service struct {
	data        DatasetProvider
	translator  domtr.Translator
	filter      Filter
	maxFeatures int
}

// New creates a query service. maxFeatures <= 0 disables the cap.
func New(data DatasetProvider, translator domtr.Translator, f Filter, maxFeatures int) *Service {
	return &Service{data: data, translator: translator, filter: f, maxFeatures: maxFeatures}
}

// MaxFeatures returns the configured cap.
func (s *Service) MaxFeatures() int { return s.maxFeatures }

// Query runs the prompt through translation, filtering and shaping.
// The dataset is resolved first; an unavailable dataset spends no translator tokens.
func (s *Service) Query(ctx context.Context, req Request) (Response, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return Response{}, fmt.Errorf("%w: prompt is required", domain.ErrInvalidRequest)
	}
	if req.Limit < 0 {
		return Response{}, fmt.Errorf("%w: limit must be positive", domain.ErrInvalidRequest)
	}

	ctx = logger.WithFields(ctx, zap.String("prompt", prompt))

	ds, err := s.data.Get(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("get dataset: %w", err)
	}

	tr, err := s.translator.Translate(ctx, prompt)
	if err != nil {
		return Response{}, fmt.Errorf("translate prompt: %w", err)
	}

	res, err := s.filter.Apply(ctx, ds, tr.Criteria)
	if err != nil {
		return Response{}, fmt.Errorf("apply criteria: %w", err)
	}
	for _, o := range res.Outcomes() {
		metrics.CriteriaOutcomesTotal.WithLabelValues(string(o.Status), string(o.Reason)).Inc()
	}

	records, meta := shape.Shape(res, shape.EffectiveLimit(s.maxFeatures, req.Limit))
	if meta.ResultsLimited {
		metrics.QueryResultsLimitedTotal.Inc()
	}

	logger.FromContext(ctx).Info("Query answered",
		zap.Int("criteria", tr.Criteria.Len()),
		zap.Int("skipped", res.Skipped()),
		zap.Int("matched", res.Len()),
		zap.Int("returned", len(records)),
		zap.Bool("results_limited", meta.ResultsLimited),
	)

	return Response{
		Records:  records,
		Metadata: meta,
		Criteria: tr.Criteria,
		Filter:   res,
		Explain:  req.Explain,
	}, nil
}
