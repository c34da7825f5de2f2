package filter

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/arborist/internal/domain"
	"github.com/kailas-cloud/arborist/internal/domain/criteria"
	"github.com/kailas-cloud/arborist/internal/domain/dataset"
	"github.com/kailas-cloud/arborist/internal/domain/field"
	"github.com/kailas-cloud/arborist/internal/domain/record"
	"github.com/kailas-cloud/arborist/internal/domain/value"
	"github.com/kailas-cloud/arborist/internal/logger"
)

// Engine applies criteria sets to a dataset using a field schema.
type Engine struct {
	schema field.Schema
}

// New creates a filter engine.
func New(schema field.Schema) *Engine {
	return &Engine{schema: schema}
}

// Schema returns the field schema the engine classifies criteria with.
func (e *Engine) Schema() field.Schema { return e.schema }

// Apply reduces the dataset by the criteria set.
//
// Criteria are conjunctive and applied in order. When no criterion names the
// schema's default numeric field, records whose value for it is not strictly
// positive are dropped first. Criteria that cannot be evaluated are skipped
// and reported in the outcomes; once the working set is empty the remaining
// criteria are not evaluated.
func (e *Engine) Apply(ctx context.Context, ds *dataset.Dataset, set criteria.Set) (Result, error) {
	if ds == nil {
		return Result{}, domain.ErrDataUnavailable
	}
	log := logger.FromContext(ctx)

	w := workingSet{records: ds.Records()}
	res := Result{input: w.len()}

	if num := e.schema.DefaultNumeric(); num != "" {
		res.implicit.Field = num
		if !set.Mentions(num) && ds.IsNumeric(num) {
			res.implicit.Applied = true
			res.implicit.Removed = w.keep(num, isPositive)
			log.Debug("Applied default filter",
				zap.String("field", num),
				zap.Int("removed", res.implicit.Removed),
				zap.Int("remaining", w.len()),
			)
		}
	}

	res.outcomes = make([]Outcome, 0, set.Len())
	for _, c := range set.Items() {
		if w.len() == 0 {
			res.outcomes = append(res.outcomes, Outcome{Criterion: c, Status: NotReached})
			continue
		}

		pred, reason := e.resolve(ds, c)
		if reason != field.ReasonNone {
			log.Warn("Skipping filter criterion",
				zap.String("field", c.Field()),
				zap.String("operator", string(c.Operator())),
				zap.String("value", c.Value().String()),
				zap.String("reason", string(reason)),
			)
			res.outcomes = append(res.outcomes, Outcome{Criterion: c, Status: Skipped, Reason: reason})
			continue
		}

		removed := w.keep(c.Field(), pred)
		log.Debug("Applied filter criterion",
			zap.String("field", c.Field()),
			zap.String("operator", string(c.Operator())),
			zap.String("value", c.Value().String()),
			zap.Int("removed", removed),
			zap.Int("remaining", w.len()),
		)
		res.outcomes = append(res.outcomes, Outcome{Criterion: c, Status: Applied, Removed: removed})
	}

	res.records = w.records
	return res, nil
}

// resolve classifies a criterion and builds its predicate, or explains why it is skipped.
func (e *Engine) resolve(ds *dataset.Dataset, c criteria.Criterion) (field.Predicate, field.Reason) {
	if err := c.Validate(); err != nil {
		return nil, field.ReasonInvalidCriterion
	}
	class, ok := e.schema.Classify(c.Field())
	if !ok {
		return nil, field.ReasonUnknownField
	}
	if !ds.HasColumn(c.Field()) {
		return nil, field.ReasonFieldNotInDataset
	}
	return field.Rule(class, c.Operator(), c.Value())
}

func isPositive(v value.Value) bool {
	f, ok := v.Float()
	return ok && f > 0
}

// workingSet filters records without touching the dataset's backing array.
type workingSet struct {
	records []record.Record
	owned   bool
}

func (w *workingSet) len() int { return len(w.records) }

// keep retains records whose field value satisfies pred and returns how many were removed.
func (w *workingSet) keep(name string, pred field.Predicate) int {
	before := len(w.records)
	var out []record.Record
	if w.owned {
		out = w.records[:0]
	} else {
		out = make([]record.Record, 0, before)
	}
	for _, r := range w.records {
		v, _ := r.Get(name)
		if pred(v) {
			out = append(out, r)
		}
	}
	w.records = out
	w.owned = true
	return before - len(out)
}
