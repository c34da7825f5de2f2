package query

import (
	"context"

	"github.com/kailas-cloud/arborist/internal/domain/criteria"
	"github.com/kailas-cloud/arborist/internal/domain/dataset"
	"github.com/kailas-cloud/arborist/internal/usecase/filter"
)

// DatasetProvider returns the current prepared dataset.
type DatasetProvider interface {
	Get(ctx context.Context) (*dataset.Dataset, error)
}

// Filter applies a criteria set to a dataset.
type Filter interface {
	Apply(ctx context.Context, ds *dataset.Dataset, set criteria.Set) (filter.Result, error)
}
