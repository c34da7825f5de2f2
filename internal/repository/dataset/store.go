package dataset

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/arborist/internal/domain"
	domds "github.com/kailas-cloud/arborist/internal/domain/dataset"
	"github.com/kailas-cloud/arborist/internal/metrics"
)

// loader is the consumer interface for dataset preparation (ISP).
type loader interface {
	Load(ctx context.Context) (*domds.Dataset, error)
}

// Load triggers, used as metric labels.
const (
	TriggerStartup = "startup"
	TriggerLazy    = "lazy"
	TriggerReload  = "reload"
)

// Stats summarizes the loaded dataset.
type Stats struct {
	Loaded   bool      `json:"loaded"`
	Source   string    `json:"source,omitempty"`
	LoadedAt time.Time `json:"loaded_at,omitzero"`
	Records  int       `json:"records"`
	Located  int       `json:"located"`
	Dropped  int       `json:"dropped"`
	Columns  []string  `json:"columns,omitempty"`
}

// Store holds the current dataset behind an atomically swapped pointer.
// Readers never block on a load in progress once a dataset is present.
type Store struct {
	loader  loader
	current atomic.Pointer[domds.Dataset]
	loadMu  sync.Mutex
	logger  *zap.Logger
}

// New creates an empty store. Call Load at startup or rely on lazy loading.
func New(l loader, logger *zap.Logger) *Store {
	return &Store{loader: l, logger: logger}
}

// Get returns the current dataset, attempting one load if none is present.
func (s *Store) Get(ctx context.Context) (*domds.Dataset, error) {
	if ds := s.current.Load(); ds != nil {
		return ds, nil
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	// Another caller may have loaded it while we waited.
	if ds := s.current.Load(); ds != nil {
		return ds, nil
	}

	ds, err := s.load(ctx, TriggerLazy)
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// Load prepares the dataset and swaps it in. On failure the previous dataset,
// if any, stays in place.
func (s *Store) Load(ctx context.Context, trigger string) (Stats, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	ds, err := s.load(ctx, trigger)
	if err != nil {
		return s.Stats(), err
	}
	return statsOf(ds), nil
}

// Reload is Load with the reload trigger.
func (s *Store) Reload(ctx context.Context) (Stats, error) {
	return s.Load(ctx, TriggerReload)
}

// Stats describes the current dataset; Loaded is false when none is present.
func (s *Store) Stats() Stats {
	ds := s.current.Load()
	if ds == nil {
		return Stats{}
	}
	return statsOf(ds)
}

// HealthCheck reports whether a dataset is loaded.
func (s *Store) HealthCheck(_ context.Context) error {
	if s.current.Load() == nil {
		return domain.ErrDataUnavailable
	}
	return nil
}

// load must be called with loadMu held.
func (s *Store) load(ctx context.Context, trigger string) (*domds.Dataset, error) {
	start := time.Now()
	ds, err := s.loader.Load(ctx)
	if err == nil && ds == nil {
		err = errors.New("loader returned no dataset")
	}
	if err != nil {
		metrics.DatasetLoadsTotal.WithLabelValues(trigger, "error").Inc()
		s.logger.Error("Dataset load failed",
			zap.String("trigger", trigger),
			zap.Error(err),
		)
		if errors.Is(err, domain.ErrDataUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrDataUnavailable, err)
	}

	s.current.Store(ds)

	metrics.DatasetLoadsTotal.WithLabelValues(trigger, "ok").Inc()
	metrics.DatasetRecords.WithLabelValues("total").Set(float64(ds.Len()))
	metrics.DatasetRecords.WithLabelValues("located").Set(float64(ds.Located()))

	s.logger.Info("Dataset loaded",
		zap.String("trigger", trigger),
		zap.String("source", ds.Info().Source),
		zap.Int("records", ds.Len()),
		zap.Int("located", ds.Located()),
		zap.Int("dropped", ds.Info().Dropped),
		zap.Duration("took", time.Since(start)),
	)
	return ds, nil
}

func statsOf(ds *domds.Dataset) Stats {
	info := ds.Info()
	return Stats{
		Loaded:   true,
		Source:   info.Source,
		LoadedAt: info.LoadedAt,
		Records:  ds.Len(),
		Located:  ds.Located(),
		Dropped:  info.Dropped,
		Columns:  ds.Columns(),
	}
}
