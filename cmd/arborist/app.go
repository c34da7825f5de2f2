package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/arborist/internal/config"
	"github.com/kailas-cloud/arborist/internal/db"
	dbRedis "github.com/kailas-cloud/arborist/internal/db/redis"
	"github.com/kailas-cloud/arborist/internal/domain/field"
	domtr "github.com/kailas-cloud/arborist/internal/domain/translation"
	"github.com/kailas-cloud/arborist/internal/ingest"
	"github.com/kailas-cloud/arborist/internal/metrics"
	budgetrepo "github.com/kailas-cloud/arborist/internal/repository/budget"
	datasetrepo "github.com/kailas-cloud/arborist/internal/repository/dataset"
	"github.com/kailas-cloud/arborist/internal/repository/transcache"
	openaiTr "github.com/kailas-cloud/arborist/internal/transport/openai"
	"github.com/kailas-cloud/arborist/internal/usecase/filter"
	healthuc "github.com/kailas-cloud/arborist/internal/usecase/health"
	queryuc "github.com/kailas-cloud/arborist/internal/usecase/query"
	translationuc "github.com/kailas-cloud/arborist/internal/usecase/translation"
	usageuc "github.com/kailas-cloud/arborist/internal/usecase/usage"
)

// app is the composition root shared by serve and query.
type app struct {
	datasets *datasetrepo.Store
	query    *queryuc.Service
	usage    *usageuc.Service
	health   *healthuc.Service
	close    func()
}

func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	metrics.RegisterTranslatorMetrics()

	schema, err := cfg.Schema.Build()
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}

	// Key-value store is optional: without it there is no translation cache
	// and budget counters live in memory only.
	var store db.Store
	closeFn := func() {}
	if cfg.Cache.Enabled() {
		rs, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Cache.Driver, err)
		}
		if err := rs.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			rs.Close()
			return nil, fmt.Errorf("%s not ready: %w", cfg.Cache.Driver, err)
		}
		logger.Info("Connected to key-value store",
			zap.String("driver", cfg.Cache.Driver),
			zap.Strings("addrs", cfg.Cache.Addrs),
		)
		store = rs
		closeFn = rs.Close
	}

	datasets, err := buildDatasetStore(cfg, schema, logger)
	if err != nil {
		closeFn()
		return nil, err
	}

	translator, budget, err := buildTranslator(ctx, cfg, schema, store, logger)
	if err != nil {
		closeFn()
		return nil, err
	}

	querySvc := queryuc.New(datasets, translator, filter.New(schema), cfg.Query.MaxFeatures)

	// Pass a nil interface, not a typed nil pointer, when there is no store.
	var pinger healthuc.DBPinger
	if store != nil {
		pinger = store
	}
	healthSvc := healthuc.New(datasets, translator, pinger)

	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetReader = budget
	}
	usageSvc := usageuc.New(budgetReader)

	return &app{
		datasets: datasets,
		query:    querySvc,
		usage:    usageSvc,
		health:   healthSvc,
		close:    closeFn,
	}, nil
}

func buildDatasetStore(cfg config.Config, schema field.Schema, logger *zap.Logger) (*datasetrepo.Store, error) {
	opener, err := ingest.NewOpener(ingest.StorageConfig{
		Endpoint:        cfg.ObjectStorage.Endpoint,
		AccessKeyID:     cfg.ObjectStorage.AccessKeyID,
		SecretAccessKey: cfg.ObjectStorage.SecretAccessKey,
		Region:          cfg.ObjectStorage.Region,
		UseSSL:          cfg.ObjectStorage.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}

	format := ingest.Format(cfg.Dataset.Format)
	if cfg.Dataset.Format == "auto" {
		format = ingest.FormatAuto
	}

	preparer := ingest.NewPreparer(opener, ingest.Options{
		Location:      cfg.Dataset.Location,
		Format:        format,
		NumericFields: schema.NumericFields(),
		KeepUnlocated: cfg.Dataset.KeepUnlocated,
	}, logger)

	return datasetrepo.New(preparer, logger), nil
}

// translator is what the query and health services need from the chain.
type translator interface {
	domtr.Translator
	domtr.HealthChecker
}

// buildTranslator assembles the decorator chain: OpenAI -> Cached -> Instrumented.
func buildTranslator(
	ctx context.Context,
	cfg config.Config,
	schema field.Schema,
	store db.Store,
	logger *zap.Logger,
) (translator, *translationuc.BudgetTracker, error) {
	tc := cfg.Translator
	base, err := openaiTr.NewTranslator(&openaiTr.Config{
		APIKey:          tc.APIKey,
		BaseURL:         tc.BaseURL,
		Model:           tc.Model,
		Temperature:     *tc.Temperature,
		TopP:            *tc.TopP,
		MaxOutputTokens: tc.MaxOutputTokens,
		Timeout:         time.Duration(tc.TimeoutSec) * time.Second,
		Provider:        tc.Provider,
		Schema:          schema,
		Logger:          logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create translator: %w", err)
	}

	var inner translator = base
	if store != nil {
		namespace := tc.Model + ":" + openaiTr.TemplateVersion
		inner = transcache.New(base, store, namespace,
			time.Duration(cfg.Cache.TTLSec)*time.Second, metrics.TranslatorCacheTotal, logger)
	}

	var tracker *translationuc.BudgetTracker
	if b := tc.Budget; b.DailyTokenLimit > 0 || b.MonthlyTokenLimit > 0 {
		action := translationuc.BudgetActionWarn
		if b.Action == "reject" {
			action = translationuc.BudgetActionReject
		}
		tracker = translationuc.NewBudgetTracker(tc.Provider, b.DailyTokenLimit, b.MonthlyTokenLimit, action, logger)
		if store != nil {
			tracker.WithStore(ctx, budgetrepo.New(store, budgetrepo.DefaultDailyTTL, budgetrepo.DefaultMonthlyTTL))
		}
	}

	// Pass a nil interface, not a typed nil pointer, when no budget is configured.
	var budget translationuc.BudgetChecker
	if tracker != nil {
		budget = tracker
	}

	logger.Info("Translator created",
		zap.String("provider", tc.Provider),
		zap.String("model", tc.Model),
		zap.String("template", openaiTr.TemplateVersion),
		zap.Bool("cached", store != nil),
		zap.Bool("budgeted", budget != nil),
	)

	return translationuc.NewInstrumentedTranslator(inner, tc.Provider, tc.Model, budget, logger), tracker, nil
}
