package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/arborist/internal/logger"
	chiTransport "github.com/kailas-cloud/arborist/internal/transport/chi"
	queryuc "github.com/kailas-cloud/arborist/internal/usecase/query"
)

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logpkg.NewLogger(envName, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	limit, _ := cmd.Flags().GetInt("limit")
	explain, _ := cmd.Flags().GetBool("explain")

	ctx := logpkg.ContextWithLogger(cmd.Context(), logger)
	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	resp, err := a.query.Query(ctx, queryuc.Request{Prompt: args[0], Limit: limit, Explain: explain})
	if err != nil {
		logger.Debug("Query failed", zap.Error(err))
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(chiTransport.FeatureCollection(resp)); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
