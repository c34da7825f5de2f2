package transcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/arborist/internal/db"
	"github.com/kailas-cloud/arborist/internal/domain"
	"github.com/kailas-cloud/arborist/internal/domain/criteria"
	domtr "github.com/kailas-cloud/arborist/internal/domain/translation"
)

var cacheKeyPrefix = domain.KeyPrefix + "criteria_cache:"

// store is the consumer interface for the translation cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedTranslator caches translated criteria sets in a key-value store.
type CachedTranslator struct {
	inner      domtr.Translator
	store      store
	namespace  string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// namespace separates incompatible translations (model and instruction template version).
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domtr.Translator,
	s store,
	namespace string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedTranslator {
	return &CachedTranslator{
		inner:      inner,
		store:      s,
		namespace:  namespace,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Translate returns cached criteria or calls the inner translator.
// Cache hits report zero tokens. Cache failures fall through to the inner translator.
func (c *CachedTranslator) Translate(ctx context.Context, prompt string) (domtr.Result, error) {
	key := c.cacheKey(prompt)

	if set, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		domain.UsageFromContext(ctx).MarkCacheHit()
		return domtr.Result{Criteria: set}, nil
	}

	c.incCache("miss")

	result, err := c.inner.Translate(ctx, prompt)
	if err != nil {
		return domtr.Result{}, fmt.Errorf("translate prompt: %w", err)
	}

	c.putToCache(ctx, key, result.Criteria)
	return result, nil
}

// HealthCheck delegates to the inner translator when it supports health checks.
func (c *CachedTranslator) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domtr.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

func (c *CachedTranslator) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedTranslator) cacheKey(prompt string) string {
	h := sha256.New()
	h.Write([]byte(c.namespace))
	h.Write([]byte{0})
	h.Write([]byte(normalizePrompt(prompt)))
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// normalizePrompt folds case and whitespace so trivially different prompts share an entry.
func normalizePrompt(prompt string) string {
	return strings.Join(strings.Fields(strings.ToLower(prompt)), " ")
}

func (c *CachedTranslator) getFromCache(ctx context.Context, key string) (criteria.Set, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached criteria", zap.String("key", key), zap.Error(err))
		}
		return criteria.Set{}, false
	}
	if len(data) == 0 {
		return criteria.Set{}, false
	}

	set, err := criteria.ParseSet(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached criteria", zap.String("key", key), zap.Error(err))
		return criteria.Set{}, false
	}
	return set, true
}

func (c *CachedTranslator) putToCache(ctx context.Context, key string, set criteria.Set) {
	data, err := set.MarshalJSON()
	if err != nil {
		c.logger.Warn("Failed to encode criteria for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache criteria", zap.String("key", key), zap.Error(err))
	}
}
