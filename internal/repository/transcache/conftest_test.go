package transcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/arborist/internal/db"
	domtr "github.com/kailas-cloud/arborist/internal/domain/translation"
)

type mockTranslator struct {
	result domtr.Result
	err    error
	calls  int
}

func (m *mockTranslator) Translate(_ context.Context, _ string) (domtr.Result, error) {
	m.calls++
	return m.result, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedTranslator(t *testing.T, inner *mockTranslator) (*CachedTranslator, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	ct := New(inner, ms, "test-model:v3", time.Hour, nil, zap.NewNop())
	return ct, ms
}
