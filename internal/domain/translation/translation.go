// Package translation holds the contract between the query pipeline and the
// natural-language-to-criteria translator.
package translation

import (
	"context"

	"github.com/kailas-cloud/arborist/internal/domain/criteria"
)

// Translator turns a free-text prompt into a criteria set.
// It must either return a well-formed (possibly empty) set or fail; a malformed
// upstream response is a failure, never an empty set.
type Translator interface {
	Translate(ctx context.Context, prompt string) (Result, error)
}

// HealthChecker verifies translator provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Result carries the criteria and token usage through the decorator chain.
type Result struct {
	Criteria         criteria.Set
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
