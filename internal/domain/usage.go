package domain

import "context"

type translationUsageKey struct{}

// TranslationUsage collects translator usage for a single HTTP request.
// The handler puts a mutable pointer into the context before calling the service;
// the translator chain writes to it; the handler reads it for response headers.
type TranslationUsage struct {
	TotalTokens int
	Used        bool // true if the translator was called, even on a cache hit with 0 tokens
	CacheHit    bool
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *TranslationUsage) {
	u := &TranslationUsage{}
	return context.WithValue(ctx, translationUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *TranslationUsage {
	u, _ := ctx.Value(translationUsageKey{}).(*TranslationUsage)
	return u
}

// AddTokens records consumed tokens.
func (u *TranslationUsage) AddTokens(n int) {
	if u != nil {
		u.TotalTokens += n
		u.Used = true
	}
}

// MarkCacheHit records that the criteria came from the translation cache.
func (u *TranslationUsage) MarkCacheHit() {
	if u != nil {
		u.CacheHit = true
		u.Used = true
	}
}
