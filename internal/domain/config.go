package domain

// KeyPrefix namespaces every key arborist writes to the KV store.
const KeyPrefix = "arborist:"

// DefaultMaxFeatures caps the number of features returned by a single query.
const DefaultMaxFeatures = 100000

// TranslatorConfig holds internal translation settings, not exposed to clients.
type TranslatorConfig struct {
	Model           string
	Temperature     float32
	TopP            float32
	MaxOutputTokens int
}

// DefaultTranslatorConfig returns settings tuned for small, deterministic JSON extraction.
func DefaultTranslatorConfig() TranslatorConfig {
	return TranslatorConfig{
		Model:           "gpt-4o-mini",
		Temperature:     0.2,
		TopP:            1,
		MaxOutputTokens: 2048,
	}
}
