package metrics

import "github.com/prometheus/client_golang/prometheus"

// Translator Prometheus metrics.
var (
	TranslatorRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arborist",
			Name:      "translator_requests_total",
			Help:      "Total number of prompt translation requests",
		},
		[]string{"provider", "model", "status"},
	)

	TranslatorRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "arborist",
			Name:      "translator_request_duration_seconds",
			Help:      "Prompt translation request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "model"},
	)

	TranslatorTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arborist",
			Name:      "translator_tokens_total",
			Help:      "Total translator tokens consumed",
		},
		[]string{"provider", "model", "type"}, // "prompt" / "completion"
	)

	TranslatorErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arborist",
			Name:      "translator_errors_total",
			Help:      "Total translator errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	TranslatorBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "arborist",
			Name:      "translator_budget_tokens_remaining",
			Help:      "Remaining translator token budget",
		},
		[]string{"provider", "period"},
	)

	TranslatorCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arborist",
			Name:      "translator_cache_total",
			Help:      "Translation cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var translatorMetricsRegistered bool

// RegisterTranslatorMetrics registers Prometheus translator metrics. Must be called once from main.
func RegisterTranslatorMetrics() {
	if translatorMetricsRegistered {
		return
	}
	prometheus.MustRegister(TranslatorRequestsTotal)
	prometheus.MustRegister(TranslatorRequestDuration)
	prometheus.MustRegister(TranslatorTokensTotal)
	prometheus.MustRegister(TranslatorErrorsTotal)
	prometheus.MustRegister(TranslatorBudgetTokensRemaining)
	prometheus.MustRegister(TranslatorCacheTotal)
	translatorMetricsRegistered = true
}
