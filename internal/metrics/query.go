package metrics

import "github.com/prometheus/client_golang/prometheus"

// Dataset and query Prometheus metrics.
var (
	DatasetRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "arborist",
			Name:      "dataset_records",
			Help:      "Records in the loaded dataset",
		},
		[]string{"kind"}, // "total" / "located"
	)

	DatasetLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arborist",
			Name:      "dataset_loads_total",
			Help:      "Dataset load attempts",
		},
		[]string{"trigger", "status"}, // trigger: "startup" / "lazy" / "reload"
	)

	CriteriaOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arborist",
			Name:      "criteria_outcomes_total",
			Help:      "Filter criteria by outcome",
		},
		[]string{"status", "reason"},
	)

	QueryResultsLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "arborist",
			Name:      "query_results_limited_total",
			Help:      "Queries whose results were cut to the feature cap",
		},
	)
)

func init() {
	prometheus.MustRegister(DatasetRecords)
	prometheus.MustRegister(DatasetLoadsTotal)
	prometheus.MustRegister(CriteriaOutcomesTotal)
	prometheus.MustRegister(QueryResultsLimitedTotal)
}
