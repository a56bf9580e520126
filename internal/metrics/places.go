package metrics

import "github.com/prometheus/client_golang/prometheus"

// Lookup and budget Prometheus metrics.
var (
	LookupCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "placegate",
			Name:      "lookup_cache_total",
			Help:      "Lookup cache hits and misses per category",
		},
		[]string{"category", "result"}, // result: "hit" / "miss"
	)

	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "placegate",
			Name:      "provider_requests_total",
			Help:      "Total number of upstream provider requests",
		},
		[]string{"category", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "placegate",
			Name:      "provider_request_duration_seconds",
			Help:      "Upstream provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"category"},
	)

	BudgetSpendUSD = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "placegate",
			Name:      "budget_estimated_spend_usd",
			Help:      "Estimated spend against today's budget in USD",
		},
	)

	BudgetPercentUsed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "placegate",
			Name:      "budget_percent_used",
			Help:      "Estimated spend as a percentage of the daily budget",
		},
	)

	BudgetRefusalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "placegate",
			Name:      "budget_refusals_total",
			Help:      "Calls refused because the daily budget was exhausted",
		},
		[]string{"category"},
	)
)

var placesMetricsRegistered bool

// RegisterPlacesMetrics registers lookup metrics. Must be called once from main.
func RegisterPlacesMetrics() {
	if placesMetricsRegistered {
		return
	}
	prometheus.MustRegister(LookupCacheTotal)
	prometheus.MustRegister(ProviderRequestsTotal)
	prometheus.MustRegister(ProviderRequestDuration)
	prometheus.MustRegister(BudgetSpendUSD)
	prometheus.MustRegister(BudgetPercentUsed)
	prometheus.MustRegister(BudgetRefusalsTotal)
	placesMetricsRegistered = true
}
