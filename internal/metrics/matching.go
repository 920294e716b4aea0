package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Match outcomes
const (
	OutcomeMatched  = "matched"
	OutcomeNotFound = "not_found"
	OutcomeEmpty    = "empty"
	OutcomeError    = "error"
)

// Matching Prometheus metrics.
var (
	MatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nzaddr",
			Name:      "match_total",
			Help:      "Address resolutions by winning strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	MatchStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nzaddr",
			Name:      "match_stage_duration_seconds",
			Help:      "Duration of a single cascade stage in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"strategy"},
	)

	CacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nzaddr",
			Name:      "cache_requests_total",
			Help:      "Result cache lookups",
		},
		[]string{"result"}, // "hit" / "miss" / "error"
	)
)

func init() {
	prometheus.MustRegister(MatchTotal)
	prometheus.MustRegister(MatchStageDuration)
	prometheus.MustRegister(CacheRequestsTotal)
}

// ObserveStage records the duration of one cascade stage
func ObserveStage(strategy string, d time.Duration) {
	MatchStageDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

// RecordMatch counts a finished resolution. strategy is empty when nothing matched.
func RecordMatch(strategy, outcome string) {
	if strategy == "" {
		strategy = "none"
	}
	MatchTotal.WithLabelValues(strategy, outcome).Inc()
}

// RecordCache counts a cache lookup
func RecordCache(result string) {
	CacheRequestsTotal.WithLabelValues(result).Inc()
}
