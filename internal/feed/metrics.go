package feed

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricFeedRequests        = "feed_requests_total"
	MetricFeedCandidates      = "feed_candidate_pool_size"
	MetricFeedRankingDuration = "feed_ranking_duration_seconds"
)

// Metrics contains Prometheus metrics for feed engine operations.
// All operations are thread-safe.
type Metrics struct {
	requests        *prometheus.CounterVec
	candidates      *prometheus.HistogramVec
	rankingDuration *prometheus.HistogramVec
}

// NewMetrics creates and returns a new Metrics instance with all
// collectors initialized. The metrics are not registered; call Register
// to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricFeedRequests,
				Help: "Total number of feed requests by variant and outcome",
			},
			[]string{"variant", "status"},
		),
		candidates: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricFeedCandidates,
				Help:    "Candidate pool size per feed request",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8), // 1 to ~16k candidates
			},
			[]string{"variant"},
		),
		rankingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricFeedRankingDuration,
				Help:    "Time spent scoring and ordering per feed request in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"variant"},
		),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.requests,
		m.candidates,
		m.rankingDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRequest records the outcome of one feed request.
func (m *Metrics) ObserveRequest(variant, status string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(variant, status).Inc()
}

// ObserveCandidates records the candidate pool size for a request.
func (m *Metrics) ObserveCandidates(variant string, count int) {
	if m == nil {
		return
	}
	m.candidates.WithLabelValues(variant).Observe(float64(count))
}

// ObserveRankingDuration records scoring/ordering time for a request.
func (m *Metrics) ObserveRankingDuration(variant string, seconds float64) {
	if m == nil {
		return
	}
	m.rankingDuration.WithLabelValues(variant).Observe(seconds)
}
