package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

var (
	// ScanCount counts scan triggers by outcome
	ScanCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plagiarism_scans_total",
			Help: "Total number of plagiarism scan triggers",
		},
		[]string{"outcome"},
	)

	// ScanDuration measures the scan round trip
	ScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plagiarism_scan_duration_seconds",
			Help:    "Plagiarism scan round trip duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
	)

	// ScanPairs observes the size of successful result sets
	ScanPairs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plagiarism_scan_pairs",
			Help:    "Number of compared pairs returned by a successful scan",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	// ActiveSessions tracks mounted scan sessions
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "plagiarism_active_sessions",
			Help: "Number of mounted plagiarism scan sessions",
		},
	)

	// RequestCount counts HTTP requests
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
)

// InitPrometheus registers all collectors with the default registry.
func InitPrometheus() {
	Register(prometheus.DefaultRegisterer)
}

func Register(reg prometheus.Registerer) {
	reg.MustRegister(ScanCount, ScanDuration, ScanPairs, ActiveSessions, RequestCount)
}

// ObserveScan records a resolved scan.
func ObserveScan(outcome string, elapsed time.Duration, pairs int) {
	ScanCount.WithLabelValues(outcome).Inc()
	ScanDuration.Observe(elapsed.Seconds())
	if outcome == OutcomeSucceeded {
		ScanPairs.Observe(float64(pairs))
	}
}
