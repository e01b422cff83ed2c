package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScanRuns counts finished scan runs by terminal status
	ScanRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phishguard_scan_runs_total",
			Help: "Total number of scan runs by terminal status",
		},
		[]string{"status"},
	)

	// MessagesScanned counts persisted message verdicts by risk level
	MessagesScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phishguard_messages_scanned_total",
			Help: "Total number of messages scanned by resulting risk level",
		},
		[]string{"risk_level"},
	)

	// URLChecks counts analyzed URLs by risk level
	URLChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phishguard_url_checks_total",
			Help: "Total number of analyzed URLs by risk level",
		},
		[]string{"level"},
	)

	// LookupDuration tracks WHOIS and redirect probe latency
	LookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "phishguard_lookup_duration_seconds",
			Help:    "Outbound lookup duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
		[]string{"lookup", "outcome"},
	)

	// ExternalScores counts external scorer invocations by provider and outcome
	ExternalScores = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phishguard_external_scores_total",
			Help: "Total number of external text scorer calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)
)

// RecordScanRun records a finished scan run
func RecordScanRun(status string) {
	ScanRuns.WithLabelValues(status).Inc()
}

// RecordMessage records one scanned message
func RecordMessage(riskLevel string) {
	MessagesScanned.WithLabelValues(riskLevel).Inc()
}

// RecordURLCheck records one analyzed URL
func RecordURLCheck(level string) {
	URLChecks.WithLabelValues(level).Inc()
}

// RecordLookup records an outbound lookup
func RecordLookup(lookup string, err error, duration time.Duration) {
	LookupDuration.WithLabelValues(lookup, outcome(err)).Observe(duration.Seconds())
}

// RecordExternalScore records an external scorer invocation
func RecordExternalScore(provider string, err error) {
	ExternalScores.WithLabelValues(provider, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
