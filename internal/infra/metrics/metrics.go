package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var once sync.Once

var (
	// Terminal resolutions by outcome and winning signal source.
	// outcome: completed|failed
	// source: poll|deeplink|user
	ResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_resolutions_total",
			Help: "Terminal payment session resolutions by outcome and source.",
		},
		[]string{"outcome", "source"},
	)

	// Backend status checks by result.
	// result: confirmed|pending|error
	StatusChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_status_checks_total",
			Help: "Backend payment-status checks by result.",
		},
		[]string{"result"},
	)

	// Inbound deep links by pattern class.
	// kind: polling_ack|success|cancel|unknown
	DeepLinksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_deeplinks_total",
			Help: "Inbound deep-link events by pattern class.",
		},
		[]string{"kind"},
	)

	// Latency of callback verification calls grouped by result.
	VerifyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_verify_duration_seconds",
			Help:    "Duration of callback verification requests in seconds.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"result"},
	)

	// Device directive deliveries by directive and path taken.
	// path: publish|fallback|retry|lost
	DirectivesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_directives_total",
			Help: "Device directive deliveries by directive kind and delivery path.",
		},
		[]string{"directive", "path"},
	)

	// Live payment sessions.
	LiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "payment_sessions_live",
			Help: "Number of live payment sessions.",
		},
	)
)

// MustRegister registers all collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			ResolutionsTotal,
			StatusChecksTotal,
			DeepLinksTotal,
			VerifyDuration,
			DirectivesTotal,
			LiveSessions,
		)
	})
}
