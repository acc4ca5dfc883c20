package poller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes recorded by the fetches counter.
const (
	OutcomeSuccess    = "success"
	OutcomeFetchError = "fetch_error"
	OutcomeParseError = "parse_error"
	OutcomeStale      = "stale"
	OutcomeStoreError = "store_error"
	OutcomeCanceled   = "canceled"
)

type pollerMetrics struct {
	fetches     *prometheus.CounterVec
	duration    prometheus.Histogram
	lastSuccess prometheus.Gauge
}

func newPollerMetrics(reg prometheus.Registerer) *pollerMetrics {
	f := promauto.With(reg)
	return &pollerMetrics{
		fetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linstor_dashboard",
			Name:      "fetches_total",
			Help:      "Metrics fetches from the LINSTOR controller by outcome.",
		}, []string{"outcome"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "linstor_dashboard",
			Name:      "fetch_duration_seconds",
			Help:      "Time spent fetching and deriving one snapshot.",
			Buckets:   prometheus.DefBuckets,
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "linstor_dashboard",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last applied snapshot.",
		}),
	}
}
