// Package metrics provides prometheus instrumentation for the computation
// pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the pipeline metrics.
type Collector struct {
	SessionsTotal        *prometheus.CounterVec
	ProviderCallsTotal   *prometheus.CounterVec
	ProviderCallDuration *prometheus.HistogramVec
	GeocodeCacheHits     prometheus.Counter
	GeocodeCacheMisses   prometheus.Counter
}

// NewCollector registers the pipeline metrics with reg. Tests pass a fresh
// prometheus.NewRegistry so registration never collides.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		SessionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "horoscope",
				Name:      "sessions_total",
				Help:      "Computation sessions reaching a terminal status",
			},
			[]string{"status"},
		),
		ProviderCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "horoscope",
				Name:      "provider_calls_total",
				Help:      "External provider calls by stage and outcome",
			},
			[]string{"stage", "outcome"},
		),
		ProviderCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "horoscope",
				Name:      "provider_call_duration_seconds",
				Help:      "External provider call duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage"},
		),
		GeocodeCacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "horoscope",
				Name:      "geocode_cache_hits_total",
				Help:      "Geocoding lookups served from the cache",
			},
		),
		GeocodeCacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "horoscope",
				Name:      "geocode_cache_misses_total",
				Help:      "Geocoding lookups that went to a provider",
			},
		),
	}
}

// SessionFinished counts one terminal session.
func (c *Collector) SessionFinished(status string) {
	c.SessionsTotal.WithLabelValues(status).Inc()
}

// ObserveProviderCall records one provider call.
func (c *Collector) ObserveProviderCall(stage string, ok bool, d time.Duration) {
	outcome := "error"
	if ok {
		outcome = "ok"
	}
	c.ProviderCallsTotal.WithLabelValues(stage, outcome).Inc()
	c.ProviderCallDuration.WithLabelValues(stage).Observe(d.Seconds())
}
