package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector groups the counters published by the bridge.
type Collector struct {
	Updates       *prometheus.CounterVec
	FetchFailures *prometheus.CounterVec
	CastFailures  *prometheus.CounterVec
	Throttled     *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
}

// New registers the collector on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		Updates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arso_entity_updates_total",
				Help: "Entity update cycles by kind and outcome (ok, no_data, fetch_error)",
			},
			[]string{"kind", "outcome"},
		),
		FetchFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arso_fetch_failures_total",
				Help: "Failed calls to the ARSO API by endpoint",
			},
			[]string{"endpoint"},
		),
		CastFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arso_field_cast_failures_total",
				Help: "Time slice fields that were present but could not be coerced",
			},
			[]string{"field"},
		),
		Throttled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arso_entity_updates_throttled_total",
				Help: "Update requests skipped because the entity was refreshed recently",
			},
			[]string{"kind"},
		),
		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arso_fetch_duration_seconds",
				Help:    "Duration of ARSO API calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
	}
}

// RecordUpdate counts one finished update cycle.
func (c *Collector) RecordUpdate(kind, outcome string) {
	if c == nil {
		return
	}
	c.Updates.WithLabelValues(kind, outcome).Inc()
}

func (c *Collector) RecordFetchFailure(endpoint string) {
	if c == nil {
		return
	}
	c.FetchFailures.WithLabelValues(endpoint).Inc()
}

func (c *Collector) RecordCastFailure(field string) {
	if c == nil {
		return
	}
	c.CastFailures.WithLabelValues(field).Inc()
}

func (c *Collector) RecordThrottled(kind string) {
	if c == nil {
		return
	}
	c.Throttled.WithLabelValues(kind).Inc()
}

func (c *Collector) ObserveFetch(endpoint string, seconds float64) {
	if c == nil {
		return
	}
	c.FetchDuration.WithLabelValues(endpoint).Observe(seconds)
}
