// Package metrics exposes the chart service's Prometheus instruments.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder records chart service metrics. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	gatherer prometheus.Gatherer

	analyses      *prometheus.CounterVec
	pointsTotal   *prometheus.CounterVec
	signalsTotal  *prometheus.CounterVec
	latestSignal  *prometheus.GaugeVec
	cacheRequests *prometheus.CounterVec
	notifications *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New creates a recorder on a fresh registry that also carries the Go and
// process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry creates a recorder registering on reg and serving from gatherer.
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		gatherer: gatherer,
		analyses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xmrchart_analyses_total",
				Help: "Total number of analyses served",
			},
			[]string{"origin", "cached"},
		),
		pointsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xmrchart_points_analyzed_total",
				Help: "Total number of observations analysed",
			},
			[]string{"origin"},
		),
		signalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xmrchart_signals_total",
				Help: "Total number of signals detected, by rule",
			},
			[]string{"signal"},
		),
		latestSignal: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "xmrchart_latest_point_signal",
				Help: "1 when the latest point of a metric carries a signal, else 0",
			},
			[]string{"metric"},
		),
		cacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xmrchart_cache_requests_total",
				Help: "Analysis cache lookups by result",
			},
			[]string{"result"},
		),
		notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xmrchart_notifications_total",
				Help: "Signal notifications by outcome",
			},
			[]string{"outcome"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xmrchart_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "xmrchart_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

// RecordAnalysis records one served analysis.
func (r *Recorder) RecordAnalysis(origin string, points int, cached bool) {
	if r == nil {
		return
	}
	cachedLabel := "false"
	if cached {
		cachedLabel = "true"
	}
	r.analyses.WithLabelValues(origin, cachedLabel).Inc()
	r.pointsTotal.WithLabelValues(origin).Add(float64(points))
}

// RecordSignals adds per-rule signal counts.
func (r *Recorder) RecordSignals(counts map[string]int) {
	if r == nil {
		return
	}
	for signal, n := range counts {
		r.signalsTotal.WithLabelValues(signal).Add(float64(n))
	}
}

// RecordLatestSignal records whether a metric's latest point is signalled.
func (r *Recorder) RecordLatestSignal(metric string, signalled bool) {
	if r == nil || metric == "" {
		return
	}
	v := 0.0
	if signalled {
		v = 1
	}
	r.latestSignal.WithLabelValues(metric).Set(v)
}

// RecordCache records a cache lookup: hit, miss or error.
func (r *Recorder) RecordCache(result string) {
	if r == nil {
		return
	}
	r.cacheRequests.WithLabelValues(result).Inc()
}

// RecordNotification records a notification outcome: sent, skipped or failed.
func (r *Recorder) RecordNotification(outcome string) {
	if r == nil {
		return
	}
	r.notifications.WithLabelValues(outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	if r == nil {
		return
	}
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	if r == nil {
		return
	}
	r.latency.WithLabelValues(op).Observe(seconds)
}
