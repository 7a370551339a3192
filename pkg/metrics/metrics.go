package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the pipeline collectors. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry      *prometheus.Registry
	sourceFetches *prometheus.CounterVec
	fallbacks     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	rows          *prometheus.GaugeVec
	runs          *prometheus.CounterVec
}

// New registers the pipeline collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		sourceFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pitviper",
			Subsystem: "source",
			Name:      "fetch_total",
			Help:      "Source fetches by asset type and the source that served them",
		}, []string{"asset_type", "source"}),
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pitviper",
			Subsystem: "source",
			Name:      "fallback_total",
			Help:      "Fetches that were replaced by offline data",
		}, []string{"asset_type"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pitviper",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		rows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pitviper",
			Subsystem: "pipeline",
			Name:      "rows",
			Help:      "Rows produced by the last run of each stage",
		}, []string{"stage"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pitviper",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Completed pipeline runs by status",
		}, []string{"status"}),
	}
}

// SourceFetched records one adapter invocation.
func (r *Recorder) SourceFetched(assetType, source string, usedFallback bool) {
	if r == nil {
		return
	}
	r.sourceFetches.WithLabelValues(assetType, source).Inc()
	if usedFallback {
		r.fallbacks.WithLabelValues(assetType).Inc()
	}
}

// ObserveStage records a stage duration and its output row count.
func (r *Recorder) ObserveStage(stage string, started time.Time, rows int) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
	r.rows.WithLabelValues(stage).Set(float64(rows))
}

// RunFinished counts a run as "success" or "failed".
func (r *Recorder) RunFinished(status string) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(status).Inc()
}

// Registry exposes the underlying registry for tests and custom handlers.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
