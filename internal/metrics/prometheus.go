package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder exports metrics through a Prometheus registry.
type PrometheusRecorder struct {
	registry         *prometheus.Registry
	snapshotsWritten *prometheus.CounterVec
	snapshotsFailed  *prometheus.CounterVec
	snapshotDuration *prometheus.HistogramVec
	entitiesCreated  *prometheus.CounterVec
	entitiesUpdated  *prometheus.CounterVec
}

// NewPrometheus registers the muckamuck collectors on a fresh registry.
func NewPrometheus() *PrometheusRecorder {
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		snapshotsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "muckamuck_snapshots_written_total",
			Help: "Snapshots written, by entity kind.",
		}, []string{"kind"}),
		snapshotsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "muckamuck_snapshots_failed_total",
			Help: "Snapshot failures, by entity kind and pipeline stage.",
		}, []string{"kind", "stage"}),
		snapshotDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "muckamuck_snapshot_duration_seconds",
			Help:    "Time spent writing one snapshot.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"kind"}),
		entitiesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "muckamuck_entities_created_total",
			Help: "Entities created, by kind.",
		}, []string{"kind"}),
		entitiesUpdated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "muckamuck_entities_updated_total",
			Help: "Entities updated, by kind.",
		}, []string{"kind"}),
	}

	r.registry.MustRegister(
		r.snapshotsWritten,
		r.snapshotsFailed,
		r.snapshotDuration,
		r.entitiesCreated,
		r.entitiesUpdated,
		prometheus.NewGoCollector(),
	)

	return r
}

// Handler serves the registry in Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// IncSnapshotWritten increments the written counter.
func (r *PrometheusRecorder) IncSnapshotWritten(kind string) {
	r.snapshotsWritten.WithLabelValues(kind).Inc()
}

// IncSnapshotFailed increments the failure counter.
func (r *PrometheusRecorder) IncSnapshotFailed(kind, stage string) {
	r.snapshotsFailed.WithLabelValues(kind, stage).Inc()
}

// ObserveSnapshotDuration records write duration.
func (r *PrometheusRecorder) ObserveSnapshotDuration(kind string, duration time.Duration) {
	r.snapshotDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// IncEntityCreated increments the created counter.
func (r *PrometheusRecorder) IncEntityCreated(kind string) {
	r.entitiesCreated.WithLabelValues(kind).Inc()
}

// IncEntityUpdated increments the updated counter.
func (r *PrometheusRecorder) IncEntityUpdated(kind string) {
	r.entitiesUpdated.WithLabelValues(kind).Inc()
}
