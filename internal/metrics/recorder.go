// Package metrics records Prometheus metrics for judging sessions and snapshots.
//
// Metrics live on a private registry, not the global default, so tests and
// multiple engines never collide. There is no HTTP endpoint; the registry is
// written in text exposition format with WriteTextfile, for node_exporter's
// textfile collector or plain inspection.
//
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/scorecard/internal/ir"
)

// Outcome labels for operation counters.
const (
	OutcomeOK         = "ok"
	OutcomeValidation = "validation"
	OutcomeStorage    = "storage"
	OutcomeError      = "error"
)

// Snapshot result labels.
const (
	SnapshotWritten   = "written"
	SnapshotUnchanged = "unchanged"
	SnapshotFailed    = "failed"
)

// Recorder holds all Prometheus metrics for one process.
type Recorder struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	operations       *prometheus.CounterVec
	operationLatency *prometheus.HistogramVec
	submissions      prometheus.Counter

	snapshots         *prometheus.CounterVec
	snapshotRecords   prometheus.Gauge
	snapshotLastUnix  prometheus.Gauge
	snapshotLatencyMs prometheus.Histogram
}

// New creates a Recorder with its own registry unless one is supplied.
func New(opts ...Option) *Recorder {
	r := &Recorder{
		namespace: "scorecard",
		buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = prometheus.NewRegistry()
	}

	auto := promauto.With(r.registry)

	r.operations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "engine",
		Name:      "operations_total",
		Help:      "Engine operations by name and outcome",
	}, []string{"operation", "outcome"})

	r.operationLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Subsystem: "engine",
		Name:      "operation_duration_seconds",
		Help:      "Engine operation latency in seconds",
		Buckets:   r.buckets,
	}, []string{"operation"})

	r.submissions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "engine",
		Name:      "submissions_total",
		Help:      "Accepted final submissions",
	})

	r.snapshots = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "snapshot",
		Name:      "runs_total",
		Help:      "Snapshot attempts by result",
	}, []string{"result"})

	r.snapshotRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Subsystem: "snapshot",
		Name:      "records",
		Help:      "Rows in the most recent written snapshot",
	})

	r.snapshotLastUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Subsystem: "snapshot",
		Name:      "last_success_unixtime",
		Help:      "Unix time of the most recent written snapshot",
	})

	r.snapshotLatencyMs = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Subsystem: "snapshot",
		Name:      "duration_milliseconds",
		Help:      "Time to take and store one snapshot in milliseconds",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
	})

	return r
}

// Registry returns the registry the metrics are registered on.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveOperation counts one engine operation and records its latency.
// The outcome label is derived from err's ir error code.
func (r *Recorder) ObserveOperation(op string, elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	r.operations.WithLabelValues(op, Outcome(err)).Inc()
	r.operationLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Submitted counts an accepted final submission.
func (r *Recorder) Submitted() {
	if r == nil {
		return
	}
	r.submissions.Inc()
}

// SnapshotWritten records a snapshot that reached its sink.
func (r *Recorder) SnapshotWritten(rows int, at time.Time, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.snapshots.WithLabelValues(SnapshotWritten).Inc()
	r.snapshotRecords.Set(float64(rows))
	r.snapshotLastUnix.Set(float64(at.Unix()))
	r.snapshotLatencyMs.Observe(float64(elapsed.Milliseconds()))
}

// SnapshotUnchanged records a run skipped because nothing changed.
func (r *Recorder) SnapshotUnchanged() {
	if r == nil {
		return
	}
	r.snapshots.WithLabelValues(SnapshotUnchanged).Inc()
}

// SnapshotFailed records a run that could not be taken or stored.
func (r *Recorder) SnapshotFailed() {
	if r == nil {
		return
	}
	r.snapshots.WithLabelValues(SnapshotFailed).Inc()
}

// WriteTextfile writes all metrics to path in Prometheus text format.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Outcome maps an operation error to its outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case ir.IsValidation(err):
		return OutcomeValidation
	case ir.IsStorage(err):
		return OutcomeStorage
	default:
		return OutcomeError
	}
}
