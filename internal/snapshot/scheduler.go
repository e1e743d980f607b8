package snapshot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/scorecard/internal/ir"
	"github.com/roach88/scorecard/internal/metrics"
)

// DefaultInterval is the snapshot interval when none is configured.
const DefaultInterval = 10 * time.Minute

// Scheduler takes a snapshot every interval and stores it in a Sink.
type Scheduler struct {
	src      Source
	catalog  *ir.Catalog
	sink     Sink
	interval time.Duration
	clock    Clock
	ids      IDGenerator
	logger   *slog.Logger
	metrics  *metrics.Recorder

	// metricsFile, when set, receives the registry after every run.
	metricsFile string

	mu         sync.Mutex
	lastDigest string
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithInterval sets the time between snapshots.
func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithClock sets the clock used for snapshot timestamps.
func WithClock(c Clock) SchedulerOption {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithIDGenerator sets the snapshot id generator.
func WithIDGenerator(g IDGenerator) SchedulerOption {
	return func(s *Scheduler) {
		if g != nil {
			s.ids = g
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) SchedulerOption {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// WithMetricsFile writes the metrics registry to path after every run.
func WithMetricsFile(path string) SchedulerOption {
	return func(s *Scheduler) {
		s.metricsFile = path
	}
}

// NewScheduler creates a scheduler. Call Run to start it.
func NewScheduler(src Source, cat *ir.Catalog, sink Sink, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		src:      src,
		catalog:  cat,
		sink:     sink,
		interval: DefaultInterval,
		clock:    systemClock{},
		ids:      UUIDv7Generator{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the configured interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Run takes a snapshot immediately and then once per interval until ctx is
// cancelled. Failed runs are logged and counted; Run itself only returns
// when ctx is done, with nil.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("snapshot scheduler starting", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.RunOnce(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info("snapshot scheduler stopping: context cancelled")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce takes one snapshot and stores it unless the store is unchanged
// since the last stored snapshot. Reports whether a snapshot was written.
// Errors are logged, counted and returned; nothing is retried.
func (s *Scheduler) RunOnce(ctx context.Context) (Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.writeMetrics()

	start := time.Now()

	snap, err := Take(ctx, s.src, s.catalog, s.clock, s.ids)
	if err != nil {
		s.metrics.SnapshotFailed()
		s.logger.Error("snapshot failed", "stage", "take", "error", err)
		return Snapshot{}, false, err
	}

	if snap.Digest == s.lastDigest {
		s.metrics.SnapshotUnchanged()
		s.logger.Debug("snapshot skipped: unchanged", "digest", snap.Digest)
		return snap, false, nil
	}

	if err := s.sink.Put(ctx, snap); err != nil {
		s.metrics.SnapshotFailed()
		s.logger.Error("snapshot failed", "stage", "put", "id", snap.ID, "error", err)
		return snap, false, err
	}

	s.lastDigest = snap.Digest
	s.metrics.SnapshotWritten(len(snap.Table.Rows), snap.TakenAt, time.Since(start))
	s.logger.Info("snapshot written",
		"id", snap.ID,
		"rows", len(snap.Table.Rows),
		"digest", snap.Digest,
	)
	return snap, true, nil
}

func (s *Scheduler) writeMetrics() {
	if s.metricsFile == "" {
		return
	}
	if err := s.metrics.WriteTextfile(s.metricsFile); err != nil {
		s.logger.Warn("metrics textfile not written", "path", s.metricsFile, "error", err)
	}
}
