package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/scorecard/internal/export"
	"github.com/roach88/scorecard/internal/identity"
	"github.com/roach88/scorecard/internal/ir"
	"github.com/roach88/scorecard/internal/metrics"
	"github.com/roach88/scorecard/internal/store"
)

// Operation names used for metrics and logs.
const (
	OpOpen       = "open"
	OpLookup     = "lookup"
	OpLoad       = "load"
	OpSave       = "save"
	OpSetScore   = "set_score"
	OpSetComment = "set_comment"
	OpProgress   = "progress"
	OpSubmit     = "submit"
	OpExport     = "export"
)

// Engine opens judge sessions against one store and catalog.
// Safe for concurrent use.
type Engine struct {
	store   *store.Store
	catalog *ir.Catalog
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder. A nil recorder records nothing.
func WithMetrics(m *metrics.Recorder) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an Engine over the given store and catalog.
func New(s *store.Store, cat *ir.Catalog, opts ...Option) *Engine {
	e := &Engine{
		store:   s,
		catalog: cat,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the catalog sessions score against.
func (e *Engine) Catalog() *ir.Catalog {
	return e.catalog
}

// Open starts a session for a judge. The raw name is normalized first;
// a name that does not normalize fails with ir.ErrCodeInvalidIdentity and no
// session is created. A non-empty email is stored with the judge.
//
// Opening the same judge again resumes their stored records.
func (e *Engine) Open(ctx context.Context, rawName, email string) (sess *Session, err error) {
	start := time.Now()
	defer func() { e.observe(OpOpen, "", 0, start, err) }()

	judge, err := identity.Normalize(rawName)
	if err != nil {
		return nil, err
	}

	info, err := e.store.RegisterJudge(ctx, judge, email)
	if err != nil {
		return nil, err
	}

	e.logger.Info("session opened", "judge", judge)
	return &Session{engine: e, judge: judge, info: info}, nil
}

// Lookup returns a session for reading a judge's records without
// registering the judge. Unknown judges get a session whose Info carries
// only the identity; their records read as empty.
func (e *Engine) Lookup(ctx context.Context, rawName string) (sess *Session, err error) {
	start := time.Now()
	defer func() { e.observe(OpLookup, "", 0, start, err) }()

	judge, err := identity.Normalize(rawName)
	if err != nil {
		return nil, err
	}

	info, found, err := e.store.Judge(ctx, judge)
	if err != nil {
		return nil, err
	}
	if !found {
		info = ir.Judge{Identity: judge}
	}
	return &Session{engine: e, judge: judge, info: info}, nil
}

// Export returns the current results table across all judges.
// An empty table is not an error; check Table.Empty.
func (e *Engine) Export(ctx context.Context) (table export.Table, err error) {
	start := time.Now()
	defer func() { e.observe(OpExport, "", 0, start, err) }()

	records, err := e.store.ExportAll(ctx)
	if err != nil {
		return export.Table{}, err
	}
	return export.Project(e.catalog, records), nil
}

// Judges lists every judge that has opened a session.
func (e *Engine) Judges(ctx context.Context) ([]ir.Judge, error) {
	return e.store.ListJudges(ctx)
}

// observe records metrics for one operation and logs failures.
func (e *Engine) observe(op, judge string, entryID int, start time.Time, err error) {
	e.metrics.ObserveOperation(op, time.Since(start), err)
	if err == nil {
		return
	}

	attrs := []any{"op", op, "outcome", metrics.Outcome(err), "error", err}
	if judge != "" {
		attrs = append(attrs, "judge", judge)
	}
	if entryID != 0 {
		attrs = append(attrs, "entry", entryID)
	}
	if ir.IsStorage(err) {
		e.logger.Error("operation failed", attrs...)
		return
	}
	e.logger.Warn("operation rejected", attrs...)
}
