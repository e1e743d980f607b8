// Package snapshot takes point-in-time copies of the results table and hands
// them to a Sink.
//
// A snapshot is the export table plus an id, a timestamp and a content digest.
// The Scheduler takes one per interval and skips runs whose digest matches the
// last snapshot it stored. Sink failures are logged and counted, never retried
// by the scheduler; the next interval simply takes a fresh snapshot.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/scorecard/internal/export"
	"github.com/roach88/scorecard/internal/ir"
)

// Source supplies the records to snapshot. *store.Store satisfies it.
type Source interface {
	ExportAll(ctx context.Context) ([]ir.ScoreRecord, error)
}

// Clock supplies the snapshot timestamp.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Snapshot is one point-in-time copy of the results.
type Snapshot struct {
	ID      string
	TakenAt time.Time
	Digest  string // ir.SnapshotDigest of the exported records
	Table   export.Table
}

// Take reads every record from src in one consistent read and projects it
// into a snapshot. It does not store anything.
func Take(ctx context.Context, src Source, cat *ir.Catalog, clock Clock, ids IDGenerator) (Snapshot, error) {
	records, err := src.ExportAll(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("take snapshot: %w", err)
	}

	digest, err := ir.SnapshotDigest(records)
	if err != nil {
		return Snapshot{}, fmt.Errorf("take snapshot: %w", err)
	}

	return Snapshot{
		ID:      ids.Generate(),
		TakenAt: clock.Now().UTC(),
		Digest:  digest,
		Table:   export.Project(cat, records),
	}, nil
}
