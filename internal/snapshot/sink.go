package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/scorecard/internal/export"
	"github.com/roach88/scorecard/internal/ir"
)

// Sink stores snapshots somewhere outside the live database.
// Implementations must be safe to call from the scheduler goroutine.
type Sink interface {
	Put(ctx context.Context, snap Snapshot) error
}

// FileSink writes each snapshot to Dir as two files:
//
//	<id>.csv   the results table
//	<id>.json  manifest: id, taken_at, digest, rows, csv file name
//
// Both files are written to a temp name and renamed, so a reader never sees
// a partial file. The manifest is written last.
type FileSink struct {
	Dir string
}

// Put writes the snapshot files.
func (s FileSink) Put(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap.ID == "" {
		return fmt.Errorf("put snapshot: empty id")
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}

	csvName := snap.ID + ".csv"
	if err := export.SaveCSV(filepath.Join(s.Dir, csvName), snap.Table); err != nil {
		return fmt.Errorf("put snapshot %s: %w", snap.ID, err)
	}

	manifest, err := ir.MarshalCanonical(map[string]any{
		"id":       snap.ID,
		"taken_at": snap.TakenAt,
		"digest":   snap.Digest,
		"rows":     len(snap.Table.Rows),
		"csv":      csvName,
	})
	if err != nil {
		return fmt.Errorf("put snapshot %s: manifest: %w", snap.ID, err)
	}
	if err := export.WriteFileAtomic(filepath.Join(s.Dir, snap.ID+".json"), manifest); err != nil {
		return fmt.Errorf("put snapshot %s: %w", snap.ID, err)
	}
	return nil
}
