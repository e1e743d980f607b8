package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/scorecard/internal/ir"
	"github.com/roach88/scorecard/internal/scoring"
)

// Load returns the stored record for (judge, entryID).
// If nothing is stored, the returned record has empty Scores and Exists() is false.
func (s *Store) Load(ctx context.Context, judge string, entryID int) (ir.ScoreRecord, error) {
	if err := s.validateKey(judge, entryID); err != nil {
		return ir.ScoreRecord{}, err
	}

	var rec ir.ScoreRecord
	err := s.readTx(ctx, func(tx *sql.Tx) error {
		var err error
		rec, err = loadRecord(ctx, tx, judge, entryID)
		return err
	})
	if err != nil {
		return ir.ScoreRecord{}, ir.WrapStorage("load record", err)
	}
	return rec, nil
}

// IsComplete reports whether every catalog criterion is scored for (judge, entryID).
func (s *Store) IsComplete(ctx context.Context, judge string, entryID int) (bool, error) {
	rec, err := s.Load(ctx, judge, entryID)
	if err != nil {
		return false, err
	}
	return scoring.IsComplete(s.catalog, rec.Scores), nil
}

// Progress counts the catalog entries the judge has fully scored.
// Rows for entries or criteria no longer in the catalog are ignored.
func (s *Store) Progress(ctx context.Context, judge string) (ir.Progress, error) {
	if err := validateIdentity(judge); err != nil {
		return ir.Progress{}, err
	}

	byEntry := make(map[int]ir.Scores)
	err := s.readTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT entry_id, criterion_id, score
			FROM criterion_scores
			WHERE judge_identity = ?
			ORDER BY entry_id ASC, criterion_id COLLATE BINARY ASC
		`, judge)
		if err != nil {
			return fmt.Errorf("query scores: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var entryID, score int
			var criterionID string
			if err := rows.Scan(&entryID, &criterionID, &score); err != nil {
				return fmt.Errorf("scan score: %w", err)
			}
			if byEntry[entryID] == nil {
				byEntry[entryID] = ir.Scores{}
			}
			byEntry[entryID][criterionID] = score
		}
		return rows.Err()
	})
	if err != nil {
		return ir.Progress{}, ir.WrapStorage("progress", err)
	}

	p := ir.Progress{Judge: judge, Total: s.catalog.NumEntries()}
	for _, e := range s.catalog.Entries() {
		if scoring.IsComplete(s.catalog, byEntry[e.ID]) {
			p.Completed++
		}
	}
	return p, nil
}

// ExportAll returns every record that has at least one stored score, across
// all judges, ordered by judge identity (binary) then entry id.
//
// All rows are read inside one transaction, so the result reflects a single
// point in time even while other sessions keep saving.
// Returns an empty slice (not nil) if nothing is stored.
func (s *Store) ExportAll(ctx context.Context) ([]ir.ScoreRecord, error) {
	var records []ir.ScoreRecord
	err := s.readTx(ctx, func(tx *sql.Tx) error {
		var err error
		records, err = exportRecords(ctx, tx)
		return err
	})
	if err != nil {
		return nil, ir.WrapStorage("export records", err)
	}
	if records == nil {
		records = []ir.ScoreRecord{}
	}
	return records, nil
}

// Judge returns the stored judge row. The bool is false if the judge is unknown.
func (s *Store) Judge(ctx context.Context, judge string) (ir.Judge, bool, error) {
	var j ir.Judge
	var found bool
	err := s.readTx(ctx, func(tx *sql.Tx) error {
		var err error
		j, err = readJudge(ctx, tx, judge)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return ir.Judge{}, false, ir.WrapStorage("read judge", err)
	}
	return j, found, nil
}

// ListJudges returns all judges ordered by identity (binary).
// Returns an empty slice (not nil) if none exist.
func (s *Store) ListJudges(ctx context.Context) ([]ir.Judge, error) {
	judges := []ir.Judge{}
	err := s.readTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT identity, email, created_at, last_active_at, submitted_at
			FROM judges
			ORDER BY identity COLLATE BINARY ASC
		`)
		if err != nil {
			return fmt.Errorf("query judges: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			j, err := scanJudge(rows)
			if err != nil {
				return err
			}
			judges = append(judges, j)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, ir.WrapStorage("list judges", err)
	}
	return judges, nil
}

// readTx runs fn inside a read-only transaction.
// All queries inside fn must go through tx: the pool has a single connection.
func (s *Store) readTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func loadRecord(ctx context.Context, tx *sql.Tx, judge string, entryID int) (ir.ScoreRecord, error) {
	rec := ir.ScoreRecord{Judge: judge, EntryID: entryID, Scores: ir.Scores{}}

	var createdAt, updatedAt string
	err := tx.QueryRowContext(ctx, `
		SELECT comment, created_at, updated_at
		FROM score_records
		WHERE judge_identity = ? AND entry_id = ?
	`, judge, entryID).Scan(&rec.Comment, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, nil
	}
	if err != nil {
		return ir.ScoreRecord{}, fmt.Errorf("query record: %w", err)
	}
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return ir.ScoreRecord{}, err
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return ir.ScoreRecord{}, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT criterion_id, score
		FROM criterion_scores
		WHERE judge_identity = ? AND entry_id = ?
		ORDER BY criterion_id COLLATE BINARY ASC
	`, judge, entryID)
	if err != nil {
		return ir.ScoreRecord{}, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var score int
		if err := rows.Scan(&id, &score); err != nil {
			return ir.ScoreRecord{}, fmt.Errorf("scan score: %w", err)
		}
		rec.Scores[id] = score
	}
	if err := rows.Err(); err != nil {
		return ir.ScoreRecord{}, fmt.Errorf("iterate scores: %w", err)
	}
	return rec, nil
}

type recordKey struct {
	judge   string
	entryID int
}

func exportRecords(ctx context.Context, tx *sql.Tx) ([]ir.ScoreRecord, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT r.judge_identity, r.entry_id, r.comment, r.created_at, r.updated_at
		FROM score_records r
		WHERE EXISTS (
			SELECT 1 FROM criterion_scores c
			WHERE c.judge_identity = r.judge_identity AND c.entry_id = r.entry_id
		)
		ORDER BY r.judge_identity COLLATE BINARY ASC, r.entry_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	var records []ir.ScoreRecord
	index := make(map[recordKey]int)
	for rows.Next() {
		var rec ir.ScoreRecord
		var createdAt, updatedAt string
		if err := rows.Scan(&rec.Judge, &rec.EntryID, &rec.Comment, &createdAt, &updatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if rec.CreatedAt, err = parseTime(createdAt); err != nil {
			rows.Close()
			return nil, err
		}
		if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		rec.Scores = ir.Scores{}
		index[recordKey{rec.Judge, rec.EntryID}] = len(records)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	rows.Close()

	scoreRows, err := tx.QueryContext(ctx, `
		SELECT judge_identity, entry_id, criterion_id, score
		FROM criterion_scores
		ORDER BY judge_identity COLLATE BINARY ASC, entry_id ASC, criterion_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer scoreRows.Close()

	for scoreRows.Next() {
		var key recordKey
		var id string
		var score int
		if err := scoreRows.Scan(&key.judge, &key.entryID, &id, &score); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		if i, ok := index[key]; ok {
			records[i].Scores[id] = score
		}
	}
	if err := scoreRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}
	return records, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func readJudge(ctx context.Context, tx *sql.Tx, judge string) (ir.Judge, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT identity, email, created_at, last_active_at, submitted_at
		FROM judges
		WHERE identity = ?
	`, judge)
	return scanJudge(row)
}

func scanJudge(row rowScanner) (ir.Judge, error) {
	var j ir.Judge
	var createdAt, lastActive string
	var submitted sql.NullString
	if err := row.Scan(&j.Identity, &j.Email, &createdAt, &lastActive, &submitted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.Judge{}, err
		}
		return ir.Judge{}, fmt.Errorf("scan judge: %w", err)
	}

	var err error
	if j.CreatedAt, err = parseTime(createdAt); err != nil {
		return ir.Judge{}, err
	}
	if j.LastActiveAt, err = parseTime(lastActive); err != nil {
		return ir.Judge{}, err
	}
	if j.SubmittedAt, err = parseNullTime(submitted); err != nil {
		return ir.Judge{}, err
	}
	return j, nil
}
