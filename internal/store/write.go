package store

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/roach88/scorecard/internal/identity"
	"github.com/roach88/scorecard/internal/ir"
	"github.com/roach88/scorecard/internal/scoring"
)

// Upsert atomically replaces the stored record for (judge, entryID).
//
// The judge row is created on first write and its last_active_at bumped on
// every write. The record keeps its original created_at. The criterion rows
// are replaced wholesale: a criterion absent from scores is removed.
//
// Validation runs before any write, so a rejected call leaves the previously
// stored record untouched.
func (s *Store) Upsert(ctx context.Context, judge string, entryID int, scores ir.Scores, comment string) error {
	if err := s.validateKey(judge, entryID); err != nil {
		return err
	}
	if err := scoring.Validate(s.catalog, scores); err != nil {
		return ir.Locate(err, judge, entryID)
	}

	now := formatTime(s.clock.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ir.WrapStorage("upsert: begin tx", err)
	}
	defer tx.Rollback()

	if err := touchJudge(ctx, tx, judge, now); err != nil {
		return ir.WrapStorage("upsert judge", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO score_records (judge_identity, entry_id, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(judge_identity, entry_id) DO UPDATE SET
			comment = excluded.comment,
			updated_at = excluded.updated_at
	`, judge, entryID, comment, now, now)
	if err != nil {
		return ir.WrapStorage("upsert record", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM criterion_scores WHERE judge_identity = ? AND entry_id = ?
	`, judge, entryID)
	if err != nil {
		return ir.WrapStorage("clear scores", err)
	}

	if len(scores) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO criterion_scores (judge_identity, entry_id, criterion_id, score)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return ir.WrapStorage("prepare score insert", err)
		}
		defer stmt.Close()

		for _, id := range scores.SortedKeys() {
			if _, err := stmt.ExecContext(ctx, judge, entryID, id, scores[id]); err != nil {
				return ir.WrapStorage("insert score", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return ir.WrapStorage("upsert: commit", err)
	}
	return nil
}

// RegisterJudge records a judge session start. Creates the judge row if
// needed and bumps last_active_at. A non-empty email replaces the stored one.
func (s *Store) RegisterJudge(ctx context.Context, judge, email string) (ir.Judge, error) {
	if err := validateIdentity(judge); err != nil {
		return ir.Judge{}, err
	}

	now := formatTime(s.clock.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ir.Judge{}, ir.WrapStorage("register judge: begin tx", err)
	}
	defer tx.Rollback()

	if err := touchJudge(ctx, tx, judge, now); err != nil {
		return ir.Judge{}, ir.WrapStorage("register judge", err)
	}
	if email != "" {
		_, err := tx.ExecContext(ctx, `UPDATE judges SET email = ? WHERE identity = ?`, email, judge)
		if err != nil {
			return ir.Judge{}, ir.WrapStorage("register judge: email", err)
		}
	}

	j, err := readJudge(ctx, tx, judge)
	if err != nil {
		return ir.Judge{}, ir.WrapStorage("register judge: read back", err)
	}

	if err := tx.Commit(); err != nil {
		return ir.Judge{}, ir.WrapStorage("register judge: commit", err)
	}
	return j, nil
}

// MarkSubmitted stamps the judge's final submission time. The judge must
// already exist. Submitting twice moves the timestamp forward.
func (s *Store) MarkSubmitted(ctx context.Context, judge string) (ir.Judge, error) {
	if err := validateIdentity(judge); err != nil {
		return ir.Judge{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ir.Judge{}, ir.WrapStorage("mark submitted: begin tx", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM judges WHERE identity = ?)`, judge).Scan(&exists); err != nil {
		return ir.Judge{}, ir.WrapStorage("mark submitted: lookup", err)
	}
	if !exists {
		return ir.Judge{}, ir.NewInvalidIdentity(judge, "judge has no session")
	}

	// Rejected calls return before the clock is read.
	now := formatTime(s.clock.Now())
	if _, err := tx.ExecContext(ctx, `
		UPDATE judges SET submitted_at = ?, last_active_at = ? WHERE identity = ?
	`, now, now, judge); err != nil {
		return ir.Judge{}, ir.WrapStorage("mark submitted", err)
	}

	j, err := readJudge(ctx, tx, judge)
	if err != nil {
		return ir.Judge{}, ir.WrapStorage("mark submitted: read back", err)
	}

	if err := tx.Commit(); err != nil {
		return ir.Judge{}, ir.WrapStorage("mark submitted: commit", err)
	}
	return j, nil
}

// touchJudge inserts the judge row or bumps last_active_at.
func touchJudge(ctx context.Context, tx *sql.Tx, judge, now string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO judges (identity, email, created_at, last_active_at)
		VALUES (?, '', ?, ?)
		ON CONFLICT(identity) DO UPDATE SET last_active_at = excluded.last_active_at
	`, judge, now, now)
	return err
}

// validateKey checks a (judge, entry) key against the identity rules and catalog.
func (s *Store) validateKey(judge string, entryID int) error {
	if err := validateIdentity(judge); err != nil {
		return err
	}
	if !s.catalog.HasEntry(entryID) {
		return ir.NewUnknownEntry(judge, entryID)
	}
	return nil
}

// validateIdentity requires an identity already in canonical form.
// Accepting raw names here would split one judge's records across spellings.
func validateIdentity(judge string) error {
	canonical, err := identity.Normalize(judge)
	if err != nil {
		return err
	}
	if canonical != judge {
		return ir.NewInvalidIdentity(judge, "canonical form is "+strconv.Quote(canonical))
	}
	return nil
}
