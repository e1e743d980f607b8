package engine

import (
	"context"
	"sync"
	"time"

	"github.com/roach88/scorecard/internal/ir"
	"github.com/roach88/scorecard/internal/scoring"
)

// Session is one judge's view of the store.
// Methods are safe for concurrent use and are serialized.
type Session struct {
	engine *Engine
	judge  string

	mu   sync.Mutex
	info ir.Judge
}

// Card is everything a scoring form shows for one entry.
type Card struct {
	Entry     ir.Entry               `json:"entry"`
	Record    ir.ScoreRecord         `json:"record"`
	Weighted  float64                `json:"weighted_score"`
	Complete  bool                   `json:"complete"`
	Missing   []string               `json:"missing,omitempty"`
	Breakdown []scoring.Contribution `json:"breakdown"`
}

// Judge returns the canonical identity the session is bound to.
func (s *Session) Judge() string {
	return s.judge
}

// Info returns the judge row as of the last registration or submission.
func (s *Session) Info() ir.Judge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

// Load returns the stored record for an entry, or an empty record.
func (s *Session) Load(ctx context.Context, entryID int) (rec ir.ScoreRecord, err error) {
	start := time.Now()
	defer func() { s.engine.observe(OpLoad, s.Judge(), entryID, start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.store.Load(ctx, s.Judge(), entryID)
}

// Card loads an entry's record together with its weighted score,
// completeness and per-criterion breakdown.
func (s *Session) Card(ctx context.Context, entryID int) (Card, error) {
	rec, err := s.Load(ctx, entryID)
	if err != nil {
		return Card{}, err
	}

	cat := s.engine.catalog
	entry, _ := cat.Entry(entryID)
	breakdown, err := scoring.Breakdown(cat, rec.Scores)
	if err != nil {
		return Card{}, err
	}
	return Card{
		Entry:     entry,
		Record:    rec,
		Weighted:  scoring.Total(cat, rec.Scores),
		Complete:  scoring.IsComplete(cat, rec.Scores),
		Missing:   scoring.Missing(cat, rec.Scores),
		Breakdown: breakdown,
	}, nil
}

// Save replaces the stored record for an entry with exactly these scores
// and comment. Invalid input is rejected and the stored record is untouched.
func (s *Session) Save(ctx context.Context, entryID int, scores ir.Scores, comment string) (err error) {
	start := time.Now()
	defer func() { s.engine.observe(OpSave, s.Judge(), entryID, start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.store.Upsert(ctx, s.Judge(), entryID, scores, comment); err != nil {
		return err
	}
	s.engine.logger.Debug("record saved", "judge", s.Judge(), "entry", entryID, "criteria", len(scores))
	return nil
}

// SetScore sets one criterion and saves the merged record.
// Returns the record as stored.
func (s *Session) SetScore(ctx context.Context, entryID int, criterionID string, score int) (rec ir.ScoreRecord, err error) {
	start := time.Now()
	defer func() { s.engine.observe(OpSetScore, s.Judge(), entryID, start, err) }()

	if err := scoring.Validate(s.engine.catalog, ir.Scores{criterionID: score}); err != nil {
		return ir.ScoreRecord{}, ir.Locate(err, s.Judge(), entryID)
	}
	return s.merge(ctx, entryID, func(r *ir.ScoreRecord) {
		r.Scores[criterionID] = score
	})
}

// SetComment sets the comment and saves the merged record.
// Returns the record as stored.
func (s *Session) SetComment(ctx context.Context, entryID int, comment string) (rec ir.ScoreRecord, err error) {
	start := time.Now()
	defer func() { s.engine.observe(OpSetComment, s.Judge(), entryID, start, err) }()

	return s.merge(ctx, entryID, func(r *ir.ScoreRecord) {
		r.Comment = comment
	})
}

// merge loads, applies fn and saves under the session lock.
func (s *Session) merge(ctx context.Context, entryID int, fn func(*ir.ScoreRecord)) (ir.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.engine.store
	rec, err := st.Load(ctx, s.Judge(), entryID)
	if err != nil {
		return ir.ScoreRecord{}, err
	}
	rec.Scores = scoring.Known(s.engine.catalog, rec.Scores)
	fn(&rec)

	if err := st.Upsert(ctx, s.Judge(), entryID, rec.Scores, rec.Comment); err != nil {
		return ir.ScoreRecord{}, err
	}
	return st.Load(ctx, s.Judge(), entryID)
}

// Progress returns how many entries the judge has fully scored.
func (s *Session) Progress(ctx context.Context) (p ir.Progress, err error) {
	start := time.Now()
	defer func() { s.engine.observe(OpProgress, s.Judge(), 0, start, err) }()

	return s.engine.store.Progress(ctx, s.Judge())
}

// Submit records the judge's final submission. Every catalog entry must be
// fully scored; otherwise it fails with ir.ErrCodeIncomplete and nothing is
// written. Records stay editable after submission; submitting again moves
// the timestamp.
func (s *Session) Submit(ctx context.Context) (info ir.Judge, err error) {
	start := time.Now()
	defer func() { s.engine.observe(OpSubmit, s.Judge(), 0, start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.engine.store.Progress(ctx, s.Judge())
	if err != nil {
		return ir.Judge{}, err
	}
	if !p.Done() {
		return ir.Judge{}, ir.NewIncomplete(p)
	}

	info, err = s.engine.store.MarkSubmitted(ctx, s.Judge())
	if err != nil {
		return ir.Judge{}, err
	}
	s.info = info
	s.engine.metrics.Submitted()
	s.engine.logger.Info("evaluation submitted", "judge", s.Judge(), "entries", p.Total)
	return info, nil
}
