package engine

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scorecard/internal/ir"
	"github.com/roach88/scorecard/internal/store"
	"github.com/roach88/scorecard/internal/testutil"
)

func openSession(t *testing.T, name string) (*Session, *Engine) {
	t.Helper()
	e, _ := setupTestEngine(t)
	sess, err := e.Open(context.Background(), name, "")
	require.NoError(t, err)
	return sess, e
}

func TestSession_SaveLoadRoundtrip(t *testing.T) {
	sess, _ := openSession(t, "Jane Doe")
	ctx := context.Background()

	require.NoError(t, sess.Save(ctx, 2, testutil.FullScores(5, 3, 1), "solid"))

	rec, err := sess.Load(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, testutil.FullScores(5, 3, 1), rec.Scores)
	assert.Equal(t, "solid", rec.Comment)
}

func TestSession_LoadNeverScored(t *testing.T) {
	sess, _ := openSession(t, "Jane Doe")

	rec, err := sess.Load(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, rec.Exists())
	assert.Empty(t, rec.Scores)
}

func TestSession_SetScoreMerges(t *testing.T) {
	sess, _ := openSession(t, "Jane Doe")
	ctx := context.Background()

	_, err := sess.SetComment(ctx, 1, "draft")
	require.NoError(t, err)
	_, err = sess.SetScore(ctx, 1, "impact", 5)
	require.NoError(t, err)
	rec, err := sess.SetScore(ctx, 1, "craft", 2)
	require.NoError(t, err)

	assert.Equal(t, ir.Scores{"impact": 5, "craft": 2}, rec.Scores)
	assert.Equal(t, "draft", rec.Comment, "score edits keep the comment")

	rec, err = sess.SetScore(ctx, 1, "impact", 3)
	require.NoError(t, err)
	assert.Equal(t, ir.Scores{"impact": 3, "craft": 2}, rec.Scores, "re-rating overwrites one criterion")
}

func TestSession_SetCommentKeepsScores(t *testing.T) {
	sess, _ := openSession(t, "Jane Doe")
	ctx := context.Background()

	require.NoError(t, sess.Save(ctx, 1, testutil.FullScores(4, 4, 4), ""))
	rec, err := sess.SetComment(ctx, 1, "changed my mind about nothing")
	require.NoError(t, err)
	assert.Equal(t, testutil.FullScores(4, 4, 4), rec.Scores)
	assert.Equal(t, "changed my mind about nothing", rec.Comment)
}

func TestSession_SetScoreRejectsInvalid(t *testing.T) {
	tests := []struct {
		name      string
		criterion string
		score     int
	}{
		{"too high", "impact", 6},
		{"zero", "impact", 0},
		{"unknown criterion", "vibes", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, _ := openSession(t, "Jane Doe")
			ctx := context.Background()
			require.NoError(t, sess.Save(ctx, 1, ir.Scores{"impact": 4}, "keep"))

			_, err := sess.SetScore(ctx, 1, tt.criterion, tt.score)
			require.Error(t, err)
			assert.Equal(t, ir.ErrCodeInvalidScore, ir.CodeOf(err))

			var e *ir.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, "Jane Doe", e.Judge)
			assert.Equal(t, 1, e.EntryID)

			rec, err := sess.Load(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, ir.Scores{"impact": 4}, rec.Scores)
			assert.Equal(t, "keep", rec.Comment)
		})
	}
}

func TestSession_UnknownEntry(t *testing.T) {
	sess, _ := openSession(t, "Jane Doe")
	ctx := context.Background()

	_, err := sess.SetScore(ctx, 99, "impact", 3)
	assert.Equal(t, ir.ErrCodeUnknownEntry, ir.CodeOf(err))

	err = sess.Save(ctx, 99, testutil.FullScores(3, 3, 3), "")
	assert.Equal(t, ir.ErrCodeUnknownEntry, ir.CodeOf(err))
}

func TestSession_Card(t *testing.T) {
	sess, _ := openSession(t, "Jane Doe")
	ctx := context.Background()

	require.NoError(t, sess.Save(ctx, 1, ir.Scores{"impact": 4, "demo": 5}, "nice"))

	card, err := sess.Card(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Team Alpha", card.Entry.Name)
	assert.False(t, card.Complete)
	assert.Equal(t, []string{"craft"}, card.Missing)
	assert.InDelta(t, 3.0, card.Weighted, 1e-9) // 4*50 + 5*20 = 300
	require.Len(t, card.Breakdown, 3)
	assert.Equal(t, "Good", card.Breakdown[0].Label)
	assert.False(t, card.Breakdown[1].Scored())

	require.NoError(t, sess.Save(ctx, 1, testutil.FullScores(4, 1, 5), "nice"))
	card, err = sess.Card(ctx, 1)
	require.NoError(t, err)
	assert.True(t, card.Complete)
	assert.Empty(t, card.Missing)
	assert.InDelta(t, 3.3, card.Weighted, 1e-9)
}

func TestSession_CatalogDroppedCriterion(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	old, err := store.Open(path, testutil.SmallCatalog())
	require.NoError(t, err)
	require.NoError(t, old.Upsert(ctx, "Jane Doe", 1, testutil.FullScores(4, 2, 3), "before"))
	require.NoError(t, old.Close())

	// Same database, catalog without "demo".
	cat := ir.NewCatalog(
		[]ir.Entry{{ID: 1, Name: "Team Alpha"}},
		[]ir.Criterion{{ID: "impact", Name: "Impact", Weight: 50}, {ID: "craft", Name: "Craft", Weight: 50}},
	)
	s, err := store.Open(path, cat, store.WithClock(testutil.NewDeterministicClock()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	sess, err := New(s, cat).Open(ctx, "Jane Doe", "")
	require.NoError(t, err)

	card, err := sess.Card(ctx, 1)
	require.NoError(t, err)
	require.Len(t, card.Breakdown, 2)
	assert.True(t, card.Complete)
	assert.InDelta(t, 3.0, card.Weighted, 1e-9)

	rec, err := sess.SetScore(ctx, 1, "craft", 5)
	require.NoError(t, err)
	assert.Equal(t, ir.Scores{"impact": 4, "craft": 5}, rec.Scores)
	assert.Equal(t, "before", rec.Comment)
}

func TestSession_JudgesAreIsolated(t *testing.T) {
	e, _ := setupTestEngine(t)
	ctx := context.Background()

	amy, err := e.Open(ctx, "Amy Adams", "")
	require.NoError(t, err)
	zoe, err := e.Open(ctx, "Zoe Zhang", "")
	require.NoError(t, err)

	require.NoError(t, amy.Save(ctx, 1, testutil.FullScores(5, 5, 5), "amy"))

	rec, err := zoe.Load(ctx, 1)
	require.NoError(t, err)
	assert.False(t, rec.Exists())

	p, err := zoe.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Completed)
}

func TestSession_ProgressAndSubmit(t *testing.T) {
	sess, _ := openSession(t, "Jane Doe")
	ctx := context.Background()

	require.NoError(t, sess.Save(ctx, 1, testutil.FullScores(3, 3, 3), ""))
	require.NoError(t, sess.Save(ctx, 2, testutil.FullScores(3, 3, 3), ""))

	p, err := sess.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, ir.Progress{Judge: "Jane Doe", Completed: 2, Total: 3}, p)

	_, err = sess.Submit(ctx)
	require.Error(t, err)
	assert.Equal(t, ir.ErrCodeIncomplete, ir.CodeOf(err))
	assert.Nil(t, sess.Info().SubmittedAt)

	require.NoError(t, sess.Save(ctx, 3, testutil.FullScores(1, 2, 3), ""))

	info, err := sess.Submit(ctx)
	require.NoError(t, err)
	require.NotNil(t, info.SubmittedAt)
	assert.Equal(t, info, sess.Info())
}

func TestSession_ConcurrentEditsSerialize(t *testing.T) {
	sess, _ := openSession(t, "Jane Doe")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i, id := range []string{"impact", "craft", "demo"} {
		wg.Add(1)
		go func(id string, score int) {
			defer wg.Done()
			_, err := sess.SetScore(ctx, 1, id, score)
			assert.NoError(t, err)
		}(id, i+1)
	}
	wg.Wait()

	// No edit is lost to a concurrent load-merge-save
	rec, err := sess.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, testutil.FullScores(1, 2, 3), rec.Scores)
}
