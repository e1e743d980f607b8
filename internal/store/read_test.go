package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scorecard/internal/ir"
)

func TestLoad_Absent(t *testing.T) {
	s, _ := createTestStore(t)

	rec, err := s.Load(context.Background(), "Jane Doe", 2)
	require.NoError(t, err)

	assert.False(t, rec.Exists())
	assert.NotNil(t, rec.Scores)
	assert.Empty(t, rec.Scores)
	assert.Equal(t, "", rec.Comment)
}

func TestLoad_UnknownEntry(t *testing.T) {
	s, _ := createTestStore(t)

	_, err := s.Load(context.Background(), "Jane Doe", 42)
	assert.Equal(t, ir.ErrCodeUnknownEntry, ir.CodeOf(err))
}

func TestLoad_JudgesAreIsolated(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "Jane Doe", 1, scores(5, 5, 5), "jane"))

	rec, err := s.Load(ctx, "John Roe", 1)
	require.NoError(t, err)
	assert.False(t, rec.Exists())
}

func TestIsComplete(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	done, err := s.IsComplete(ctx, "Jane Doe", 1)
	require.NoError(t, err)
	assert.False(t, done, "absent record is incomplete")

	require.NoError(t, s.Upsert(ctx, "Jane Doe", 1, ir.Scores{"impact": 5, "craft": 4}, ""))
	done, err = s.IsComplete(ctx, "Jane Doe", 1)
	require.NoError(t, err)
	assert.False(t, done, "partial record is incomplete")

	require.NoError(t, s.Upsert(ctx, "Jane Doe", 1, scores(5, 4, 3), ""))
	done, err = s.IsComplete(ctx, "Jane Doe", 1)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestProgress(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	p, err := s.Progress(ctx, "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, ir.Progress{Judge: "Jane Doe", Completed: 0, Total: 3}, p)

	require.NoError(t, s.Upsert(ctx, "Jane Doe", 1, scores(5, 4, 3), ""))
	require.NoError(t, s.Upsert(ctx, "Jane Doe", 2, ir.Scores{"demo": 1}, ""))
	require.NoError(t, s.Upsert(ctx, "Jane Doe", 3, scores(1, 1, 1), ""))

	p, err = s.Progress(ctx, "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Completed)
	assert.Equal(t, 3, p.Total)
	assert.False(t, p.Done())
}

func TestProgress_IgnoresRowsOutsideCatalog(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "Jane Doe", 1, scores(5, 4, 3), ""))

	// Rows left behind by an older catalog
	mustExec(t, s, `INSERT INTO score_records (judge_identity, entry_id, created_at, updated_at) VALUES ('Jane Doe', 99, 'x', 'x')`)
	mustExec(t, s, `INSERT INTO criterion_scores (judge_identity, entry_id, criterion_id, score) VALUES ('Jane Doe', 99, 'impact', 5)`)

	p, err := s.Progress(ctx, "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Completed)
	assert.Equal(t, 3, p.Total)
}

func TestExportAll_Empty(t *testing.T) {
	s, _ := createTestStore(t)

	records, err := s.ExportAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestExportAll_TwoJudgesOrdered(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	// Written out of order on purpose
	require.NoError(t, s.Upsert(ctx, "Zoe Zhang", 2, scores(2, 2, 2), "z2"))
	require.NoError(t, s.Upsert(ctx, "Amy Adams", 3, scores(3, 3, 3), "a3"))
	require.NoError(t, s.Upsert(ctx, "Amy Adams", 1, ir.Scores{"impact": 5}, "a1"))
	require.NoError(t, s.Upsert(ctx, "Zoe Zhang", 1, scores(1, 1, 1), "z1"))

	records, err := s.ExportAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 4)

	type key struct {
		judge string
		entry int
	}
	var got []key
	for _, r := range records {
		got = append(got, key{r.Judge, r.EntryID})
	}
	assert.Equal(t, []key{
		{"Amy Adams", 1}, {"Amy Adams", 3}, {"Zoe Zhang", 1}, {"Zoe Zhang", 2},
	}, got)

	// Partial records are exported with what they have
	assert.Equal(t, ir.Scores{"impact": 5}, records[0].Scores)
	assert.Equal(t, "a1", records[0].Comment)
	assert.Equal(t, scores(2, 2, 2), records[3].Scores)
}

func TestExportAll_SkipsCommentOnlyRecords(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "Jane Doe", 1, ir.Scores{}, "no scores yet"))
	require.NoError(t, s.Upsert(ctx, "Jane Doe", 2, scores(4, 4, 4), ""))

	records, err := s.ExportAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].EntryID)
}

func TestExportAll_ConsistentDuringWrites(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for _, judge := range []string{"Amy Adams", "Bo Berg"} {
		wg.Add(1)
		go func(judge string) {
			defer wg.Done()
			for v := 1; ; v = v%5 + 1 {
				select {
				case <-stop:
					return
				default:
				}
				_ = s.Upsert(ctx, judge, 1, scores(v, v, v), "")
			}
		}(judge)
	}

	// Every record is written with uniform scores, so a torn read
	// would show mixed values inside one record.
	for i := 0; i < 50; i++ {
		records, err := s.ExportAll(ctx)
		require.NoError(t, err)
		for _, r := range records {
			require.Len(t, r.Scores, 3)
			assert.Equal(t, r.Scores["impact"], r.Scores["craft"])
			assert.Equal(t, r.Scores["impact"], r.Scores["demo"])
		}
	}
	close(stop)
	wg.Wait()
}

func TestJudge_NotFound(t *testing.T) {
	s, _ := createTestStore(t)

	_, found, err := s.Judge(context.Background(), "Nobody Here")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestJudge_CreatedByUpsert(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "Jane Doe", 1, scores(1, 2, 3), ""))

	j, found, err := s.Judge(ctx, "Jane Doe")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Jane Doe", j.Identity)
	assert.Equal(t, "", j.Email)
}

func TestListJudges_Ordered(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	judges, err := s.ListJudges(ctx)
	require.NoError(t, err)
	assert.NotNil(t, judges)
	assert.Empty(t, judges)

	for _, name := range []string{"Zoe Zhang", "Amy Adams", "Mia Moss"} {
		_, err := s.RegisterJudge(ctx, name, "")
		require.NoError(t, err)
	}

	judges, err = s.ListJudges(ctx)
	require.NoError(t, err)
	require.Len(t, judges, 3)
	assert.Equal(t, "Amy Adams", judges[0].Identity)
	assert.Equal(t, "Mia Moss", judges[1].Identity)
	assert.Equal(t, "Zoe Zhang", judges[2].Identity)
}
