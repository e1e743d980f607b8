package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/scorecard/internal/ir"
	"github.com/roach88/scorecard/internal/testutil"
)

// createTestStore creates a new store in a temp dir for testing, backed by
// testutil.SmallCatalog and a deterministic clock.
func createTestStore(t *testing.T) (*Store, *testutil.DeterministicClock) {
	t.Helper()
	clock := testutil.NewDeterministicClock()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, testutil.SmallCatalog(), WithClock(clock))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, clock
}

// rowCount returns the number of rows in a table.
func rowCount(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func scores(impact, craft, demo int) ir.Scores {
	return testutil.FullScores(impact, craft, demo)
}
