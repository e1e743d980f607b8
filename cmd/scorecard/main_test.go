package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/scorecard/internal/cli"
)

func TestRun(t *testing.T) {
	for _, key := range []string{"SCORECARD_CONFIG", "SCORECARD_DB_PATH", "SCORECARD_CATALOG_PATH", "SCORECARD_LOG_LEVEL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	db := filepath.Join(t.TempDir(), "scorecard.db")
	ctx := context.Background()

	var out, errOut bytes.Buffer
	code := run(ctx, []string{"--db", db, "progress", "jane doe"}, &out, &errOut)
	assert.Equal(t, cli.ExitSuccess, code)
	assert.Contains(t, out.String(), "Jane Doe: 0/15 entries complete")

	out.Reset()
	code = run(ctx, []string{"--db", db, "score", "Jane Doe", "1", "--set", "team_expertise=9"}, &out, &errOut)
	assert.Equal(t, cli.ExitFailure, code)
	assert.Contains(t, out.String(), "INVALID_SCORE")
	assert.Empty(t, errOut.String())

	errOut.Reset()
	code = run(ctx, []string{"--db", db, "no-such-command"}, &out, &errOut)
	assert.Equal(t, cli.ExitCommandError, code)
	assert.Contains(t, errOut.String(), "unknown command")
}
