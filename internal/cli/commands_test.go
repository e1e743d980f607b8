package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scorecard/internal/engine"
	"github.com/roach88/scorecard/internal/ir"
)

func TestCatalogCommand_Default(t *testing.T) {
	clearEnv(t)
	db := filepath.Join(t.TempDir(), "scorecard.db")

	out, err := executeCommand("--db", db, "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "Entries (15):")
	assert.Contains(t, out, "problem_definition")
	assert.Contains(t, out, "weights total 115%")
}

func TestCatalogCommand_JSON(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("--format", "json", "catalog")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	var view CatalogView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Len(t, view.Entries, 2)
	assert.Len(t, view.Criteria, 3)
	assert.Equal(t, 100, view.WeightTotal)
	assert.Equal(t, 5.0, view.MaxWeighted)
}

func TestScoreCommand_JaneDoe(t *testing.T) {
	clearEnv(t)
	db := filepath.Join(t.TempDir(), "scorecard.db")

	out, err := executeCommand("--db", db, "score", "  jane DOE ", "1",
		"--set", "problem_definition=4",
		"--set", "technical_execution=5",
		"--set", "results_interpretation=3",
		"--set", "learning_reflection=4",
		"--set", "presentation_quality=5",
		"--set", "long_term_vision=3",
		"--set", "scientific_evaluation=2",
		"--set", "team_expertise=4",
		"--comment", "Clear problem statement",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Judge: Jane Doe")
	assert.Contains(t, out, "Weighted score: 4.40 / 5.75")
	assert.Contains(t, out, "Status: complete")
	assert.Contains(t, out, "Comment: Clear problem statement")

	out, err = executeCommand("--db", db, "progress", "Jane Doe")
	require.NoError(t, err)
	assert.Contains(t, out, "Jane Doe: 1/15 entries complete")
}

func TestScoreCommand_ReplaceAndMerge(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("score", "Amy Adams", "1", "--set", "impact=5", "--set", "craft=4", "--comment", "first")
	require.NoError(t, err)

	// Merge keeps impact and the comment.
	out, err := env.run("--format", "json", "score", "amy adams", "1", "--set", "demo=3", "--merge")
	require.NoError(t, err)
	card := decodeCard(t, out)
	assert.Equal(t, ir.Scores{"impact": 5, "craft": 4, "demo": 3}, card.Record.Scores)
	assert.Equal(t, "first", card.Record.Comment)
	assert.True(t, card.Complete)
	assert.InDelta(t, 4.3, card.Weighted, 1e-9)

	// Merge with an explicit empty comment clears it.
	out, err = env.run("--format", "json", "score", "Amy Adams", "1", "--merge", "--comment", "")
	require.NoError(t, err)
	card = decodeCard(t, out)
	assert.Equal(t, "", card.Record.Comment)
	assert.Len(t, card.Record.Scores, 3)

	// Without merge the record is replaced.
	out, err = env.run("--format", "json", "score", "Amy Adams", "1", "--set", "craft=2")
	require.NoError(t, err)
	card = decodeCard(t, out)
	assert.Equal(t, ir.Scores{"craft": 2}, card.Record.Scores)
	assert.False(t, card.Complete)
	assert.Equal(t, []string{"impact", "demo"}, card.Missing)
}

func TestScoreCommand_Rejections(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("score", "Amy Adams", "1", "--set", "impact=4")
	require.NoError(t, err)

	tests := []struct {
		name     string
		args     []string
		wantCode string
		wantExit int
	}{
		{"score too high", []string{"score", "Amy Adams", "1", "--set", "impact=6"}, "INVALID_SCORE", ExitFailure},
		{"score zero", []string{"score", "Amy Adams", "1", "--set", "impact=0"}, "INVALID_SCORE", ExitFailure},
		{"unknown criterion", []string{"score", "Amy Adams", "1", "--set", "charisma=3"}, "INVALID_SCORE", ExitFailure},
		{"unknown entry", []string{"score", "Amy Adams", "9", "--set", "impact=3"}, "UNKNOWN_ENTRY", ExitFailure},
		{"invalid judge", []string{"score", " a ", "1", "--set", "impact=3"}, "INVALID_IDENTITY", ExitFailure},
		{"malformed set", []string{"score", "Amy Adams", "1", "--set", "impact"}, ErrCodeUsage, ExitCommandError},
		{"non-integer score", []string{"score", "Amy Adams", "1", "--set", "impact=high"}, ErrCodeUsage, ExitCommandError},
		{"bad entry", []string{"score", "Amy Adams", "one", "--set", "impact=3"}, ErrCodeUsage, ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := env.run(append([]string{"--format", "json"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))

			resp := decodeResponse(t, out)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}

	// The stored record is untouched by every rejection.
	out, err := env.run("--format", "json", "show", "Amy Adams", "1")
	require.NoError(t, err)
	assert.Equal(t, ir.Scores{"impact": 4}, decodeCard(t, out).Record.Scores)
}

func TestShowCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("show", "Zoe Zhang", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Entry 2: Team Beta")
	assert.Contains(t, out, "Weighted score: 0.00 / 5.00")
	assert.Contains(t, out, "Status: incomplete (missing impact, craft, demo)")
	assert.NotContains(t, out, "Updated:")

	_, err = env.run("show", "Zoe Zhang", "7")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestReadCommands_DoNotRegisterJudges(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("show", "Typo Nmae", "1")
	require.NoError(t, err)
	out, err := env.run("progress", "ghost judge")
	require.NoError(t, err)
	assert.Contains(t, out, "Ghost Judge: 0/2 entries complete")
	_, err = env.run("submit", "ghost judge")
	require.Error(t, err)

	out, err = env.run("judges")
	require.NoError(t, err)
	assert.Contains(t, out, "No judges yet.")
}

func TestDataCommands_WriteMetricsFile(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "metrics.prom")
	t.Setenv("SCORECARD_METRICS_FILE", path)

	_, err := env.run("score", "Jane Doe", "1", "--set", "impact=4")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `scorecard_engine_operations_total{operation="open",outcome="ok"} 1`)
	assert.Contains(t, string(data), `scorecard_engine_operations_total{operation="save",outcome="ok"} 1`)

	_, err = env.run("show", "Jane Doe", "9")
	require.Error(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `scorecard_engine_operations_total{operation="load",outcome="validation"} 1`)
}

func TestSubmitCommand(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("score", "Li Na", "1", "--set", "impact=3", "--set", "craft=3", "--set", "demo=3")
	require.NoError(t, err)

	out, err := env.run("--format", "json", "submit", "Li Na")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, string(ir.ErrCodeIncomplete), decodeResponse(t, out).Error.Code)

	_, err = env.run("score", "Li Na", "2", "--set", "impact=4", "--set", "craft=4", "--set", "demo=4")
	require.NoError(t, err)

	out, err = env.run("submit", "li na")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Li Na submitted at")

	out, err = env.run("judges")
	require.NoError(t, err)
	assert.Contains(t, out, "Li Na")
	assert.Contains(t, out, "2/2")
	assert.Contains(t, out, "submitted")
}

func TestJudgesCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("judges")
	require.NoError(t, err)
	assert.Contains(t, out, "No judges yet.")

	_, err = env.run("score", "zoe zhang", "1", "--set", "impact=2")
	require.NoError(t, err)
	_, err = env.run("score", "amy adams", "2", "--set", "impact=2", "--set", "craft=2", "--set", "demo=2")
	require.NoError(t, err)

	out, err = env.run("--format", "json", "judges")
	require.NoError(t, err)
	var judges []JudgeSummary
	require.NoError(t, json.Unmarshal(decodeResponse(t, out).Data, &judges))
	require.Len(t, judges, 2)
	assert.Equal(t, "Amy Adams", judges[0].Identity)
	assert.Equal(t, 1, judges[0].Completed)
	assert.Equal(t, "Zoe Zhang", judges[1].Identity)
	assert.Equal(t, 0, judges[1].Completed)
	assert.Equal(t, 2, judges[1].Total)
}

func TestExportCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("export")
	require.NoError(t, err)
	assert.Equal(t, "No results to export yet.\n", out)

	out, err = env.run("--format", "json", "export")
	require.NoError(t, err)
	var empty ExportResult
	require.NoError(t, json.Unmarshal(decodeResponse(t, out).Data, &empty))
	assert.True(t, empty.Empty)

	_, err = env.run("score", "Amy Adams", "1", "--set", "impact=5", "--set", "craft=4", "--set", "demo=3", "--comment", "Strong, clear demo")
	require.NoError(t, err)
	_, err = env.run("score", "Zoe Zhang", "2", "--set", "impact=1")
	require.NoError(t, err)

	out, err = env.run("export")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "judge,entry_id,entry_name,entry_project,Impact (50%),Craft (30%),Demo (20%),weighted_score,comment,submission_time", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], `Amy Adams,1,Team Alpha,Alpha Project,5,4,3,4.3,"Strong, clear demo",`), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "Zoe Zhang,2,Team Beta,Beta Project,1,0,0,0.5,,"), lines[2])

	outFile := filepath.Join(env.dir, "results.csv")
	out, err = env.run("export", "--out", outFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 row(s)")
	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(lines, "\n")+"\n", string(data))

	exportDir := filepath.Join(env.dir, "exports")
	_, err = env.run("export", "--dir", exportDir)
	require.NoError(t, err)
	matches, err := filepath.Glob(filepath.Join(exportDir, "judging_results_*.csv"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	_, err = env.run("export", "--out", outFile, "--dir", exportDir)
	assert.Error(t, err)
}

// failFirstWrite rejects its first Write and buffers the rest.
type failFirstWrite struct {
	failed bool
	bytes.Buffer
}

func (w *failFirstWrite) Write(p []byte) (int, error) {
	if !w.failed {
		w.failed = true
		return 0, errors.New("broken pipe")
	}
	return w.Buffer.Write(p)
}

func TestExportCommand_WriteFailures(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run("score", "Amy Adams", "1", "--set", "impact=5")
	require.NoError(t, err)

	out, err := env.run("--format", "json", "export", "--out", filepath.Join(env.dir, "missing", "results.csv"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeWriteFailed, decodeResponse(t, out).Error.Code)
	_, statErr := os.Stat(filepath.Join(env.dir, "missing"))
	assert.True(t, os.IsNotExist(statErr))

	cmd := NewRootCommand()
	w := &failFirstWrite{}
	cmd.SetOut(w)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", env.db, "--catalog", env.catalog, "export"})
	err = cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, w.String(), "Error ["+ErrCodeWriteFailed+"]")
	assert.Contains(t, w.String(), "broken pipe")
}

func TestSnapshotCommand_Once(t *testing.T) {
	env := newTestEnv(t)
	snapDir := filepath.Join(env.dir, "snaps")
	metricsFile := filepath.Join(env.dir, "scorecard.prom")

	_, err := env.run("score", "Amy Adams", "1", "--set", "impact=5")
	require.NoError(t, err)

	out, err := env.run("--format", "json", "snapshot", "--dir", snapDir, "--once", "--metrics-file", metricsFile)
	require.NoError(t, err)

	var result SnapshotResult
	require.NoError(t, json.Unmarshal(decodeResponse(t, out).Data, &result))
	assert.True(t, result.Written)
	assert.Equal(t, 1, result.Rows)
	assert.NotEmpty(t, result.ID)

	assert.FileExists(t, filepath.Join(snapDir, result.ID+".csv"))
	assert.FileExists(t, filepath.Join(snapDir, result.ID+".json"))

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "scorecard_snapshot_runs_total")
}

func TestSnapshotCommand_BadInterval(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("snapshot", "--dir", filepath.Join(env.dir, "snaps"), "--interval", "0s", "--once")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDataCommands_MissingCatalog(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	out, err := executeCommand("--db", filepath.Join(dir, "x.db"), "--catalog", filepath.Join(dir, "nope.cue"), "--format", "json", "judges")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeNotFound, decodeResponse(t, out).Error.Code)
}

func decodeCard(t *testing.T, out string) engine.Card {
	t.Helper()
	resp := decodeResponse(t, out)
	require.Equal(t, "ok", resp.Status, "output: %s", out)
	var card engine.Card
	require.NoError(t, json.Unmarshal(resp.Data, &card))
	return card
}
