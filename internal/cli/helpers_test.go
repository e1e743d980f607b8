package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const smallCatalogCUE = `
entry: [
	{id: 1, name: "Team Alpha", project: "Alpha Project"},
	{id: 2, name: "Team Beta", project: "Beta Project"},
]

criterion: [
	{id: "impact", name: "Impact", weight: 50},
	{id: "craft", name: "Craft", weight: 30},
	{id: "demo", name: "Demo", weight: 20},
]
`

// clearEnv unsets every SCORECARD_ variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SCORECARD_CONFIG",
		"SCORECARD_DB_PATH",
		"SCORECARD_CATALOG_PATH",
		"SCORECARD_LOG_LEVEL",
		"SCORECARD_SNAPSHOT_DIR",
		"SCORECARD_SNAPSHOT_INTERVAL",
		"SCORECARD_METRICS_FILE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

// testEnv is a temp database plus the small test catalog.
type testEnv struct {
	dir     string
	db      string
	catalog string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	clearEnv(t)

	dir := t.TempDir()
	catalog := filepath.Join(dir, "catalog.cue")
	require.NoError(t, os.WriteFile(catalog, []byte(smallCatalogCUE), 0o644))
	return testEnv{dir: dir, db: filepath.Join(dir, "scorecard.db"), catalog: catalog}
}

// run executes the root command against the env's database and catalog.
func (e testEnv) run(args ...string) (string, error) {
	return executeCommand(append([]string{"--db", e.db, "--catalog", e.catalog}, args...)...)
}

// executeCommand runs the root command and returns what it wrote to stdout.
func executeCommand(args ...string) (string, error) {
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// jsonResponse is CLIResponse with the payload left raw for typed decoding.
type jsonResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

func decodeResponse(t *testing.T, out string) jsonResponse {
	t.Helper()
	var resp jsonResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}
