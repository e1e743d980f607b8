package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/scorecard/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool
	Filter string // glob matched against the scenario file name without extension
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult aggregates every scenario in a run.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

func (r *TestResult) add(s ScenarioResult) {
	r.Scenarios = append(r.Scenarios, s)
	r.Total++
	if s.Pass {
		r.Passed++
	} else {
		r.Failed++
	}
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run judging scenarios",
		Long: `Run YAML judging scenarios against a fresh in-memory store.

Each scenario's step expectations are checked, and its final export is
compared with golden/<scenario-file>.golden next to the scenario when that
file exists. Scenarios never touch the configured database.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  scorecard test ./scenarios
  scorecard test ./scenarios --filter "jane-*"
  scorecard test ./scenarios --update
  scorecard test ./scenarios --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose name matches this glob")

	return cmd
}

func runTests(cmd *cobra.Command, opts *TestOptions, dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return WrapExitError(ExitCommandError, "scenarios directory not found", err)
	}

	files, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	r := &scenarioRunner{opts: opts, cmd: cmd}
	if opts.Format != "json" {
		r.progress = cmd.OutOrStdout()
	}

	result := TestResult{Scenarios: []ScenarioResult{}}
	for _, file := range files {
		result.add(r.run(file))
	}
	return r.summarize(result)
}

// findScenarioFiles lists the .yaml and .yml files under dir, skipping
// golden directories.
func findScenarioFiles(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			ok, err := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

type scenarioRunner struct {
	opts *TestOptions
	cmd  *cobra.Command

	// progress receives one line per scenario in text mode; nil in JSON mode.
	progress io.Writer
}

func (r *scenarioRunner) run(file string) ScenarioResult {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return r.fail(filepath.Base(file), fmt.Sprintf("failed to load scenario: %v", err))
	}

	result, err := harness.Run(r.cmd.Context(), scenario)
	if err != nil {
		return r.fail(scenario.Name, fmt.Sprintf("execution failed: %v", err))
	}

	current, err := harness.ExportCSV(result)
	if err != nil {
		return r.fail(scenario.Name, fmt.Sprintf("failed to render export: %v", err))
	}

	path := goldenFilePath(file)
	if r.opts.Update {
		if err := writeGoldenFile(path, current); err != nil {
			return r.fail(scenario.Name, fmt.Sprintf("failed to update golden file: %v", err))
		}
		if !result.Pass {
			return r.fail(scenario.Name, result.Errors...)
		}
		return r.pass(scenario.Name, " (golden updated)")
	}

	errs := append([]string(nil), result.Errors...)
	if msg := compareGolden(path, current); msg != "" {
		errs = append(errs, msg)
	}
	if len(errs) > 0 {
		return r.fail(scenario.Name, errs...)
	}
	return r.pass(scenario.Name, "")
}

func (r *scenarioRunner) pass(name, note string) ScenarioResult {
	if r.progress != nil {
		fmt.Fprintf(r.progress, "✓ %s%s\n", name, note)
	}
	return ScenarioResult{Name: name, Pass: true}
}

func (r *scenarioRunner) fail(name string, errs ...string) ScenarioResult {
	if r.progress != nil {
		fmt.Fprintf(r.progress, "✗ %s\n", name)
		for _, e := range errs {
			fmt.Fprintf(r.progress, "  %s\n", e)
		}
	}
	return ScenarioResult{Name: name, Errors: errs}
}

func (r *scenarioRunner) summarize(result TestResult) error {
	var failure *ExitError
	if result.Failed > 0 {
		failure = reported(NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed)))
	}

	w := r.cmd.OutOrStdout()
	if r.progress == nil {
		resp := CLIResponse{Status: statusOK, Data: result}
		if failure != nil {
			resp.Status = statusError
			resp.Error = &CLIError{Code: ErrCodeTestFailed, Message: failure.Message}
		}
		f := &OutputFormatter{Format: "json", Writer: w}
		if err := f.encode(resp); err != nil {
			return err
		}
	} else if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
	} else {
		fmt.Fprintf(w, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
		if failure == nil {
			fmt.Fprintln(w, "✓ All scenarios passed")
		}
	}

	if failure != nil {
		return failure
	}
	return nil
}

// compareGolden returns a failure message when the golden file at path
// exists and differs from current. A missing golden file is not a failure.
func compareGolden(path string, current []byte) string {
	golden, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ""
	case err != nil:
		return fmt.Sprintf("failed to read golden file: %v", err)
	case !bytes.Equal(golden, current):
		return "export does not match golden file (run with --update to regenerate)"
	}
	return ""
}

// goldenFilePath maps dir/name.yaml to dir/golden/name.golden.
func goldenFilePath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

func writeGoldenFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write golden file: %w", err)
	}
	return nil
}
