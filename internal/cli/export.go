package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/scorecard/internal/export"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Out string // exact output file
	Dir string // directory for a timestamped file

	// Now supplies the timestamp for --dir file names. Defaults to time.Now.
	Now func() time.Time
}

// ExportResult describes a completed export.
type ExportResult struct {
	Rows  int    `json:"rows"`
	Empty bool   `json:"empty"`
	Path  string `json:"path,omitempty"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts, Now: time.Now}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all judges' results as CSV",
		Long: `Export one CSV row per (judge, entry) record that has at least one score.
Missing scores export as 0; the weighted score covers the scores present.

With no scored records nothing is written and the empty state is reported.

Examples:
  scorecard export > results.csv
  scorecard export --out results.csv
  scorecard export --dir ./exports   # judging_results_YYYYMMDD_HHMMSS.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write CSV to this file")
	cmd.Flags().StringVar(&opts.Dir, "dir", "", "write a timestamped CSV into this directory")
	cmd.MarkFlagsMutuallyExclusive("out", "dir")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	ws, err := openWorkspace(opts.RootOptions, cmd)
	if err != nil {
		return report(f, err)
	}
	defer ws.Close()

	table, err := ws.engine.Export(cmd.Context())
	if err != nil {
		return report(f, err)
	}

	if table.Empty() {
		if f.Format == "json" {
			return f.Success(ExportResult{Empty: true})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No results to export yet.")
		return nil
	}

	path := opts.Out
	if opts.Dir != "" {
		path = filepath.Join(opts.Dir, export.FileName(opts.Now()))
	}

	if path == "" {
		if f.Format == "json" {
			return f.Success(map[string]any{
				"header": table.Header(),
				"rows":   table.Records(),
			})
		}
		if err := export.WriteCSV(cmd.OutOrStdout(), table); err != nil {
			_ = f.Error(ErrCodeWriteFailed, err.Error(), nil)
			return reported(WrapExitError(ExitCommandError, "failed to write export", err))
		}
		return nil
	}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			_ = f.Error(ErrCodeWriteFailed, err.Error(), nil)
			return reported(WrapExitError(ExitCommandError, "failed to create export directory", err))
		}
	}
	if err := export.SaveCSV(path, table); err != nil {
		_ = f.Error(ErrCodeWriteFailed, err.Error(), nil)
		return reported(WrapExitError(ExitCommandError, "failed to write export", err))
	}

	ws.logger.Info("results exported", "path", path, "rows", len(table.Rows))
	result := ExportResult{Rows: len(table.Rows), Path: path}
	if f.Format == "json" {
		return f.Success(result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d row(s) to %s\n", result.Rows, result.Path)
	return nil
}
