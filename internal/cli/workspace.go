package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/scorecard/internal/engine"
	"github.com/roach88/scorecard/internal/ir"
	"github.com/roach88/scorecard/internal/metrics"
	"github.com/roach88/scorecard/internal/store"
)

// workspace bundles what a data command needs: catalog, store and engine.
type workspace struct {
	catalog *ir.Catalog
	store   *store.Store
	engine  *engine.Engine
	metrics *metrics.Recorder
	logger  *slog.Logger

	// metricsFile receives the command's metrics on Close when set.
	metricsFile string
}

// openWorkspace loads the configured catalog and opens the database.
// The caller must Close the workspace.
func openWorkspace(opts *RootOptions, cmd *cobra.Command) (*workspace, error) {
	logger := opts.newLogger(cmd.ErrOrStderr())

	cat, err := LoadCatalog(opts.Config.CatalogPath)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "failed to load catalog", Err: err}
	}

	logger.Debug("opening database", "path", opts.Config.DBPath)
	st, err := store.Open(opts.Config.DBPath, cat)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	rec := metrics.New()
	return &workspace{
		catalog: cat,
		store:   st,
		engine:  engine.New(st, cat, engine.WithLogger(logger), engine.WithMetrics(rec)),
		metrics: rec,
		logger:  logger,

		metricsFile: opts.Config.MetricsFile,
	}, nil
}

// Close closes the database and writes the metrics textfile, which then
// holds the counters of this one command.
func (w *workspace) Close() {
	if err := w.store.Close(); err != nil {
		w.logger.Error("error closing database", "error", err)
	}
	if w.metricsFile == "" {
		return
	}
	if err := w.metrics.WriteTextfile(w.metricsFile); err != nil {
		w.logger.Error("error writing metrics", "path", w.metricsFile, "error", err)
	}
}

// report prints err through the formatter and returns the matching ExitError.
//
// Validation errors exit with ExitFailure; storage and command errors with
// ExitCommandError. An *ExitError keeps its own code.
func report(f *OutputFormatter, err error) error {
	code := string(ir.CodeOf(err))
	exit := ExitCommandError
	if ir.IsValidation(err) {
		exit = ExitFailure
	}

	var usageErr *usageError
	if errors.As(err, &usageErr) {
		code = ErrCodeUsage
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		exit = exitErr.Code
		if exitErr.Err != nil && code == "" {
			code = catalogErrorCode(exitErr.Err)
		}
	}
	if code == "" {
		code = ErrCodeGeneric
	}

	_ = f.Error(code, err.Error(), nil)
	if exitErr != nil {
		return reported(exitErr)
	}
	return reported(WrapExitError(exit, "command failed", err))
}

// usageError is a malformed command-line argument.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// newUsageError returns an ExitCommandError for a malformed argument.
func newUsageError(format string, args ...any) *ExitError {
	return WrapExitError(ExitCommandError, "invalid argument", &usageError{msg: fmt.Sprintf(format, args...)})
}

// parseEntryID parses a positional entry id argument.
func parseEntryID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, newUsageError("entry must be a positive integer, got %q", arg)
	}
	return id, nil
}
