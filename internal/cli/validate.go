package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/scorecard/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Entries  int                        `json:"entries,omitempty"`
	Criteria int                        `json:"criteria,omitempty"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [catalog]",
		Short: "Check catalog invariants",
		Long: `Compile a catalog and check its invariants: unique ids, positive weights
summing to the declared weight_total, at least one entry and criterion.

The catalog argument overrides --catalog. With neither, the embedded
catalog is checked.

Exit codes:
  0 - Catalog is valid
  1 - Catalog is invalid
  2 - Catalog could not be read`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.Config.CatalogPath
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	if path == "" {
		f.VerboseLog("Validating embedded catalog")
	} else {
		f.VerboseLog("Validating %s", path)
	}

	cat, err := LoadCatalog(path)
	if err == nil {
		result := ValidationResult{Valid: true, Entries: cat.NumEntries(), Criteria: len(cat.Criteria())}
		if f.Format == "json" {
			return f.Success(result)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Catalog valid: %d entries, %d criteria\n", result.Entries, result.Criteria)
		return nil
	}

	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		_ = f.Error(loadErr.Code, loadErr.Message, nil)
		return reported(WrapExitError(ExitCommandError, "failed to load catalog", err))
	}

	var verrs []compiler.ValidationError
	var catErr *compiler.CatalogError
	var compileErr *compiler.CompileError
	switch {
	case errors.As(err, &catErr):
		verrs = catErr.Errors
	case errors.As(err, &compileErr):
		verr := compiler.ValidationError{Field: compileErr.Field, Message: compileErr.Message, Code: ErrCodeCompile}
		if compileErr.Pos.IsValid() {
			verr.Line = compileErr.Pos.Line()
		}
		verrs = []compiler.ValidationError{verr}
	default:
		return report(f, err)
	}
	return outputValidationErrors(f, verrs)
}

// outputValidationErrors prints every violation and returns ExitFailure.
func outputValidationErrors(f *OutputFormatter, verrs []compiler.ValidationError) error {
	msg := fmt.Sprintf("catalog has %d error(s)", len(verrs))
	if f.Format == "json" {
		_ = f.Error(verrs[0].Code, msg, ValidationResult{Valid: false, Errors: verrs})
		return reported(NewExitError(ExitFailure, msg))
	}

	fmt.Fprintf(f.Writer, "✗ Catalog invalid (%d error(s)):\n", len(verrs))
	for _, verr := range verrs {
		fmt.Fprintf(f.Writer, "  %s\n", verr.Error())
	}
	return reported(NewExitError(ExitFailure, msg))
}
