package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/scorecard/internal/ir"
	"github.com/roach88/scorecard/internal/scoring"
)

// CatalogView is the catalog as listed by the catalog command.
type CatalogView struct {
	Entries     []ir.Entry     `json:"entries"`
	Criteria    []ir.Criterion `json:"criteria"`
	WeightTotal int            `json:"weight_total"`
	MaxWeighted float64        `json:"max_weighted"`
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List entries and criteria",
		Long: `List the competition entries and the weighted rubric criteria,
in display order.

Examples:
  scorecard catalog
  scorecard catalog --catalog ./catalog.cue --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(rootOpts, cmd)
		},
	}
}

func runCatalog(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	cat, err := LoadCatalog(opts.Config.CatalogPath)
	if err != nil {
		return report(f, WrapExitError(ExitCommandError, "failed to load catalog", err))
	}

	view := CatalogView{
		Entries:     cat.Entries(),
		Criteria:    cat.Criteria(),
		WeightTotal: cat.WeightTotal(),
		MaxWeighted: scoring.MaxWeighted(cat),
	}
	if f.Format == "json" {
		return f.Success(view)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Entries (%d):\n", len(view.Entries))
	for _, e := range view.Entries {
		fmt.Fprintf(w, "  %3d  %-20s %s\n", e.ID, e.Name, e.Project)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Criteria (weights total %d%%, max weighted score %s):\n",
		view.WeightTotal, scoring.FormatScore(view.MaxWeighted))
	for _, c := range view.Criteria {
		fmt.Fprintf(w, "  %-24s %3d%%  %s\n", c.ID, c.Weight, c.Name)
	}
	return nil
}
