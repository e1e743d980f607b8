package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/scorecard/internal/ir"
)

// NewProgressCommand creates the progress command.
func NewProgressCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <judge>",
		Short: "Show how many entries a judge has fully scored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgress(rootOpts, args[0], cmd)
		},
	}
}

func runProgress(opts *RootOptions, judge string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	ws, err := openWorkspace(opts, cmd)
	if err != nil {
		return report(f, err)
	}
	defer ws.Close()

	sess, err := ws.engine.Lookup(cmd.Context(), judge)
	if err != nil {
		return report(f, err)
	}
	p, err := sess.Progress(cmd.Context())
	if err != nil {
		return report(f, err)
	}

	if f.Format == "json" {
		return f.Success(p)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d entries complete (%.0f%%)\n",
		p.Judge, p.Completed, p.Total, p.Fraction()*100)
	return nil
}

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <judge>",
		Short: "Record a judge's final submission",
		Long: `Record a judge's final submission. Every entry must be fully scored;
otherwise the command fails with INCOMPLETE_EVALUATION and nothing changes.
Records stay editable after submission.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(rootOpts, args[0], cmd)
		},
	}
}

func runSubmit(opts *RootOptions, judge string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	ws, err := openWorkspace(opts, cmd)
	if err != nil {
		return report(f, err)
	}
	defer ws.Close()

	sess, err := ws.engine.Lookup(cmd.Context(), judge)
	if err != nil {
		return report(f, err)
	}
	info, err := sess.Submit(cmd.Context())
	if err != nil {
		return report(f, err)
	}

	if f.Format == "json" {
		return f.Success(info)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s submitted at %s\n", info.Identity, ir.FormatTime(*info.SubmittedAt))
	return nil
}

// NewJudgesCommand creates the judges command.
func NewJudgesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "judges",
		Short: "List judges with their progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJudges(rootOpts, cmd)
		},
	}
}

// JudgeSummary is one row of the judges listing.
type JudgeSummary struct {
	ir.Judge
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

func runJudges(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	ws, err := openWorkspace(opts, cmd)
	if err != nil {
		return report(f, err)
	}
	defer ws.Close()

	ctx := cmd.Context()
	judges, err := ws.engine.Judges(ctx)
	if err != nil {
		return report(f, err)
	}

	summaries := make([]JudgeSummary, 0, len(judges))
	for _, j := range judges {
		p, err := ws.store.Progress(ctx, j.Identity)
		if err != nil {
			return report(f, err)
		}
		summaries = append(summaries, JudgeSummary{Judge: j, Completed: p.Completed, Total: p.Total})
	}

	if f.Format == "json" {
		return f.Success(summaries)
	}

	w := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No judges yet.")
		return nil
	}
	for _, s := range summaries {
		status := "in progress"
		if s.SubmittedAt != nil {
			status = "submitted " + ir.FormatTime(*s.SubmittedAt)
		}
		fmt.Fprintf(w, "  %-24s %3d/%-3d %s\n", s.Identity, s.Completed, s.Total, status)
	}
	return nil
}
