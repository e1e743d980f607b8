package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/scorecard/internal/engine"
	"github.com/roach88/scorecard/internal/ir"
	"github.com/roach88/scorecard/internal/scoring"
)

// ScoreOptions holds flags for the score command.
type ScoreOptions struct {
	*RootOptions
	Sets    []string // criterion=score pairs
	Comment string
	Email   string
	Merge   bool // keep stored scores not named by --set
}

// NewScoreCommand creates the score command.
func NewScoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "score <judge> <entry>",
		Short: "Record a judge's scores for an entry",
		Long: `Record a judge's rubric scores for one entry.

Without --merge the stored record is replaced by exactly the scores and
comment given. With --merge the given scores are applied on top of the stored
record, and the stored comment is kept unless --comment is set.

Every score must be an integer from 1 to 5 for a catalog criterion; a rejected
save leaves the stored record untouched.

Examples:
  scorecard score "Jane Doe" 1 --set problem_definition=4 --set technical_execution=5
  scorecard score "jane doe" 1 --set long_term_vision=3 --merge
  scorecard score "Jane Doe" 1 --merge --comment "Strong demo"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Sets, "set", nil, "criterion=score (repeatable)")
	cmd.Flags().StringVar(&opts.Comment, "comment", "", "comment for the entry")
	cmd.Flags().StringVar(&opts.Email, "email", "", "judge email, stored on first use")
	cmd.Flags().BoolVar(&opts.Merge, "merge", false, "merge with the stored record instead of replacing it")

	return cmd
}

func runScore(opts *ScoreOptions, judge, entryArg string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	entryID, err := parseEntryID(entryArg)
	if err != nil {
		return report(f, err)
	}
	sets, err := parseSets(opts.Sets)
	if err != nil {
		return report(f, err)
	}

	ws, err := openWorkspace(opts.RootOptions, cmd)
	if err != nil {
		return report(f, err)
	}
	defer ws.Close()

	ctx := cmd.Context()
	sess, err := ws.engine.Open(ctx, judge, opts.Email)
	if err != nil {
		return report(f, err)
	}

	scores := sets
	comment := opts.Comment
	if opts.Merge {
		rec, err := sess.Load(ctx, entryID)
		if err != nil {
			return report(f, err)
		}
		scores = scoring.Known(ws.catalog, rec.Scores)
		for id, s := range sets {
			scores[id] = s
		}
		if !cmd.Flags().Changed("comment") {
			comment = rec.Comment
		}
	}

	if err := sess.Save(ctx, entryID, scores, comment); err != nil {
		return report(f, err)
	}

	card, err := sess.Card(ctx, entryID)
	if err != nil {
		return report(f, err)
	}
	return outputCard(f, sess.Judge(), ws.catalog, card)
}

// parseSets parses criterion=score pairs. Range checks are left to the engine.
func parseSets(sets []string) (ir.Scores, error) {
	scores := make(ir.Scores, len(sets))
	for _, kv := range sets {
		id, val, ok := strings.Cut(kv, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, newUsageError("--set must be criterion=score, got %q", kv)
		}
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return nil, newUsageError("--set %s: score must be an integer, got %q", id, val)
		}
		scores[id] = n
	}
	return scores, nil
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <judge> <entry>",
		Short: "Show a judge's record for an entry",
		Long: `Show the stored scores, weighted score, per-criterion breakdown and
comment of one judge's record for an entry. Entries never scored show empty.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runShow(opts *RootOptions, judge, entryArg string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	entryID, err := parseEntryID(entryArg)
	if err != nil {
		return report(f, err)
	}

	ws, err := openWorkspace(opts, cmd)
	if err != nil {
		return report(f, err)
	}
	defer ws.Close()

	sess, err := ws.engine.Lookup(cmd.Context(), judge)
	if err != nil {
		return report(f, err)
	}
	card, err := sess.Card(cmd.Context(), entryID)
	if err != nil {
		return report(f, err)
	}
	return outputCard(f, sess.Judge(), ws.catalog, card)
}

// outputCard prints an entry's scoring card.
func outputCard(f *OutputFormatter, judge string, cat *ir.Catalog, card engine.Card) error {
	if f.Format == "json" {
		return f.Success(card)
	}
	writeCard(f.Writer, judge, cat, card)
	return nil
}

func writeCard(w io.Writer, judge string, cat *ir.Catalog, card engine.Card) {
	fmt.Fprintf(w, "Entry %d: %s\n", card.Entry.ID, card.Entry.Name)
	if card.Entry.Project != "" {
		fmt.Fprintf(w, "Project: %s\n", card.Entry.Project)
	}
	fmt.Fprintf(w, "Judge: %s\n", judge)
	fmt.Fprintln(w)

	for _, c := range card.Breakdown {
		if !c.Scored() {
			fmt.Fprintf(w, "  %-26s %3d%%   -\n", c.CriterionID, c.Weight)
			continue
		}
		fmt.Fprintf(w, "  %-26s %3d%%   %d %-10s %5.2f\n", c.CriterionID, c.Weight, c.Score, c.Label, c.Points)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Weighted score: %s / %s\n",
		scoring.FormatScore(card.Weighted), scoring.FormatScore(scoring.MaxWeighted(cat)))
	if card.Complete {
		fmt.Fprintln(w, "Status: complete")
	} else {
		fmt.Fprintf(w, "Status: incomplete (missing %s)\n", strings.Join(card.Missing, ", "))
	}
	if card.Record.Comment != "" {
		fmt.Fprintf(w, "Comment: %s\n", card.Record.Comment)
	}
	if card.Record.Exists() {
		fmt.Fprintf(w, "Updated: %s\n", ir.FormatTime(card.Record.UpdatedAt))
	}
}
