package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/scorecard/internal/compiler"
	"github.com/roach88/scorecard/internal/engine"
	"github.com/roach88/scorecard/internal/identity"
	"github.com/roach88/scorecard/internal/ir"
	"github.com/roach88/scorecard/internal/scoring"
	"github.com/roach88/scorecard/internal/store"
	"github.com/roach88/scorecard/internal/testutil"
)

// Harness executes one scenario against a fresh engine.
type Harness struct {
	engine   *engine.Engine
	sessions map[string]*engine.Session
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with a deterministic
// clock. Failed expectations are reported in Result.Errors; the returned
// error is reserved for setup failures (catalog, store, export).
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	cat, err := loadCatalog(scenario.Catalog)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:", cat, store.WithClock(testutil.NewDeterministicClock()))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &Harness{
		engine:   engine.New(st, cat, engine.WithLogger(logger)),
		sessions: make(map[string]*engine.Session),
		logger:   logger,
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.execute(ctx, i, step, result)
	}

	table, err := h.engine.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export: %w", err)
	}
	result.Export = table

	if scenario.Export != nil && len(table.Rows) != scenario.Export.Rows {
		result.Addf("export: expected %d rows, got %d", scenario.Export.Rows, len(table.Rows))
	}
	return result, nil
}

func loadCatalog(path string) (*ir.Catalog, error) {
	if path == "" {
		return compiler.DefaultCatalog()
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return compiler.CompileSource(path, string(src))
}

// session returns the cached session for a raw name, opening it on first use.
func (h *Harness) session(ctx context.Context, raw string) (*engine.Session, error) {
	judge, err := identity.Normalize(raw)
	if err != nil {
		return nil, err
	}
	if sess, ok := h.sessions[judge]; ok {
		return sess, nil
	}
	sess, err := h.engine.Open(ctx, judge, "")
	if err != nil {
		return nil, err
	}
	h.sessions[judge] = sess
	return sess, nil
}

// observed is what a step produced, for comparison with its Expect.
type observed struct {
	judge    string
	card     *engine.Card
	progress *ir.Progress
}

// execute runs one step and checks its expectations.
func (h *Harness) execute(ctx context.Context, i int, step Step, result *Result) {
	obs, err := h.apply(ctx, step)

	outcome := StepOutcome{Step: i, Action: step.Action, Entry: step.Entry, Outcome: OutcomeOK}
	if obs.judge != "" {
		outcome.Judge = obs.judge
	}
	if obs.card != nil {
		outcome.Weighted = scoring.FormatScore(obs.card.Weighted)
	}
	if err != nil {
		outcome.Outcome = string(ir.CodeOf(err))
		if outcome.Outcome == "" {
			outcome.Outcome = err.Error()
		}
	}
	result.Steps = append(result.Steps, outcome)

	h.logger.Debug("step executed", "step", i, "action", step.Action, "outcome", outcome.Outcome)
	check(i, step, outcome, obs, err, result)
}

// apply performs the step's engine call.
func (h *Harness) apply(ctx context.Context, step Step) (observed, error) {
	var obs observed

	if step.Action == ActionOpen {
		sess, err := h.engine.Open(ctx, step.Judge, step.Email)
		if err != nil {
			return obs, err
		}
		h.sessions[sess.Judge()] = sess
		obs.judge = sess.Judge()
		return obs, nil
	}

	sess, err := h.session(ctx, step.Judge)
	if err != nil {
		return obs, err
	}
	obs.judge = sess.Judge()

	switch step.Action {
	case ActionSave:
		err = sess.Save(ctx, step.Entry, ir.Scores(step.Scores), step.Comment)
	case ActionSetScore:
		_, err = sess.SetScore(ctx, step.Entry, step.Criterion, step.Score)
	case ActionSetComment:
		_, err = sess.SetComment(ctx, step.Entry, step.Comment)
	case ActionShow:
	case ActionProgress:
		p, err := sess.Progress(ctx)
		if err != nil {
			return obs, err
		}
		obs.progress = &p
		return obs, nil
	case ActionSubmit:
		_, err = sess.Submit(ctx)
		return obs, err
	}
	if err != nil {
		return obs, err
	}

	card, err := sess.Card(ctx, step.Entry)
	if err != nil {
		return obs, err
	}
	obs.card = &card
	return obs, nil
}

// check compares a step's outcome against its expectations.
func check(i int, step Step, outcome StepOutcome, obs observed, err error, result *Result) {
	exp := step.Expect
	if exp == nil {
		exp = &Expect{}
	}

	if exp.Error != "" {
		if outcome.Outcome != exp.Error {
			result.Addf("step %d (%s): expected error %s, got %s", i, step.Action, exp.Error, outcome.Outcome)
		}
		return
	}
	if err != nil {
		result.Addf("step %d (%s): unexpected error: %v", i, step.Action, err)
		return
	}

	if exp.Judge != "" && obs.judge != exp.Judge {
		result.Addf("step %d (%s): expected judge %q, got %q", i, step.Action, exp.Judge, obs.judge)
	}
	if obs.card != nil {
		if exp.Weighted != "" && outcome.Weighted != exp.Weighted {
			result.Addf("step %d (%s): expected weighted %s, got %s", i, step.Action, exp.Weighted, outcome.Weighted)
		}
		if exp.Complete != nil && obs.card.Complete != *exp.Complete {
			result.Addf("step %d (%s): expected complete=%t, got %t", i, step.Action, *exp.Complete, obs.card.Complete)
		}
		if exp.Comment != nil && obs.card.Record.Comment != *exp.Comment {
			result.Addf("step %d (%s): expected comment %q, got %q", i, step.Action, *exp.Comment, obs.card.Record.Comment)
		}
	}
	if obs.progress != nil {
		if exp.Completed != nil && obs.progress.Completed != *exp.Completed {
			result.Addf("step %d (%s): expected %d completed, got %d", i, step.Action, *exp.Completed, obs.progress.Completed)
		}
		if exp.Total != nil && obs.progress.Total != *exp.Total {
			result.Addf("step %d (%s): expected total %d, got %d", i, step.Action, *exp.Total, obs.progress.Total)
		}
	}
}
