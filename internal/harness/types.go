package harness

import (
	"fmt"

	"github.com/roach88/scorecard/internal/export"
)

// OutcomeOK marks a step that returned no error.
const OutcomeOK = "ok"

// StepOutcome records what one step did.
type StepOutcome struct {
	Step     int    `json:"step"`
	Action   string `json:"action"`
	Judge    string `json:"judge,omitempty"`
	Entry    int    `json:"entry,omitempty"`
	Outcome  string `json:"outcome"`
	Weighted string `json:"weighted,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// Steps has one outcome per executed step, in order.
	Steps []StepOutcome `json:"steps"`

	// Errors lists failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Export is the results table after the last step.
	Export export.Table `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepOutcome{},
		Errors: []string{},
	}
}

// AddError adds a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Addf is AddError with formatting.
func (r *Result) Addf(format string, args ...any) {
	r.AddError(fmt.Sprintf(format, args...))
}
