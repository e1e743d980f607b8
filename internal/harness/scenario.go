package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted judging session with expectations.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is a .cue catalog file. Empty means the embedded default catalog.
	// Relative paths resolve against the scenario file's directory.
	Catalog string `yaml:"catalog,omitempty"`

	// Steps run in order against one engine.
	Steps []Step `yaml:"steps"`

	// Export, if set, is checked after the last step.
	Export *ExportExpect `yaml:"export,omitempty"`
}

// Step is one engine operation.
type Step struct {
	// Action is one of the Action* constants.
	Action string `yaml:"action"`

	// Judge is the raw judge name. It is normalized like any caller input.
	Judge string `yaml:"judge"`

	// Email is stored with the judge on open.
	Email string `yaml:"email,omitempty"`

	Entry     int            `yaml:"entry,omitempty"`
	Criterion string         `yaml:"criterion,omitempty"`
	Score     int            `yaml:"score,omitempty"`
	Scores    map[string]int `yaml:"scores,omitempty"`
	Comment   string         `yaml:"comment,omitempty"`

	// Expect, if set, is checked against the step's outcome.
	// A step without Expect must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes a step's expected outcome. Unset fields are not checked.
type Expect struct {
	// Error is the expected ir.ErrorCode, e.g. INVALID_SCORE.
	Error string `yaml:"error,omitempty"`

	// Judge is the expected canonical identity (open).
	Judge string `yaml:"judge,omitempty"`

	// Weighted is the expected two-decimal weighted score of the entry.
	Weighted string `yaml:"weighted,omitempty"`

	// Complete is the expected completeness of the entry.
	Complete *bool `yaml:"complete,omitempty"`

	// Comment is the expected stored comment.
	Comment *string `yaml:"comment,omitempty"`

	// Completed and Total are the expected progress counts (progress).
	Completed *int `yaml:"completed,omitempty"`
	Total     *int `yaml:"total,omitempty"`
}

// ExportExpect checks the final export.
type ExportExpect struct {
	// Rows is the expected number of exported rows.
	Rows int `yaml:"rows"`
}

// Step actions.
const (
	ActionOpen       = "open"
	ActionSave       = "save"
	ActionSetScore   = "set_score"
	ActionSetComment = "set_comment"
	ActionShow       = "show"
	ActionProgress   = "progress"
	ActionSubmit     = "submit"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "step:" vs "steps:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) {
		scenario.Catalog = filepath.Join(filepath.Dir(path), scenario.Catalog)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.Catalog != "" {
		if _, err := os.Stat(s.Catalog); err != nil {
			return fmt.Errorf("catalog file not found: %s", s.Catalog)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	return nil
}

// validateStep checks the fields each action needs.
func validateStep(index int, st *Step) error {
	needEntry := false
	switch st.Action {
	case ActionOpen, ActionProgress, ActionSubmit:
	case ActionSave, ActionSetComment, ActionShow:
		needEntry = true
	case ActionSetScore:
		needEntry = true
		if st.Criterion == "" {
			return fmt.Errorf("steps[%d]: criterion is required for set_score", index)
		}
	case "":
		return fmt.Errorf("steps[%d]: action is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown action %q", index, st.Action)
	}

	if st.Judge == "" && (st.Expect == nil || st.Expect.Error == "") {
		return fmt.Errorf("steps[%d]: judge is required", index)
	}
	if needEntry && st.Entry == 0 {
		return fmt.Errorf("steps[%d]: entry is required for %s", index, st.Action)
	}
	return nil
}
