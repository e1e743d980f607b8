package compiler

import (
	"fmt"

	"github.com/roach88/scorecard/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrCatalogNoEntries   = "E101" // at least one entry required
	ErrCatalogNoCriteria  = "E102" // at least one criterion required
	ErrWeightSum          = "E103" // criterion weights must sum to the declared total
	ErrWeightNonPositive  = "E104" // each weight must be positive
	ErrDuplicateEntryID   = "E105" // entry IDs must be unique
	ErrDuplicateCriterion = "E106" // criterion IDs must be unique
	ErrEntryIDNonPositive = "E107" // entry IDs must be positive
	ErrLevelOutOfRange    = "E108" // level keys must be within 1..5
	ErrCriterionIDEmpty   = "E109" // criterion ID is required
)

// ValidationError represents a catalog validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidateCatalog checks the startup invariants of a catalog.
// Returns all errors found (does not fail-fast).
func ValidateCatalog(cat *ir.Catalog) []ValidationError {
	var errs []ValidationError

	entries := cat.Entries()
	if len(entries) == 0 {
		errs = append(errs, ValidationError{Field: "entry", Message: "at least one entry is required", Code: ErrCatalogNoEntries})
	}
	seenEntries := make(map[int]bool, len(entries))
	for _, e := range entries {
		field := fmt.Sprintf("entry[%d]", e.ID)
		if e.ID <= 0 {
			errs = append(errs, ValidationError{Field: field, Message: "entry id must be positive", Code: ErrEntryIDNonPositive})
		}
		if seenEntries[e.ID] {
			errs = append(errs, ValidationError{Field: field, Message: "duplicate entry id", Code: ErrDuplicateEntryID})
		}
		seenEntries[e.ID] = true
	}

	criteria := cat.Criteria()
	if len(criteria) == 0 {
		errs = append(errs, ValidationError{Field: "criterion", Message: "at least one criterion is required", Code: ErrCatalogNoCriteria})
	}
	seenCriteria := make(map[string]bool, len(criteria))
	sum := 0
	for i, c := range criteria {
		field := fmt.Sprintf("criterion.%s", c.ID)
		if c.ID == "" {
			field = fmt.Sprintf("criterion[%d]", i)
			errs = append(errs, ValidationError{Field: field, Message: "criterion id is required", Code: ErrCriterionIDEmpty})
		}
		if seenCriteria[c.ID] {
			errs = append(errs, ValidationError{Field: field, Message: "duplicate criterion id", Code: ErrDuplicateCriterion})
		}
		seenCriteria[c.ID] = true
		if c.Weight <= 0 {
			errs = append(errs, ValidationError{Field: field + ".weight", Message: fmt.Sprintf("weight must be positive, got %d", c.Weight), Code: ErrWeightNonPositive})
		}
		for score := range c.Levels {
			if score < ir.MinScore || score > ir.MaxScore {
				errs = append(errs, ValidationError{Field: field + ".levels", Message: fmt.Sprintf("level %d outside %d..%d", score, ir.MinScore, ir.MaxScore), Code: ErrLevelOutOfRange})
			}
		}
		sum += c.Weight
	}
	if len(criteria) > 0 && sum != cat.WeightTotal() {
		errs = append(errs, ValidationError{
			Field:   "criterion",
			Message: fmt.Sprintf("weights sum to %d, want %d", sum, cat.WeightTotal()),
			Code:    ErrWeightSum,
		})
	}

	return errs
}
