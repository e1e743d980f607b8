package compiler

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/scorecard/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

//go:embed default_catalog.cue
var defaultCatalogCUE string

var (
	defaultOnce    sync.Once
	defaultCatalog *ir.Catalog
	defaultErr     error
)

// DefaultCatalog returns the embedded challenge catalog.
// The catalog is compiled once and shared; it is immutable.
func DefaultCatalog() (*ir.Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = CompileSource("default_catalog.cue", defaultCatalogCUE)
	})
	return defaultCatalog, defaultErr
}

// MustDefaultCatalog is DefaultCatalog for tests and static initialization.
// Panics if the embedded catalog is malformed.
func MustDefaultCatalog() *ir.Catalog {
	cat, err := DefaultCatalog()
	if err != nil {
		panic(fmt.Sprintf("default catalog: %v", err))
	}
	return cat
}

// CompileSource compiles catalog CUE source text. filename is used for positions only.
func CompileSource(filename, src string) (*ir.Catalog, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileCatalog(v)
}

// CompileCatalog parses a CUE value into a validated Catalog.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value must have top-level entry and criterion lists, e.g.:
//
//	entry: [{id: 1, name: "MOD", project: "..."}]
//	criterion: [{id: "problem_definition", name: "...", weight: 100}]
//
// The value is unified with the catalog schema first, so type errors carry
// CUE positions. Invariant violations (weights not summing to the declared
// weight_total, which defaults to 100, or duplicate IDs) are returned as a
// *CatalogError listing every problem found.
func CompileCatalog(v cue.Value) (*ir.Catalog, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schema := v.Context().CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("catalog schema: %w", err)
	}

	v = schema.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	entries, err := parseEntries(v)
	if err != nil {
		return nil, err
	}
	criteria, err := parseCriteria(v)
	if err != nil {
		return nil, err
	}

	total, err := v.LookupPath(cue.ParsePath("weight_total")).Int64()
	if err != nil {
		return nil, formatCUEError(err)
	}

	cat := ir.NewCatalog(entries, criteria).WithWeightTotal(int(total))
	if verrs := ValidateCatalog(cat); len(verrs) > 0 {
		return nil, &CatalogError{Errors: verrs}
	}
	return cat, nil
}

func parseEntries(v cue.Value) ([]ir.Entry, error) {
	listVal := v.LookupPath(cue.ParsePath("entry"))
	if !listVal.Exists() {
		return nil, &CompileError{Field: "entry", Message: "entry list is required", Pos: v.Pos()}
	}

	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var entries []ir.Entry
	for iter.Next() {
		ev := iter.Value()
		id, err := ev.LookupPath(cue.ParsePath("id")).Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		entry := ir.Entry{ID: int(id)}
		for _, f := range []struct {
			name string
			dst  *string
		}{
			{"name", &entry.Name},
			{"project", &entry.Project},
			{"domain", &entry.Domain},
			{"data", &entry.Data},
			{"members", &entry.Members},
		} {
			if *f.dst, err = optionalString(ev, f.name); err != nil {
				return nil, err
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseCriteria(v cue.Value) ([]ir.Criterion, error) {
	listVal := v.LookupPath(cue.ParsePath("criterion"))
	if !listVal.Exists() {
		return nil, &CompileError{Field: "criterion", Message: "criterion list is required", Pos: v.Pos()}
	}

	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var criteria []ir.Criterion
	for iter.Next() {
		cv := iter.Value()
		var c ir.Criterion
		if c.ID, err = optionalString(cv, "id"); err != nil {
			return nil, err
		}
		if c.Name, err = optionalString(cv, "name"); err != nil {
			return nil, err
		}
		if c.Description, err = optionalString(cv, "description"); err != nil {
			return nil, err
		}
		weight, err := cv.LookupPath(cue.ParsePath("weight")).Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		c.Weight = int(weight)

		levelsVal := cv.LookupPath(cue.ParsePath("levels"))
		if levelsVal.Exists() {
			levelIter, err := levelsVal.List()
			if err != nil {
				return nil, formatCUEError(err)
			}
			c.Levels = make(map[int]string, ir.MaxScore)
			for score := ir.MinScore; levelIter.Next(); score++ {
				text, err := levelIter.Value().String()
				if err != nil {
					return nil, formatCUEError(err)
				}
				c.Levels[score] = text
			}
		}
		criteria = append(criteria, c)
	}
	return criteria, nil
}

// optionalString reads a string field, returning "" when absent.
func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CatalogError reports catalog invariant violations found after compilation.
type CatalogError struct {
	Errors []ValidationError
}

func (e *CatalogError) Error() string {
	if len(e.Errors) == 1 {
		return "invalid catalog: " + e.Errors[0].Error()
	}
	return fmt.Sprintf("invalid catalog: %s (and %d more)", e.Errors[0].Error(), len(e.Errors)-1)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error, with position info when CUE has it
	firstErr := errs[0]
	compileErr := &CompileError{Field: "cue", Message: firstErr.Error()}
	if positions := errors.Positions(firstErr); len(positions) > 0 {
		compileErr.Pos = positions[0]
	}
	return compileErr
}
