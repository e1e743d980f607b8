package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/scorecard/internal/compiler"
	"github.com/roach88/scorecard/internal/ir"
)

// LoadError reports catalog sources that could not be found or built.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadCatalog compiles the catalog at path: a single .cue file or a
// directory holding one CUE package. An empty path selects the embedded
// default catalog.
//
// Problems finding or building the CUE sources are *LoadError. Schema and
// consistency problems come back from the compiler unchanged.
func LoadCatalog(path string) (*ir.Catalog, error) {
	if path == "" {
		return compiler.DefaultCatalog()
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "catalog not found: " + path}
	case err != nil:
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("stat catalog: %v", err)}
	case info.IsDir():
		return loadCatalogDir(path)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("read catalog: %v", err)}
	}
	return compiler.CompileSource(path, string(src))
}

func loadCatalogDir(dir string) (*ir.Catalog, error) {
	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("scan %s: %v", dir, err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: "no CUE files found in " + dir}
	}

	insts := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(insts) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	if err := insts[0].Err; err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("load CUE package: %v", err)}
	}

	v := cuecontext.New().BuildInstance(insts[0])
	if err := v.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("build CUE value: %v", err), Pos: v.Pos()}
	}
	return compiler.CompileCatalog(v)
}

// FindCUEFiles returns every .cue file below dir.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return err
	})
	return files, err
}

// catalogErrorCode maps a LoadCatalog error to a CLI error code.
func catalogErrorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	var catErr *compiler.CatalogError
	if errors.As(err, &catErr) && len(catErr.Errors) > 0 {
		return catErr.Errors[0].Code
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return ErrCodeCompile
	}
	return ErrCodeGeneric
}

// CLI error codes. Domain failures report their ir.ErrorCode instead.
const (
	ErrCodeGeneric     = "E001"
	ErrCodeScanError   = "E002"
	ErrCodeNoFiles     = "E003"
	ErrCodeLoadFailed  = "E004"
	ErrCodeNotFound    = "E005"
	ErrCodeBuildFailed = "E006"
	ErrCodeWriteFailed = "E007"
	ErrCodeUsage       = "E008" // Malformed argument
	ErrCodeCompile     = "E009" // Catalog does not match the schema
	ErrCodeTestFailed  = "E010" // One or more scenarios failed
)
