package schema

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"

	"github.com/roach88/relfilter/internal/meta"
)

//go:embed model.cue
var modelSchema string

// LoadCUE loads entity definitions from the CUE package in dir. Entities
// live under the top-level "entity" field:
//
//	entity: Book: {
//		properties: {
//			id:     {type: "int", primary: true}
//			author: {relationship: {target: "Author", cardinality: "manyHasOne", property: "books"}}
//		}
//	}
func LoadCUE(dir string) (map[string]meta.EntityDefinition, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("model directory not found: %s", dir)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("scanning %s: %v", dir, err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	v := ctx.BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return decodeModel(ctx, v)
}

// ParseCUE compiles a single CUE source. filename is used in positions.
func ParseCUE(filename string, src []byte) (map[string]meta.EntityDefinition, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return decodeModel(ctx, v)
}

// decodeModel checks v against the #Model definition and decodes the
// entities.
func decodeModel(ctx *cue.Context, v cue.Value) (map[string]meta.EntityDefinition, error) {
	def := ctx.CompileString(modelSchema, cue.Filename("model.cue")).LookupPath(cue.ParsePath("#Model"))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("model schema: %w", err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	entities := unified.LookupPath(cue.ParsePath("entity"))
	if !entities.Exists() {
		return nil, &CompileError{Field: "entity", Message: "no entities defined", Pos: v.Pos()}
	}

	defs := make(map[string]meta.EntityDefinition)
	iter, err := entities.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		var ed meta.EntityDefinition
		if err := iter.Value().Decode(&ed); err != nil {
			return nil, &CompileError{
				Field:   "entity." + iter.Label(),
				Message: err.Error(),
				Pos:     iter.Value().Pos(),
			}
		}
		defs[iter.Label()] = ed
	}
	if len(defs) == 0 {
		return nil, &CompileError{Field: "entity", Message: "no entities defined", Pos: entities.Pos()}
	}
	return defs, nil
}

// FindCUEFiles walks dir and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// formatCUEError keeps the position of the first CUE error.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}
