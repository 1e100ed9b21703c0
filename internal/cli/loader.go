package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/relfilter/internal/filter"
	"github.com/roach88/relfilter/internal/harness"
	"github.com/roach88/relfilter/internal/meta"
	"github.com/roach88/relfilter/internal/schema"
)

// CLI error codes not covered by schema, meta or filter codes.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeInvalidInput = "E010" // Malformed --filter or --sort
	ErrCodeDefinition   = "E011" // Invalid model definition
	ErrCodeExecute      = "E012" // Query execution failed
)

// errorCode maps an error to the code shown to users: the code carried by
// the error when it has one, ErrCodeGeneric otherwise.
func errorCode(err error) string {
	var le *schema.LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	var ce *schema.CompileError
	if errors.As(err, &ce) {
		return schema.ErrCodeInvalid
	}
	var de *meta.DefinitionError
	if errors.As(err, &de) {
		return ErrCodeDefinition
	}
	var ie *inputError
	if errors.As(err, &ie) {
		return ErrCodeInvalidInput
	}
	var ee *execError
	if errors.As(err, &ee) {
		return ErrCodeExecute
	}
	if code := harness.ErrorCode(err); code != "ERROR" {
		return code
	}
	return ErrCodeGeneric
}

// inputError is a malformed command-line argument.
type inputError struct {
	flag string
	err  error
}

func (e *inputError) Error() string { return fmt.Sprintf("--%s: %v", e.flag, e.err) }

func (e *inputError) Unwrap() error { return e.err }

// execError is a database failure while running a compiled query.
type execError struct {
	err error
}

func (e *execError) Error() string { return fmt.Sprintf("execute: %v", e.err) }

func (e *execError) Unwrap() error { return e.err }

// loadModel loads the model at path, falling back to the configured schema.
func loadModel(opts *RootOptions, path string) (*meta.Model, error) {
	if path == "" {
		path = opts.settings().Schema
	}
	opts.logger().Debug("loading model", "path", path)
	return schema.Load(path)
}

// parseFilter reads a condition map from YAML (or JSON). A value starting
// with "@" names a file. An empty value means no filter.
func parseFilter(raw string) (*filter.Call, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	data := []byte(raw)
	if path, ok := strings.CutPrefix(raw, "@"); ok {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, &inputError{flag: "filter", err: err}
		}
	}

	var conds map[string]any
	if err := yaml.Unmarshal(data, &conds); err != nil {
		return nil, &inputError{flag: "filter", err: fmt.Errorf("expected a condition map: %w", err)}
	}
	if len(conds) == 0 {
		return nil, nil
	}
	call, err := filter.Conditions(conds)
	if err != nil {
		return nil, &inputError{flag: "filter", err: err}
	}
	return &call, nil
}

// parseSort reads "path[:asc|desc]" pairs.
func parseSort(specs []string) ([]filter.Order, error) {
	orders := make([]filter.Order, 0, len(specs))
	for _, s := range specs {
		path, dir, _ := strings.Cut(s, ":")
		if path == "" {
			return nil, &inputError{flag: "sort", err: fmt.Errorf("empty property path in %q", s)}
		}
		d, err := filter.ParseDirection(dir)
		if err != nil {
			return nil, &inputError{flag: "sort", err: err}
		}
		orders = append(orders, filter.Order{Path: path, Direction: d})
	}
	return orders, nil
}
