// Package schema loads entity models from CUE packages or YAML files.
package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/relfilter/internal/meta"
)

// Load error codes.
const (
	ErrCodeGeneric     = "E001"
	ErrCodeScanError   = "E002"
	ErrCodeNoFiles     = "E003"
	ErrCodeLoadFailed  = "E004"
	ErrCodeNotFound    = "E005"
	ErrCodeInvalidYAML = "E006"
	ErrCodeInvalid     = "E007"
)

// LoadError reports a model that could not be read.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CompileError is a model definition error with its CUE source position.
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

// document is the YAML model layout, mirroring the CUE one.
type document struct {
	Entity map[string]meta.EntityDefinition `yaml:"entity"`
}

// ParseYAML reads entity definitions from a YAML document.
func ParseYAML(data []byte) (map[string]meta.EntityDefinition, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidYAML, Message: err.Error()}
	}
	if len(doc.Entity) == 0 {
		return nil, &LoadError{Code: ErrCodeInvalid, Message: "no entities defined"}
	}
	return doc.Entity, nil
}

// LoadYAML reads entity definitions from a YAML file.
func LoadYAML(path string) (map[string]meta.EntityDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}
	return ParseYAML(data)
}

// Load builds a model from path: a directory holding a CUE package, a
// single .cue file, or a .yaml/.yml file.
func Load(path string) (*meta.Model, error) {
	defs, err := loadDefinitions(path)
	if err != nil {
		return nil, err
	}
	model, err := meta.NewModel(defs)
	if err != nil {
		return nil, fmt.Errorf("build model from %s: %w", path, err)
	}
	return model, nil
}

func loadDefinitions(path string) (map[string]meta.EntityDefinition, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("model not found: %s", path)}
	}
	if info.IsDir() {
		return LoadCUE(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	case ".cue":
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading %s: %v", path, err)}
		}
		return ParseCUE(path, src)
	}
	return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("unsupported model file %s", path)}
}
