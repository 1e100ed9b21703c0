package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/relfilter/internal/filter"
)

// Scenario defines a cross-backend test scenario: a model, a set of
// fixture entities, and filter cases whose results both backends must
// agree on.
type Scenario struct {
	// Name uniquely identifies this scenario. It prefixes golden files.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Model is the path of the model (CUE directory, .cue or .yaml file),
	// relative to the scenario file.
	Model string `yaml:"model"`

	// Entity is the default entity type of the cases.
	Entity string `yaml:"entity,omitempty"`

	// Fixtures are the entities both backends load.
	Fixtures []Fixture `yaml:"fixtures"`

	// Cases are the filters to evaluate.
	Cases []Case `yaml:"cases"`
}

// Fixture is one entity. Relationship properties hold the primary value
// of the target (a list of them for to-many); inverse sides are linked
// automatically.
type Fixture struct {
	Type   string         `yaml:"type"`
	Values map[string]any `yaml:"values"`
}

// Case is one filter evaluated by both backends.
type Case struct {
	Name string `yaml:"name"`

	// Entity overrides the scenario's entity type.
	Entity string `yaml:"entity,omitempty"`

	// Where is a condition map (see filter.Conditions). Empty keeps every
	// entity.
	Where map[string]any `yaml:"where,omitempty"`

	// Order sorts the result. Without it the result is compared as a set.
	Order []OrderStep `yaml:"order,omitempty"`

	// Expect lists the primary values of the expected result.
	Expect []any `yaml:"expect"`

	// Error is the expected error code. Expect is ignored when set.
	Error string `yaml:"error,omitempty"`

	// Golden compares the compiled SQL with testdata/golden.
	Golden bool `yaml:"golden,omitempty"`
}

// OrderStep is one sort pair.
type OrderStep struct {
	Path      string `yaml:"path"`
	Direction string `yaml:"direction,omitempty"`
}

// EntityType returns the case's entity type.
func (c Case) EntityType(s *Scenario) string {
	if c.Entity != "" {
		return c.Entity
	}
	return s.Entity
}

// Filter converts Where into a call, nil when there is no condition.
func (c Case) Filter() (*filter.Call, error) {
	if len(c.Where) == 0 {
		return nil, nil
	}
	call, err := filter.Conditions(c.Where)
	if err != nil {
		return nil, err
	}
	return &call, nil
}

// Orders converts Order into sort pairs.
func (c Case) Orders() ([]filter.Order, error) {
	orders := make([]filter.Order, 0, len(c.Order))
	for _, o := range c.Order {
		dir, err := filter.ParseDirection(o.Direction)
		if err != nil {
			return nil, err
		}
		orders = append(orders, filter.Order{Path: o.Path, Direction: dir})
	}
	return orders, nil
}

// LoadScenario reads and parses a scenario YAML file. The model path is
// resolved relative to the scenario file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Model != "" && !filepath.IsAbs(scenario.Model) {
		scenario.Model = filepath.Join(filepath.Dir(path), scenario.Model)
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
	if s.Model == "" {
		return fmt.Errorf("model is required")
	}
	if _, err := os.Stat(s.Model); os.IsNotExist(err) {
		return fmt.Errorf("model not found: %s", s.Model)
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	for i, f := range s.Fixtures {
		if f.Type == "" {
			return fmt.Errorf("fixtures[%d]: type is required", i)
		}
	}

	names := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if names[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate name %q", i, c.Name)
		}
		names[c.Name] = true
		if c.EntityType(s) == "" {
			return fmt.Errorf("cases[%d]: entity is required", i)
		}
		for j, o := range c.Order {
			if o.Path == "" {
				return fmt.Errorf("cases[%d].order[%d]: path is required", i, j)
			}
		}
	}
	return nil
}
