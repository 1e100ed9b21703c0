package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relfilter/internal/filter"
)

const testModel = `
entity:
  Author:
    properties:
      id: {type: int, primary: true}
      name: {type: string}
`

// writeScenario writes a model and a scenario into dir and returns the
// scenario path.
func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.yaml"), []byte(testModel), 0644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, `
name: authors
description: "Authors by name"
model: model.yaml
entity: Author
fixtures:
  - type: Author
    values: {id: 1, name: Doe}
cases:
  - name: by_name
    where: {name: Doe}
    order: [{path: name, direction: desc}]
    expect: [1]
    golden: true
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "authors", scenario.Name)
	assert.Equal(t, filepath.Join(dir, "model.yaml"), scenario.Model)
	require.Len(t, scenario.Fixtures, 1)
	assert.Equal(t, "Author", scenario.Fixtures[0].Type)
	require.Len(t, scenario.Cases, 1)

	c := scenario.Cases[0]
	assert.Equal(t, "Author", c.EntityType(scenario))
	assert.True(t, c.Golden)
	assert.Equal(t, []any{1}, c.Expect)

	call, err := c.Filter()
	require.NoError(t, err)
	require.NotNil(t, call)
	assert.Equal(t, filter.NewAnd(filter.Compare("name", "=", "Doe")), *call)

	orders, err := c.Orders()
	require.NoError(t, err)
	assert.Equal(t, []filter.Order{{Path: "name", Direction: filter.Desc}}, orders)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, t.TempDir(), `
name: authors
description: "Unknown field"
model: model.yaml
entity: Author
flow: []
cases:
  - name: all
    expect: []
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
description: "x"
model: model.yaml
entity: Author
cases: [{name: all, expect: []}]
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			content: `
name: s
model: model.yaml
entity: Author
cases: [{name: all, expect: []}]
`,
			wantErr: "description is required",
		},
		{
			name: "missing model",
			content: `
name: s
description: "x"
entity: Author
cases: [{name: all, expect: []}]
`,
			wantErr: "model is required",
		},
		{
			name: "model not found",
			content: `
name: s
description: "x"
model: missing.yaml
entity: Author
cases: [{name: all, expect: []}]
`,
			wantErr: "model not found",
		},
		{
			name: "no cases",
			content: `
name: s
description: "x"
model: model.yaml
entity: Author
`,
			wantErr: "cases list is required",
		},
		{
			name: "duplicate case",
			content: `
name: s
description: "x"
model: model.yaml
entity: Author
cases: [{name: all, expect: []}, {name: all, expect: []}]
`,
			wantErr: `duplicate name "all"`,
		},
		{
			name: "case without entity",
			content: `
name: s
description: "x"
model: model.yaml
cases: [{name: all, expect: []}]
`,
			wantErr: "entity is required",
		},
		{
			name: "fixture without type",
			content: `
name: s
description: "x"
model: model.yaml
entity: Author
fixtures: [{values: {id: 1}}]
cases: [{name: all, expect: []}]
`,
			wantErr: "fixtures[0]: type is required",
		},
		{
			name: "order without path",
			content: `
name: s
description: "x"
model: model.yaml
entity: Author
cases: [{name: all, order: [{direction: asc}], expect: []}]
`,
			wantErr: "cases[0].order[0]: path is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, t.TempDir(), tt.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCase_EmptyWhereHasNoFilter(t *testing.T) {
	call, err := Case{Name: "all"}.Filter()
	require.NoError(t, err)
	assert.Nil(t, call)
}

func TestCase_InvalidDirection(t *testing.T) {
	_, err := Case{Order: []OrderStep{{Path: "name", Direction: "sideways"}}}.Orders()
	require.Error(t, err)
	assert.True(t, filter.HasCode(err, filter.ErrCodeInvalidArgument))
}

func TestCase_EntityOverride(t *testing.T) {
	s := &Scenario{Entity: "Book"}
	assert.Equal(t, "Book", Case{}.EntityType(s))
	assert.Equal(t, "Tag", Case{Entity: "Tag"}.EntityType(s))
}
