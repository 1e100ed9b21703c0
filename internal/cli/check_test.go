package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenarioDir = filepath.Join("..", "..", "testdata", "scenarios")

func writeScenario(t *testing.T, dir, name, expect string) string {
	t.Helper()
	model, err := filepath.Abs(libraryModel)
	require.NoError(t, err)
	content := `name: ` + name + `
description: "written by a test"
model: ` + model + `
entity: Author
fixtures:
  - type: Author
    values: {id: 1, lastName: Doe}
  - type: Author
    values: {id: 2, lastName: Smith}
cases:
  - name: doe
    where: {lastName: Doe}
    expect: ` + expect + `
`
	path := filepath.Join(dir, name+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCheck_Scenarios(t *testing.T) {
	out, err := runRoot(t, "check", scenarioDir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ library (")
	assert.Contains(t, out, "✓ ratings (")
	assert.Contains(t, out, "Check Summary: 2 passed, 0 failed, 2 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestCheck_Filter(t *testing.T) {
	out, err := runRoot(t, "check", scenarioDir, "--filter", "rat*")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ ratings (")
	assert.NotContains(t, out, "library")
	assert.Contains(t, out, "1 total")
}

func TestCheck_JSON(t *testing.T) {
	out, err := runRoot(t, "check", scenarioDir, "--format", "json")
	require.NoError(t, err)

	status, result, cliErr := decodeResponse[CheckResult](t, out)
	assert.Equal(t, "ok", status)
	assert.Nil(t, cliErr)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Passed)
	for _, s := range result.Scenarios {
		assert.True(t, s.Pass, s.Name)
		assert.Positive(t, s.Cases, s.Name)
	}
}

func TestCheck_Failure(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "good", "[1]")
	writeScenario(t, dir, "bad", "[2]")

	out, err := runRoot(t, "check", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ good (1 cases)")
	assert.Contains(t, out, "✗ bad")
	assert.Contains(t, out, "case doe: memory returned [1], expected [2]")
	assert.Contains(t, out, "Check Summary: 1 passed, 1 failed, 2 total")

	out, err = runRoot(t, "check", dir, "--format", "json")
	require.Error(t, err)
	status, result, cliErr := decodeResponse[CheckResult](t, out)
	assert.Equal(t, "error", status)
	require.NotNil(t, cliErr)
	assert.Equal(t, "E_CHECK_FAILED", cliErr.Code)
	assert.Equal(t, 1, result.Failed)
}

func TestCheck_LoadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: broken\n"), 0o644))

	out, err := runRoot(t, "check", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "Load error:")
}

func TestCheck_MissingPath(t *testing.T) {
	out, err := runRoot(t, "check", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]: scenario path not found")
}

func TestCheck_NoScenarios(t *testing.T) {
	out, err := runRoot(t, "check", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yml", "c.txt", "nested/d.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}

	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{"all", "", []string{"a.yaml", "b.yml", "nested/d.yaml"}},
		{"glob", "[ab]", []string{"a.yaml", "b.yml"}},
		{"nested", "d", []string{"nested/d.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := findScenarioFiles(dir, tt.filter)
			require.NoError(t, err)
			var rel []string
			for _, f := range files {
				r, err := filepath.Rel(dir, f)
				require.NoError(t, err)
				rel = append(rel, filepath.ToSlash(r))
			}
			assert.Equal(t, tt.want, rel)
		})
	}

	_, err := findScenarioFiles(dir, "[")
	assert.Error(t, err)
}
