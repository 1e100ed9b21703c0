package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden runs a scenario and compares the compiled SQL of every
// case marked golden against testdata/golden/{scenario}_{case}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for i, c := range scenario.Cases {
		if !c.Golden {
			continue
		}
		AssertGolden(t, g, scenario.Name+"_"+c.Name, result.Cases[i])
	}
	return result, nil
}

// AssertGolden compares one case's compiled query with a golden file.
func AssertGolden(t *testing.T, g *goldie.Goldie, name string, cr CaseResult) {
	t.Helper()
	g.Assert(t, name, []byte(FormatQuery(cr.Query, cr.Args)))
}

// FormatQuery renders a query and its arguments the way golden files
// store them.
func FormatQuery(query string, args []any) string {
	return fmt.Sprintf("%s\nargs: %v\n", query, args)
}
