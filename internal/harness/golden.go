package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/flowir/internal/ir"
)

// GoldenJSON renders m as indented canonical JSON. Key order and string
// normalization follow MarshalCanonical, so equal modules render equally.
func GoldenJSON(m *ir.Module) ([]byte, error) {
	data, err := ir.MarshalCanonical(m)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares the module against a
// golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the module doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario, opts Options) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, opts)
	if err != nil {
		return nil, err
	}
	if result.Module == nil {
		return result, fmt.Errorf("scenario %s produced no module", scenario.Name)
	}
	if err := AssertGolden(t, scenario.Name, result.Module); err != nil {
		return result, err
	}
	return result, nil
}

// AssertGolden compares m against testdata/golden/{name}.golden.
func AssertGolden(t *testing.T, name string, m *ir.Module) error {
	t.Helper()

	data, err := GoldenJSON(m)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
