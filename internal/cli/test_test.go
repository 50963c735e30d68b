package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	harnessScenarios = "../harness/testdata/scenarios"
	harnessGolden    = "../harness/testdata/golden"
)

type testResponse struct {
	Status string     `json:"status"`
	Data   TestResult `json:"data"`
	Error  *CLIError  `json:"error"`
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, _, err := execute(NewTestCommand(testOptions("text")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, _, err := execute(NewTestCommand(testOptions("text")), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, _, err := execute(NewTestCommand(testOptions("text")), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, _, err := execute(NewTestCommand(testOptions("json")), t.TempDir())
	require.NoError(t, err)

	var resp testResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Total)
	assert.Empty(t, resp.Data.Scenarios)
}

func TestTestCommandRunsConformanceScenarios(t *testing.T) {
	out, _, err := execute(NewTestCommand(testOptions("text")), harnessScenarios, "--golden-dir", harnessGolden)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ c_sum_loop\n")
	assert.Contains(t, out, "✓ python_syntax_error\n")
	assert.Contains(t, out, "Test Summary: 7 passed, 0 failed, 7 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandGoldenStatusJSON(t *testing.T) {
	out, _, err := execute(NewTestCommand(testOptions("json")), harnessScenarios,
		"--golden-dir", harnessGolden, "--filter", "c_*")
	require.NoError(t, err)

	var resp testResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, TestResult{
		Scenarios: []ScenarioResult{{Name: "c_sum_loop", Pass: true, Golden: "matched"}},
		Passed:    1,
		Total:     1,
	}, resp.Data)
}

func TestTestCommandFilter(t *testing.T) {
	out, _, err := execute(NewTestCommand(testOptions("text")), harnessScenarios,
		"--golden-dir", harnessGolden, "--filter", "python_*")
	require.NoError(t, err)
	assert.Contains(t, out, "3 passed, 0 failed, 3 total")
	assert.NotContains(t, out, "c_sum_loop")

	_, _, err = execute(NewTestCommand(testOptions("text")), harnessScenarios, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandUpdateWritesGolden(t *testing.T) {
	goldenDir := filepath.Join(t.TempDir(), "golden")

	out, _, err := execute(NewTestCommand(testOptions("text")), harnessScenarios,
		"--golden-dir", goldenDir, "--filter", "c_sum_loop", "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ c_sum_loop (golden updated)")

	written, err := os.ReadFile(filepath.Join(goldenDir, "c_sum_loop.golden"))
	require.NoError(t, err)
	expected, err := os.ReadFile(filepath.Join(harnessGolden, "c_sum_loop.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(expected), string(written))
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	goldenDir := t.TempDir()
	writeFile(t, goldenDir, "c_sum_loop.golden", "{}\n")

	out, _, err := execute(NewTestCommand(testOptions("text")), harnessScenarios,
		"--golden-dir", goldenDir, "--filter", "c_sum_loop")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ c_sum_loop\n  module does not match golden file")
	assert.Contains(t, out, "0 passed, 1 failed, 1 total")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "wrong_count.yaml", `name: wrong_count
description: "Counts a node that is not there"
language: python
source: |
  def f():
      return 1
assertions:
  - type: node_count
    function: f
    count: 99
`)
	writeFile(t, dir, "unreadable.yaml", "name: [\n")

	out, _, err := execute(NewTestCommand(testOptions("json")), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp testResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeScenario, resp.Error.Code)
	assert.Equal(t, 2, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios, 2)

	assert.Equal(t, "unreadable.yaml", resp.Data.Scenarios[0].Name)
	assert.Contains(t, resp.Data.Scenarios[0].Errors[0], "failed to load scenario")

	assert.Equal(t, "wrong_count", resp.Data.Scenarios[1].Name)
	assert.Equal(t, "missing", resp.Data.Scenarios[1].Golden)
	require.NotEmpty(t, resp.Data.Scenarios[1].Errors)
	assert.Contains(t, resp.Data.Scenarios[1].Errors[0], "node_count")
}
