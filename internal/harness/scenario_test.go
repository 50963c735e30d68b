package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Inline(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/python_process_order.yaml")
	require.NoError(t, err)

	assert.Equal(t, "python_process_order", s.Name)
	assert.Equal(t, "python", s.Language)
	assert.Equal(t, "orders.py", s.FilePath)
	assert.Contains(t, s.Source, "def process_order(order):\n")
	assert.Len(t, s.Assertions, 12)
	assert.Equal(t, AssertFunctionNames, s.Assertions[0].Type)
	assert.Equal(t, []string{"process_order"}, s.Assertions[0].Functions)
	assert.Equal(t, false, s.Assertions[11].Value)
}

func TestLoadScenario_FileIsRelativeToScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/c_sum_loop.yaml")
	require.NoError(t, err)

	assert.Equal(t, "../sources/sum.c", s.File)
	assert.Equal(t, filepath.Join("testdata", "sources", "sum.c"), s.resolvedFile)
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "unknown field",
			content: "name: x\ndescription: d\nlanguage: c\nsource: s\nasserts: []\n",
			want:    "field asserts not found",
		},
		{
			name:    "missing name",
			content: "description: d\nlanguage: c\nsource: s\n",
			want:    "name is required",
		},
		{
			name:    "missing language",
			content: "name: x\ndescription: d\nsource: s\n",
			want:    "language is required",
		},
		{
			name:    "source and file",
			content: "name: x\ndescription: d\nlanguage: c\nsource: s\nfile: a.c\n",
			want:    "mutually exclusive",
		},
		{
			name:    "missing file",
			content: "name: x\ndescription: d\nlanguage: c\nfile: nope.c\nexpect_error: parse\n",
			want:    "source file not found",
		},
		{
			name:    "no assertions",
			content: "name: x\ndescription: d\nlanguage: c\nsource: s\n",
			want:    "assertions list is required",
		},
		{
			name:    "unknown expected error",
			content: "name: x\ndescription: d\nlanguage: c\nsource: s\nexpect_error: timeout\n",
			want:    `unknown expect_error "timeout"`,
		},
		{
			name: "unknown assertion type",
			content: `name: x
description: d
language: c
source: s
assertions:
  - type: node_cuont
    function: f
`,
			want: `unknown assertion type "node_cuont"`,
		},
		{
			name: "assertion without function",
			content: `name: x
description: d
language: c
source: s
assertions:
  - type: node_count
    count: 3
`,
			want: "function is required for node_count",
		},
		{
			name: "has_edge without endpoints",
			content: `name: x
description: d
language: c
source: s
assertions:
  - type: has_edge
    function: f
    from: a
`,
			want: "from and to are required",
		},
		{
			name: "kind_count without kind",
			content: `name: x
description: d
language: c
source: s
assertions:
  - type: kind_count
    function: f
`,
			want: "kind is required",
		},
		{
			name: "metadata without key",
			content: `name: x
description: d
language: c
source: s
assertions:
  - type: metadata
    value: 1
`,
			want: "key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, t.TempDir(), "s.yaml", tt.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenarios(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.Equal(t, []string{
		"c_sum_loop",
		"go_total",
		"javascript_greet",
		"python_process_order",
		"python_syntax_error",
		"python_unreachable",
		"unknown_language",
	}, names)
}

func TestLoadScenarios_Errors(t *testing.T) {
	_, err := LoadScenarios(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scenario files")

	dir := t.TempDir()
	body := "name: same\ndescription: d\nlanguage: c\nsource: s\nexpect_error: parse\n"
	writeScenario(t, dir, "a.yaml", body)
	writeScenario(t, dir, "b.yml", body)
	_, err = LoadScenarios(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate scenario name "same"`)
}
