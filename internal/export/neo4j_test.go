package export

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flowir/internal/frontend/csimple"
	"github.com/roach88/flowir/internal/ir"
)

type statement struct {
	cypher string
	params map[string]any
}

// recorder captures statements instead of sending them.
type recorder struct {
	statements []statement
	failOn     string
}

func (r *recorder) Run(_ context.Context, cypher string, params map[string]any) error {
	if r.failOn != "" && strings.Contains(cypher, r.failOn) {
		return errors.New("boom")
	}
	r.statements = append(r.statements, statement{cypher: cypher, params: params})
	return nil
}

func (r *recorder) batches(fragment string) [][]map[string]any {
	var out [][]map[string]any
	for _, s := range r.statements {
		if strings.Contains(s.cypher, fragment) {
			out = append(out, s.params["batch"].([]map[string]any))
		}
	}
	return out
}

func parseC(t *testing.T, src string) *ir.Module {
	t.Helper()
	f, err := csimple.New()
	require.NoError(t, err)
	m, err := f.ParseCode(context.Background(), []byte(src), "calc.c")
	require.NoError(t, err)
	return m
}

const calcSource = `int abs(int x) {
    if (x < 0) { return -x; }
    return x;
}

void noop(void) {
}
`

func TestExportModule(t *testing.T) {
	m := parseC(t, calcSource)
	rec := &recorder{}
	e := New(rec)

	counts, err := e.ExportModule(context.Background(), "key1", m)
	require.NoError(t, err)

	var wantNodes, wantEdges int
	for _, fn := range m.Functions {
		wantNodes += len(fn.Nodes)
		wantEdges += len(fn.Edges)
	}
	assert.Equal(t, Counts{Functions: 2, Nodes: wantNodes, Edges: wantEdges}, counts)

	require.GreaterOrEqual(t, len(rec.statements), 5)
	assert.Contains(t, rec.statements[0].cypher, "DETACH DELETE n, f")
	assert.Equal(t, "key1", rec.statements[0].params["key"])

	module := rec.statements[1]
	assert.Contains(t, module.cypher, "MERGE (m:FlowModule {key: $key})")
	assert.Equal(t, "c", module.params["language"])
	assert.Equal(t, "calc.c", module.params["file_path"])
	assert.Equal(t, `{"file_path":"calc.c"}`, module.params["metadata"])

	functions := rec.batches("MERGE (f:FlowFunction")
	require.Len(t, functions, 1)
	require.Len(t, functions[0], 2)
	abs := functions[0][0]
	assert.Equal(t, "key1#0", abs["key"])
	assert.Equal(t, "abs", abs["name"])
	assert.Equal(t, []string{"x"}, abs["parameters"])
	assert.Equal(t, "int", abs["returns"])
	assert.Nil(t, abs["docstring"])

	nodes := rec.batches("MERGE (n:FlowNode")
	require.Len(t, nodes, 1)
	first := nodes[0][0]
	assert.Equal(t, "key1#0/n0", first["key"])
	assert.Equal(t, "key1#0", first["function"])
	assert.Equal(t, "start", first["kind"])

	var located bool
	for _, row := range nodes[0] {
		if row["kind"] == "conditional" {
			located = true
			assert.Equal(t, 2, row["line"])
		}
	}
	assert.True(t, located)

	edges := rec.batches("FLOWS_TO")
	require.Len(t, edges, 1)
	for _, row := range edges[0] {
		assert.True(t, strings.HasPrefix(row["source"].(string), "key1#"))
	}
}

func TestExportModule_Batches(t *testing.T) {
	m := parseC(t, calcSource)
	rec := &recorder{}
	e := New(rec, WithBatchSize(2))

	counts, err := e.ExportModule(context.Background(), "k", m)
	require.NoError(t, err)

	nodeBatches := rec.batches("MERGE (n:FlowNode")
	assert.Len(t, nodeBatches, (counts.Nodes+1)/2)
	total := 0
	for _, b := range nodeBatches {
		assert.LessOrEqual(t, len(b), 2)
		total += len(b)
	}
	assert.Equal(t, counts.Nodes, total)
}

func TestExportModule_EmptyModule(t *testing.T) {
	rec := &recorder{}
	counts, err := New(rec).ExportModule(context.Background(), "k", &ir.Module{Language: "c"})
	require.NoError(t, err)
	assert.Equal(t, Counts{}, counts)
	assert.Len(t, rec.statements, 2, "only the clear and module statements run")
	assert.Equal(t, `{}`, rec.statements[1].params["metadata"])
}

func TestExportModule_RunnerError(t *testing.T) {
	rec := &recorder{failOn: "FLOWS_TO"}
	_, err := New(rec).ExportModule(context.Background(), "k", parseC(t, calcSource))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export k: edges")
}

func TestCreateIndexesAndClean(t *testing.T) {
	rec := &recorder{}
	e := New(rec)
	require.NoError(t, e.CreateIndexes(context.Background()))
	require.NoError(t, e.Clean(context.Background()))

	require.Len(t, rec.statements, 7)
	for _, s := range rec.statements[:4] {
		assert.Contains(t, s.cypher, "IF NOT EXISTS")
	}
	assert.Contains(t, rec.statements[4].cypher, "FlowNode")

	require.NoError(t, e.Close(context.Background()), "runner-backed exporters have nothing to close")

	rec.failOn = "CREATE INDEX"
	assert.Error(t, e.CreateIndexes(context.Background()))
}
