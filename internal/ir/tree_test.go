package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeTreeOmitsAbsentLocation(t *testing.T) {
	n := Node{ID: "n0", Kind: KindStart, Label: "start", Summary: Text("Begin the function.")}

	tree := n.Tree()
	_, hasLocation := tree["location"]
	assert.False(t, hasLocation)
	assert.Equal(t, Object{}, tree["metadata"])
	assert.Equal(t, String("Begin the function."), tree["summary"])
}

func TestNodeTreeNullSummary(t *testing.T) {
	n := Node{ID: "n3", Kind: KindStatement, Label: "x = 1",
		Location: &Location{FilePath: "a.py", Line: 2, Column: 4}}

	data, err := json.Marshal(n.Tree())
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"id":"n3","kind":"statement","label":"x = 1","summary":null,"metadata":{},"location":{"file_path":"a.py","line":2,"column":4}}`,
		string(data))
}

func TestEdgeTreeOmitsEmptyLabelAndMetadata(t *testing.T) {
	plain := Edge{Source: "n0", Target: "n1"}
	assert.Equal(t, Object{"source": String("n0"), "target": String("n1")}, plain.Tree())

	labeled := Edge{Source: "n2", Target: "n1", Label: LabelReturn, Metadata: Object{"k": Int(1)}}
	tree := labeled.Tree()
	assert.Equal(t, String("Return"), tree["label"])
	assert.Equal(t, Object{"k": Int(1)}, tree["metadata"])
}

func TestModuleJSONRoundTrip(t *testing.T) {
	m := Module{
		Language: "python",
		Metadata: Object{"file_path": String("orders.py")},
		Functions: []Function{{
			Name:       "f",
			Parameters: []string{"a"},
			Returns:    Text("int"),
			Metadata:   Object{"async": Bool(false)},
			Nodes: []Node{
				{ID: "n0", Kind: KindStart, Label: "start", Summary: Text("Begin the function.")},
				{ID: "n1", Kind: KindEnd, Label: "end", Metadata: Object{"reason": String("function_terminator")}},
			},
			Edges: []Edge{{Source: "n0", Target: "n1"}},
		}},
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)

	decoded, err := ParseModule(data)
	require.NoError(t, err)
	assert.Equal(t, MustModuleHash(&m), MustModuleHash(decoded))
	assert.Nil(t, decoded.Functions[0].Docstring)
	assert.Equal(t, "int", Deref(decoded.Functions[0].Returns))
}

func TestFunctionLookups(t *testing.T) {
	f := Function{
		Nodes: []Node{
			{ID: "n0", Kind: KindStart},
			{ID: "n1", Kind: KindEnd},
			{ID: "n2", Kind: KindReturn},
		},
		Edges: []Edge{
			{Source: "n2", Target: "n1", Label: LabelReturn},
			{Source: "n0", Target: "n2"},
		},
	}

	assert.Equal(t, "n0", f.Start().ID)
	assert.Equal(t, "n1", f.End().ID)
	assert.Nil(t, f.Node("n9"))
	assert.Len(t, f.Outgoing("n2"), 1)
	assert.Len(t, f.Incoming("n2"), 1)
	assert.Len(t, f.NodesOfKind(KindReturn), 1)
}
