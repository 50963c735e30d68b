package schema

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flowir/internal/frontend/csimple"
	"github.com/roach88/flowir/internal/ir"
)

const validDoc = `{
  "language": "c",
  "metadata": {"file_path": "a.c"},
  "functions": [{
    "name": "f",
    "parameters": ["x"],
    "returns": "int",
    "docstring": null,
    "metadata": {},
    "nodes": [
      {"id": "n0", "kind": "start", "label": "Start", "summary": "Begin the function.", "metadata": {}},
      {"id": "n1", "kind": "end", "label": "End", "summary": null, "metadata": {}},
      {"id": "n2", "kind": "return", "label": "return x", "summary": null, "metadata": {},
       "location": {"file_path": "a.c", "line": 2, "column": 4}}
    ],
    "edges": [
      {"source": "n0", "target": "n2"},
      {"source": "n2", "target": "n1", "label": "Return"}
    ]
  }]
}`

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New()
	require.NoError(t, err)
	return v
}

func TestValidate_Valid(t *testing.T) {
	v := newValidator(t)
	require.NoError(t, v.Validate("doc.json", []byte(validDoc)))

	m, err := v.Check("doc.json", []byte(validDoc))
	require.NoError(t, err)
	assert.Equal(t, "c", m.Language)
	assert.Len(t, m.Functions[0].Nodes, 3)
}

func TestValidate_FrontendOutput(t *testing.T) {
	f, err := csimple.New()
	require.NoError(t, err)
	m, err := f.ParseCode(context.Background(), []byte(`
int clamp(int v, int lo, int hi) {
    if (v < lo) { return lo; }
    while (v > hi) { v--; }
    do { v++; } while (v < lo);
    return v;
}
`), "clamp.c")
	require.NoError(t, err)

	data, err := ir.MarshalCanonical(m)
	require.NoError(t, err)
	_, err = newValidator(t).Check("clamp.json", data)
	require.NoError(t, err)
}

func TestValidate_ShapeMismatches(t *testing.T) {
	tests := []struct {
		name    string
		replace [2]string
		want    string
	}{
		{"unknown kind", [2]string{`"kind": "return"`, `"kind": "jump"`}, "kind"},
		{"missing label", [2]string{`"label": "End", `, ``}, "label"},
		{"extra field", [2]string{`"name": "f",`, `"name": "f", "colour": "red",`}, "colour"},
		{"zero line", [2]string{`"line": 2`, `"line": 0`}, "line"},
		{"empty edge label", [2]string{`"label": "Return"`, `"label": ""`}, "label"},
		{"numeric name", [2]string{`"name": "f"`, `"name": 7`}, "name"},
	}
	v := newValidator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := strings.Replace(validDoc, tt.replace[0], tt.replace[1], 1)
			require.NotEqual(t, validDoc, doc)

			err := v.Validate("doc.json", []byte(doc))
			var serr *Error
			require.ErrorAs(t, err, &serr)
			require.NotEmpty(t, serr.Issues)
			assert.Equal(t, "doc.json", serr.File)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_TooFewNodes(t *testing.T) {
	doc := `{"language": "c", "metadata": {}, "functions": [{
	  "name": "f", "parameters": [], "returns": null, "docstring": null, "metadata": {},
	  "nodes": [{"id": "n0", "kind": "start", "label": "Start", "summary": null, "metadata": {}}],
	  "edges": []}]}`
	err := newValidator(t).Validate("doc.json", []byte(doc))
	var serr *Error
	require.ErrorAs(t, err, &serr)
}

func TestValidate_MalformedJSON(t *testing.T) {
	err := newValidator(t).Validate("broken.json", []byte(`{"language": `))
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, err.Error(), "broken.json")
}

func TestCheck_InvariantViolation(t *testing.T) {
	doc := strings.Replace(validDoc, `{"source": "n2", "target": "n1", "label": "Return"}`,
		`{"source": "n2", "target": "n9", "label": "Return"}`, 1)

	require.NoError(t, newValidator(t).Validate("doc.json", []byte(doc)), "shape is fine")
	_, err := Check("doc.json", []byte(doc))
	var verr *ir.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestCheck_FloatMetadata(t *testing.T) {
	doc := strings.Replace(validDoc, `"metadata": {"file_path": "a.c"}`,
		`"metadata": {"file_path": "a.c", "ratio": 0.5}`, 1)
	_, err := Check("doc.json", []byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats not allowed")
}

func TestIssueString(t *testing.T) {
	assert.Equal(t, "functions.0.name: conflicting values",
		Issue{Path: "functions.0.name", Message: "conflicting values"}.String())
	assert.Equal(t, "bare", Issue{Message: "bare"}.String())
}
