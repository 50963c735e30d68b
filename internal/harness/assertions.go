package harness

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/flowir/internal/ir"
	"github.com/roach88/flowir/internal/testutil"
)

// AssertionError is returned when an assertion fails.
// It includes the function graph to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Function *ir.Function // Graph the assertion ran against, if any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Function != nil {
		fmt.Fprintf(&buf, "\nGraph:\n%s", testutil.Describe(e.Function))
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion against m and returns the
// failure messages. An empty result means all assertions held.
func EvaluateAssertions(m *ir.Module, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(m, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(m *ir.Module, a Assertion) error {
	switch a.Type {
	case AssertFunctionNames:
		return assertFunctionNames(m, a)
	case AssertMetadata:
		return assertMetadata(m, a)
	}

	fn := m.Function(a.Function)
	if fn == nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("function %s", a.Function),
			Actual:   fmt.Sprintf("functions %v", functionNames(m)),
		}
	}

	switch a.Type {
	case AssertParameters:
		return assertParameters(fn, a)
	case AssertNodeCount:
		return assertCount(fn, a, len(fn.Nodes))
	case AssertEdgeCount:
		return assertCount(fn, a, len(fn.Edges))
	case AssertKindCount:
		return assertCount(fn, a, len(fn.NodesOfKind(ir.NodeKind(a.Kind))))
	case AssertHasNode:
		return assertHasNode(fn, a)
	case AssertNoNode:
		return assertNoNode(fn, a)
	case AssertHasEdge:
		return assertHasEdge(fn, a)
	case AssertSummary:
		return assertSummary(fn, a)
	}
	return fmt.Errorf("unknown assertion type: %s", a.Type)
}

func functionNames(m *ir.Module) []string {
	names := make([]string, len(m.Functions))
	for i, f := range m.Functions {
		names[i] = f.Name
	}
	return names
}

func assertFunctionNames(m *ir.Module, a Assertion) error {
	got := functionNames(m)
	if slices.Equal(got, a.Functions) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%v", a.Functions),
		Actual:   fmt.Sprintf("%v", got),
	}
}

func assertParameters(fn *ir.Function, a Assertion) error {
	if slices.Equal(fn.Parameters, a.Parameters) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s(%s)", fn.Name, strings.Join(a.Parameters, ", ")),
		Actual:   fmt.Sprintf("%s(%s)", fn.Name, strings.Join(fn.Parameters, ", ")),
	}
}

func assertCount(fn *ir.Function, a Assertion, got int) error {
	if got == a.Count {
		return nil
	}
	what := strings.TrimSuffix(a.Type, "_count")
	if a.Type == AssertKindCount {
		what = a.Kind
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%d %s in %s", a.Count, what, fn.Name),
		Actual:   fmt.Sprintf("%d", got),
		Function: fn,
	}
}

func assertHasNode(fn *ir.Function, a Assertion) error {
	for _, n := range testutil.NodesByLabel(fn, a.Label) {
		if a.Kind == "" || string(n.Kind) == a.Kind {
			return nil
		}
	}
	expected := fmt.Sprintf("node %q", a.Label)
	if a.Kind != "" {
		expected = fmt.Sprintf("%s node %q", a.Kind, a.Label)
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: expected,
		Actual:   "not found",
		Function: fn,
	}
}

func assertNoNode(fn *ir.Function, a Assertion) error {
	found := testutil.NodesByLabel(fn, a.Label)
	if len(found) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("no node %q", a.Label),
		Actual:   fmt.Sprintf("found %s", found[0].ID),
		Function: fn,
	}
}

func assertHasEdge(fn *ir.Function, a Assertion) error {
	for _, e := range fn.Edges {
		src, dst := fn.Node(e.Source), fn.Node(e.Target)
		if src == nil || dst == nil {
			continue
		}
		if src.Label == a.From && dst.Label == a.To && (a.Label == "" || e.Label == a.Label) {
			return nil
		}
	}
	expected := fmt.Sprintf("%q -> %q", a.From, a.To)
	if a.Label != "" {
		expected += fmt.Sprintf(" [%s]", a.Label)
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: expected,
		Actual:   fmt.Sprintf("edges %v", testutil.LabeledEdges(fn)),
		Function: fn,
	}
}

func assertSummary(fn *ir.Function, a Assertion) error {
	nodes := testutil.NodesByLabel(fn, a.Label)
	if len(nodes) == 0 {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("node %q", a.Label),
			Actual:   "not found",
			Function: fn,
		}
	}
	got := ir.Deref(nodes[0].Summary)
	if got == a.Text {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("summary %q for %q", a.Text, a.Label),
		Actual:   fmt.Sprintf("%q", got),
	}
}

func assertMetadata(m *ir.Module, a Assertion) error {
	meta, owner := m.Metadata, "module"
	if a.Function != "" {
		fn := m.Function(a.Function)
		if fn == nil {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("function %s", a.Function),
				Actual:   fmt.Sprintf("functions %v", functionNames(m)),
			}
		}
		meta, owner = fn.Metadata, "function "+fn.Name
	}

	want, err := ir.ToValue(a.Value)
	if err != nil {
		return fmt.Errorf("metadata value: %w", err)
	}
	wantJSON, err := ir.MarshalCanonical(want)
	if err != nil {
		return err
	}

	got, ok := meta[a.Key]
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s metadata %s = %s", owner, a.Key, wantJSON),
			Actual:   "key absent",
		}
	}
	gotJSON, err := ir.MarshalCanonical(got)
	if err != nil {
		return err
	}
	if bytes.Equal(wantJSON, gotJSON) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s metadata %s = %s", owner, a.Key, wantJSON),
		Actual:   string(gotJSON),
	}
}
