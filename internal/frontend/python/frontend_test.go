package python

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flowir/internal/frontend"
	"github.com/roach88/flowir/internal/ir"
)

func parse(t *testing.T, src string) *ir.Module {
	t.Helper()
	f, err := New()
	require.NoError(t, err)
	m, err := f.ParseCode(context.Background(), []byte(src), "test.py")
	require.NoError(t, err)
	require.NoError(t, ir.ValidateModule(m))
	return m
}

func parseOne(t *testing.T, src string) *ir.Function {
	t.Helper()
	m := parse(t, src)
	require.Len(t, m.Functions, 1)
	return &m.Functions[0]
}

func edges(f *ir.Function) [][3]string {
	out := make([][3]string, len(f.Edges))
	for i, e := range f.Edges {
		out[i] = [3]string{e.Source, e.Target, e.Label}
	}
	return out
}

func nodeLabels(f *ir.Function) []string {
	out := make([]string, len(f.Nodes))
	for i, n := range f.Nodes {
		out[i] = n.Label
	}
	return out
}

const processOrder = `def process_order(order):
    if order.total > 100:
        apply_discount(order)
    else:
        apply_standard_pricing(order)
    for item in order.items:
        ship_item(item)
    return order.receipt()
`

func TestProcessOrderScenario(t *testing.T) {
	m := parse(t, processOrder)
	require.Len(t, m.Functions, 1)
	fn := &m.Functions[0]

	assert.Equal(t, "python", m.Language)
	assert.Equal(t, ir.String("test.py"), m.Metadata["file_path"])
	assert.Equal(t, "process_order", fn.Name)
	assert.Equal(t, []string{"order"}, fn.Parameters)
	assert.Nil(t, fn.Returns)
	assert.Nil(t, fn.Docstring)
	assert.Equal(t, ir.Bool(false), fn.Metadata["async"])

	assert.Equal(t, []string{
		"Start",
		"End",
		"if order.total > 100",
		"apply_discount(order)",
		"apply_standard_pricing(order)",
		"for item in order.items",
		"ship_item(item)",
		"return order.receipt()",
	}, nodeLabels(fn))

	kinds := []ir.NodeKind{
		ir.KindStart, ir.KindEnd, ir.KindConditional, ir.KindStatement,
		ir.KindStatement, ir.KindLoop, ir.KindStatement, ir.KindReturn,
	}
	for i, k := range kinds {
		assert.Equal(t, k, fn.Nodes[i].Kind, "node %d", i)
	}

	assert.Equal(t, [][3]string{
		{"n2", "n3", "True"},
		{"n2", "n4", "False"},
		{"n0", "n2", ""},
		{"n5", "n6", "Loop body"},
		{"n6", "n5", "Iterate"},
		{"n3", "n5", ""},
		{"n4", "n5", ""},
		{"n7", "n1", "Return"},
		{"n5", "n7", ""},
	}, edges(fn))

	assert.Contains(t, ir.Deref(fn.Nodes[2].Summary), "Check whether")
	assert.Equal(t, "Check whether order.total is greater than 100.", ir.Deref(fn.Nodes[2].Summary))
	assert.Equal(t, "Repeat for each item in order items.", ir.Deref(fn.Nodes[5].Summary))
	assert.Equal(t, "Begin the function.", ir.Deref(fn.Nodes[0].Summary))
	assert.Equal(t, "Finish the function.", ir.Deref(fn.Nodes[1].Summary))
	assert.Equal(t, ir.Object{"reason": ir.String("function_terminator")}, fn.Nodes[1].Metadata)
}

func TestLocations(t *testing.T) {
	fn := parseOne(t, processOrder)

	loc := func(i int) ir.Location {
		require.NotNil(t, fn.Nodes[i].Location, "node %d", i)
		return *fn.Nodes[i].Location
	}
	assert.Equal(t, ir.Location{FilePath: "test.py", Line: 1, Column: 0}, loc(0))
	assert.Equal(t, ir.Location{FilePath: "test.py", Line: 1, Column: 0}, loc(1))
	// Conditionals are located at their test expression.
	assert.Equal(t, ir.Location{FilePath: "test.py", Line: 2, Column: 7}, loc(2))
	assert.Equal(t, ir.Location{FilePath: "test.py", Line: 6, Column: 4}, loc(5))
	assert.Equal(t, ir.Location{FilePath: "test.py", Line: 8, Column: 4}, loc(7))
}

func TestEmptyFilePathUsesMemory(t *testing.T) {
	f, err := New()
	require.NoError(t, err)
	m, err := f.ParseCode(context.Background(), []byte(processOrder), "")
	require.NoError(t, err)
	assert.Equal(t, ir.String("<memory>"), m.Metadata["file_path"])
	assert.Equal(t, "<memory>", m.Functions[0].Nodes[0].Location.FilePath)
}

func TestEarlyReturnDropsTrailingStatements(t *testing.T) {
	fn := parseOne(t, `def f():
    return 1
    print("never")
    x = 2
`)
	assert.Equal(t, []string{"Start", "End", "return 1"}, nodeLabels(fn))
	assert.Equal(t, [][3]string{
		{"n2", "n1", "Return"},
		{"n0", "n2", ""},
	}, edges(fn))
}

func TestIfWithoutElseFallsThrough(t *testing.T) {
	fn := parseOne(t, `def f(x):
    if x:
        y()
    z()
`)
	assert.Equal(t, [][3]string{
		{"n2", "n3", "True"},
		{"n0", "n2", ""},
		{"n3", "n4", ""},
		{"n2", "n4", ""},
		{"n4", "n1", ""},
	}, edges(fn))
	for _, e := range fn.Outgoing("n2") {
		assert.NotEqual(t, "False", e.Label)
	}
}

func TestElifChainNestsConditionals(t *testing.T) {
	fn := parseOne(t, `def grade(score):
    if score > 90:
        return "A"
    elif score > 80:
        return "B"
    else:
        return "C"
`)
	assert.Equal(t, []string{
		"Start", "End", "if score > 90", `return "A"`, "if score > 80", `return "B"`, `return "C"`,
	}, nodeLabels(fn))
	assert.Len(t, fn.NodesOfKind(ir.KindConditional), 2)
	assert.Equal(t, [][3]string{
		{"n3", "n1", "Return"},
		{"n2", "n3", "True"},
		{"n5", "n1", "Return"},
		{"n4", "n5", "True"},
		{"n6", "n1", "Return"},
		{"n4", "n6", "False"},
		{"n2", "n4", "False"},
		{"n0", "n2", ""},
	}, edges(fn))
}

func TestWhileWithElse(t *testing.T) {
	fn := parseOne(t, `def f(n):
    while n > 0:
        n -= 1
    else:
        done()
`)
	assert.Equal(t, []string{"Start", "End", "while n > 0", "n -= 1", "done()"}, nodeLabels(fn))
	assert.Equal(t, [][3]string{
		{"n2", "n3", "Loop body"},
		{"n3", "n2", "Iterate"},
		{"n2", "n4", "Loop orelse"},
		{"n0", "n2", ""},
		{"n4", "n1", ""},
		{"n2", "n1", ""},
	}, edges(fn))
}

func TestAsyncFunction(t *testing.T) {
	fn := parseOne(t, `async def fetch(session, url) -> bytes:
    async with session.get(url) as resp:
        async for chunk in resp.content:
            yield_chunk(chunk)
    return b""
`)
	assert.Equal(t, ir.Bool(true), fn.Metadata["async"])
	assert.Equal(t, "bytes", ir.Deref(fn.Returns))
	assert.Equal(t, []string{"session", "url"}, fn.Parameters)
	assert.Equal(t, "async with session.get(url) as resp", fn.Nodes[2].Label)
	assert.Equal(t, "async for chunk in resp.content", fn.Nodes[3].Label)
	assert.Equal(t, ir.KindLoop, fn.Nodes[3].Kind)
}

func TestTryExceptElseFinally(t *testing.T) {
	fn := parseOne(t, `def load(path):
    try:
        data = read(path)
    except (IOError, OSError) as err:
        log(err)
    except ValueError:
        raise
    else:
        cache(data)
    finally:
        close()
`)
	assert.Equal(t, []string{
		"Start", "End", "try", "data = read(path)",
		"except (IOError, OSError) as err", "log(err)",
		"except ValueError", "raise",
		"cache(data)", "close()",
	}, nodeLabels(fn))
	assert.Equal(t, ir.KindException, fn.Nodes[4].Kind)
	assert.Equal(t, ir.KindException, fn.Nodes[6].Kind)
	assert.Equal(t, ir.KindException, fn.Nodes[7].Kind)

	assert.Equal(t, [][3]string{
		{"n2", "n3", "Try body"},
		{"n2", "n4", "Exception"},
		{"n4", "n5", ""},
		{"n2", "n6", "Exception"},
		{"n7", "n1", "Raise"},
		{"n6", "n7", ""},
		{"n3", "n8", ""},
		{"n8", "n9", ""},
		{"n0", "n2", ""},
		{"n5", "n1", ""},
		{"n9", "n1", ""},
	}, edges(fn))
}

func TestWithStatement(t *testing.T) {
	fn := parseOne(t, `def f():
    with open(a) as x, lock:
        use(x)
`)
	assert.Equal(t, []string{"Start", "End", "with open(a) as x, lock", "use(x)"}, nodeLabels(fn))
	assert.Equal(t, ir.KindStatement, fn.Nodes[2].Kind)
	assert.Equal(t, [][3]string{
		{"n2", "n3", ""},
		{"n0", "n2", ""},
		{"n3", "n1", ""},
	}, edges(fn))
}

func TestRaiseFromKeepsException(t *testing.T) {
	fn := parseOne(t, `def f():
    raise ValueError("bad") from err
`)
	assert.Equal(t, "raise ValueError(\"bad\")", fn.Nodes[2].Label)
	assert.Equal(t, ir.KindException, fn.Nodes[2].Kind)
}

func TestParameters(t *testing.T) {
	tests := []struct {
		name string
		sig  string
		want []string
	}{
		{"plain", "def f(a, b):", []string{"a", "b"}},
		{"none", "def f():", []string{}},
		{"typed and defaults", "def f(a: int, b=1, c: str = 'x'):", []string{"a", "b", "c"}},
		{"method", "def f(self, x):", []string{"self", "x"}},
		{"star args stop", "def f(a, *args, b, **kw):", []string{"a"}},
		{"keyword only", "def f(a, *, b):", []string{"a"}},
		{"positional only dropped", "def f(a, /, b):", []string{"b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := parseOne(t, tt.sig+"\n    pass\n")
			assert.Equal(t, tt.want, fn.Parameters)
		})
	}
}

func TestDocstring(t *testing.T) {
	fn := parseOne(t, `def f():
    """Summarize things.

        Indented detail.
    Last line.
    """
    return 1
`)
	assert.Equal(t, "Summarize things.\n\n    Indented detail.\nLast line.", ir.Deref(fn.Docstring))
	// The docstring statement is still part of the flow.
	assert.Equal(t, ir.KindStatement, fn.Nodes[2].Kind)
}

func TestDocstringVariants(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"single quotes", "'one line'", "one line"},
		{"raw", `r"a\nb"`, `a\nb`},
		{"escapes", `"a\tb"`, "a\tb"},
		{"bytes are not docstrings", `b"data"`, ""},
		{"not first statement", "x = 1\n    \"late\"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := parseOne(t, "def f():\n    "+tt.body+"\n")
			assert.Equal(t, tt.want, ir.Deref(fn.Docstring))
		})
	}
}

func TestDecoratedAndNestedFunctions(t *testing.T) {
	m := parse(t, `import os

@cache
def outer(x):
    def inner():
        pass
    return inner

class Widget:
    def method(self):
        pass

def second():
    pass
`)
	require.Len(t, m.Functions, 2)
	assert.Equal(t, "outer", m.Functions[0].Name)
	assert.Equal(t, "second", m.Functions[1].Name)

	outer := &m.Functions[0]
	assert.Equal(t, ir.KindStatement, outer.Nodes[2].Kind)
	assert.Equal(t, "def inner():\n        pass", outer.Nodes[2].Label)
	// Start is located at the def line, not the decorator.
	assert.Equal(t, 4, outer.Nodes[0].Location.Line)
}

func TestCommentsAreSkipped(t *testing.T) {
	fn := parseOne(t, `def f():
    # leading
    a()  # trailing
    # between
    b()
`)
	assert.Equal(t, []string{"Start", "End", "a()", "b()"}, nodeLabels(fn))
}

func TestEmptyLoopBody(t *testing.T) {
	fn := parseOne(t, `def f(xs):
    for x in xs:
        pass
`)
	// pass is a statement, so the loop body is not empty.
	assert.Len(t, fn.Incoming("n2"), 2)

	var iterate int
	for _, e := range fn.Edges {
		if e.Label == "Iterate" {
			iterate++
		}
	}
	assert.Equal(t, 1, iterate)
}

func TestSyntaxErrorIsWholeModuleFailure(t *testing.T) {
	f, err := New()
	require.NoError(t, err)

	m, err := f.ParseCode(context.Background(), []byte("def ok():\n    pass\n\ndef broken(:\n    pass\n"), "bad.py")
	require.Error(t, err)
	assert.Nil(t, m)
	assert.True(t, frontend.IsParseError(err))

	var fe *frontend.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "bad.py", fe.Path)
	assert.GreaterOrEqual(t, fe.Line, 4)
}

func TestEmptySource(t *testing.T) {
	m := parse(t, "")
	assert.Empty(t, m.Functions)
	assert.NotNil(t, m.Functions)
}

func TestIdempotence(t *testing.T) {
	a := parse(t, processOrder)
	b := parse(t, processOrder)
	assert.Equal(t, a, b)
}

func TestCancelledContext(t *testing.T) {
	f, err := New()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = f.ParseCode(ctx, []byte(processOrder), "test.py")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistered(t *testing.T) {
	f, err := frontend.Resolve("Python")
	require.NoError(t, err)
	assert.Equal(t, Language, f.Language())
}
