package engine

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flowir/internal/frontend"
	"github.com/roach88/flowir/internal/frontend/csimple"
	"github.com/roach88/flowir/internal/ir"
	"github.com/roach88/flowir/internal/store"
)

// countingFrontend wraps the C frontend and counts ParseCode calls.
type countingFrontend struct {
	frontend.Frontend
	calls *atomic.Int64
}

func (c countingFrontend) ParseCode(ctx context.Context, code []byte, path string) (*ir.Module, error) {
	c.calls.Add(1)
	return c.Frontend.ParseCode(ctx, code, path)
}

// brokenFrontend returns a graph with two start nodes.
type brokenFrontend struct {
	frontend.Base
}

func (brokenFrontend) ParseCode(context.Context, []byte, string) (*ir.Module, error) {
	return &ir.Module{
		Language: "broken",
		Metadata: ir.Object{},
		Functions: []ir.Function{{
			Name: "f",
			Nodes: []ir.Node{
				{ID: "n0", Kind: ir.KindStart, Label: "Start"},
				{ID: "n1", Kind: ir.KindEnd, Label: "End"},
				{ID: "n2", Kind: ir.KindStart, Label: "Start"},
			},
			Edges: []ir.Edge{{Source: "n0", Target: "n1"}},
		}},
	}, nil
}

func testRegistry(t *testing.T) (*frontend.Registry, *atomic.Int64) {
	t.Helper()
	calls := &atomic.Int64{}
	reg := frontend.NewRegistry()
	require.NoError(t, reg.Register("c", func() (frontend.Frontend, error) {
		f, err := csimple.New()
		if err != nil {
			return nil, err
		}
		return countingFrontend{Frontend: f, calls: calls}, nil
	}))
	require.NoError(t, reg.Register("broken", func() (frontend.Frontend, error) {
		base, err := frontend.NewBase("broken")
		return brokenFrontend{Base: base}, err
	}))
	return reg, calls
}

const sumSource = `int sum(int a, int b) {
    int total = 0;
    for (int i = a; i < b; i++) { total += i; }
    return total;
}
`

func canonical(t *testing.T, m *ir.Module) string {
	t.Helper()
	data, err := ir.MarshalCanonical(m)
	require.NoError(t, err)
	return string(data)
}

func TestParseSource_MemoryCache(t *testing.T) {
	reg, calls := testRegistry(t)
	e, err := New(WithRegistry(reg), WithRunIDGenerator(NewFixedGenerator("run-1")))
	require.NoError(t, err)
	ctx := context.Background()

	first, err := e.ParseSource(ctx, "c", []byte(sumSource), "sum.c")
	require.NoError(t, err)
	second, err := e.ParseSource(ctx, "C", []byte(sumSource), "sum.c")
	require.NoError(t, err)

	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, canonical(t, first), canonical(t, second))
	assert.Equal(t, Stats{MemoryHits: 1, Parses: 1}, e.Stats())

	// Hits are decoded afresh: mutating one result leaves the cache intact.
	second.Functions[0].Name = "changed"
	third, err := e.ParseSource(ctx, "c", []byte(sumSource), "sum.c")
	require.NoError(t, err)
	assert.Equal(t, "sum", third.Functions[0].Name)
}

func TestParseSource_KeyCoversPathAndSource(t *testing.T) {
	reg, calls := testRegistry(t)
	e, err := New(WithRegistry(reg))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = e.ParseSource(ctx, "c", []byte(sumSource), "a.c")
	require.NoError(t, err)
	_, err = e.ParseSource(ctx, "c", []byte(sumSource), "b.c")
	require.NoError(t, err)
	_, err = e.ParseSource(ctx, "c", []byte(sumSource+"\n"), "a.c")
	require.NoError(t, err)
	m, err := e.ParseSource(ctx, "c", []byte(sumSource), "")
	require.NoError(t, err)

	assert.Equal(t, int64(4), calls.Load())
	assert.Equal(t, ir.String("<memory>"), m.Metadata["file_path"])
}

func TestParseSource_CacheDisabled(t *testing.T) {
	reg, calls := testRegistry(t)
	e, err := New(WithRegistry(reg), WithCacheSize(0))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := e.ParseSource(context.Background(), "c", []byte(sumSource), "sum.c")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(3), calls.Load())
}

func TestParseSource_StoreSurvivesEngines(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	reg, calls := testRegistry(t)
	e1, err := New(WithRegistry(reg), WithStore(s), WithRunIDGenerator(NewFixedGenerator("run-1")))
	require.NoError(t, err)
	fresh, err := e1.ParseSource(ctx, "c", []byte(sumSource), "sum.c")
	require.NoError(t, err)

	e2, err := New(WithRegistry(reg), WithStore(s), WithRunIDGenerator(NewFixedGenerator("run-2")))
	require.NoError(t, err)
	cached, err := e2.ParseSource(ctx, "c", []byte(sumSource), "sum.c")
	require.NoError(t, err)

	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, Stats{StoreHits: 1}, e2.Stats())
	assert.Equal(t, canonical(t, fresh), canonical(t, cached))

	entries, err := s.ListModules(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "run-1", entries[0].RunID)
	assert.Equal(t, ir.SourceKey("c", "sum.c", []byte(sumSource)), entries[0].SourceKey)

	// The store hit was promoted to memory.
	_, err = e2.ParseSource(ctx, "c", []byte(sumSource), "sum.c")
	require.NoError(t, err)
	assert.Equal(t, int64(1), e2.Stats().MemoryHits)
}

func TestParseSource_ValidationGate(t *testing.T) {
	reg, _ := testRegistry(t)

	e, err := New(WithRegistry(reg))
	require.NoError(t, err)
	_, err = e.ParseSource(context.Background(), "broken", []byte("x"), "x.broken")
	var verr *ir.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "x.broken")

	e, err = New(WithRegistry(reg), WithValidation(false))
	require.NoError(t, err)
	m, err := e.ParseSource(context.Background(), "broken", []byte("x"), "x.broken")
	require.NoError(t, err)
	assert.Len(t, m.Functions, 1)
}

func TestParseSource_UnknownLanguage(t *testing.T) {
	reg, _ := testRegistry(t)
	e, err := New(WithRegistry(reg))
	require.NoError(t, err)

	_, err = e.ParseSource(context.Background(), "cobol", nil, "")
	assert.True(t, frontend.IsLookupError(err))
	assert.Equal(t, []string{"broken", "c"}, e.Languages())
}

func TestParseSource_Cancelled(t *testing.T) {
	reg, calls := testRegistry(t)
	e, err := New(WithRegistry(reg))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.ParseSource(ctx, "c", []byte(sumSource), "sum.c")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
}

func TestParseSource_Concurrent(t *testing.T) {
	reg, _ := testRegistry(t)
	e, err := New(WithRegistry(reg))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := e.ParseSource(context.Background(), "c", []byte(sumSource), "sum.c")
			if assert.NoError(t, err) {
				data, _ := ir.MarshalCanonical(m)
				results[i] = string(data)
			}
		}()
	}
	wg.Wait()

	for _, r := range results[1:] {
		assert.Equal(t, results[0], r)
	}
}

func TestParseFileAndFiles(t *testing.T) {
	reg, _ := testRegistry(t)
	e, err := New(WithRegistry(reg))
	require.NoError(t, err)

	dir := t.TempDir()
	good := filepath.Join(dir, "sum.c")
	require.NoError(t, os.WriteFile(good, []byte(sumSource), 0o644))
	unknown := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(unknown, []byte("hi"), 0o644))
	missing := filepath.Join(dir, "missing.c")

	m, err := e.ParseFile(context.Background(), good, "")
	require.NoError(t, err)
	assert.Equal(t, ir.String(good), m.Metadata["file_path"])

	_, err = e.ParseFile(context.Background(), unknown, "")
	assert.ErrorIs(t, err, ErrUnknownExtension)

	// An explicit language overrides the extension.
	_, err = e.ParseFile(context.Background(), unknown, "c")
	assert.NoError(t, err)

	var order []string
	var failures int
	for path, res := range e.ParseFiles(context.Background(), []string{good, missing, unknown}, "") {
		order = append(order, path)
		if res.Err != nil {
			failures++
		}
	}
	assert.Equal(t, []string{good, missing, unknown}, order)
	assert.Equal(t, 2, failures)
}

func TestParseFiles_StopsOnCancel(t *testing.T) {
	reg, calls := testRegistry(t)
	e, err := New(WithRegistry(reg))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var results []frontend.Result
	for _, res := range e.ParseFiles(ctx, []string{"a.c", "b.c"}, "") {
		results = append(results, res)
	}
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
	assert.Zero(t, calls.Load())
}

func TestLanguageFor(t *testing.T) {
	e, err := New(WithExtensions(map[string]string{".pyw": "python", ".h": "cpp"}))
	require.NoError(t, err)

	tests := []struct {
		path string
		want string
	}{
		{"a.py", "python"},
		{"dir/A.PY", "python"},
		{"x.pyw", "python"},
		{"x.c", "c"},
		{"x.h", "cpp"},
		{"main.go", "go"},
		{"app.mjs", "javascript"},
	}
	for _, tt := range tests {
		got, err := e.LanguageFor(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	_, err = e.LanguageFor("Makefile")
	assert.ErrorIs(t, err, ErrUnknownExtension)
	assert.Contains(t, e.Extensions(), ".pyw")
}

func TestCollectFiles(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	dir := t.TempDir()
	write := func(rel string) string {
		p := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
		return p
	}
	b := write("src/b.py")
	a := write("src/a.c")
	write("src/README.md")
	write(".git/hooks/x.py")
	nested := write("src/pkg/c.go")
	explicit := write("notes.txt")

	files, err := e.CollectFiles([]string{explicit, filepath.Join(dir, "src"), a})
	require.NoError(t, err)
	assert.Equal(t, []string{explicit, a, b, nested}, files)

	_, err = e.CollectFiles([]string{filepath.Join(dir, "nope")})
	assert.Error(t, err)
}

func TestRunID(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	parsed, err := uuid.Parse(e.RunID())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())

	e, err = New(WithRunIDGenerator(NewFixedGenerator("fixed")))
	require.NoError(t, err)
	assert.Equal(t, "fixed", e.RunID())
}

func TestFixedGenerator_Exhausted(t *testing.T) {
	gen := NewFixedGenerator("only")
	assert.Equal(t, "only", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}
