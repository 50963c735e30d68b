package engine

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/flowir/internal/flow"
	"github.com/roach88/flowir/internal/frontend"
	"github.com/roach88/flowir/internal/ir"
	"github.com/roach88/flowir/internal/store"
)

// DefaultCacheSize is the default number of modules kept in memory.
const DefaultCacheSize = 256

// Engine parses source through registered frontends with caching.
type Engine struct {
	registry   *frontend.Registry
	store      *store.Store
	cache      *lru.Cache[string, []byte]
	cacheSize  int
	runID      string
	runIDGen   RunIDGenerator
	validate   bool
	extensions map[string]string

	stats struct {
		memoryHits atomic.Int64
		storeHits  atomic.Int64
		parses     atomic.Int64
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry resolves frontends from r instead of frontend.Default.
func WithRegistry(r *frontend.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithStore persists parse results in s. The engine does not close it.
func WithStore(s *store.Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithCacheSize sets the in-memory LRU capacity. Zero or less disables
// the in-memory cache.
func WithCacheSize(n int) Option {
	return func(e *Engine) {
		e.cacheSize = n
	}
}

// WithRunIDGenerator sets the generator of the engine's run id.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(e *Engine) {
		e.runIDGen = g
	}
}

// WithValidation turns the invariant check on fresh results on or off.
// It is on by default.
func WithValidation(enabled bool) Option {
	return func(e *Engine) {
		e.validate = enabled
	}
}

// WithExtensions adds or overrides extension to language mappings on top
// of DefaultExtensions.
func WithExtensions(m map[string]string) Option {
	return func(e *Engine) {
		for ext, lang := range m {
			e.extensions[ext] = lang
		}
	}
}

// New creates an Engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		registry:   frontend.Default,
		cacheSize:  DefaultCacheSize,
		runIDGen:   UUIDv7Generator{},
		validate:   true,
		extensions: make(map[string]string, len(DefaultExtensions)),
	}
	for ext, lang := range DefaultExtensions {
		e.extensions[ext] = lang
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.cacheSize > 0 {
		cache, err := lru.New[string, []byte](e.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create cache: %w", err)
		}
		e.cache = cache
	}
	e.runID = e.runIDGen.Generate()
	return e, nil
}

// RunID identifies this engine's results in the store.
func (e *Engine) RunID() string {
	return e.runID
}

// Languages lists the language keys the engine can resolve.
func (e *Engine) Languages() []string {
	return e.registry.Languages()
}

// Stats counts how requests were served.
type Stats struct {
	MemoryHits int64
	StoreHits  int64
	Parses     int64
}

// Stats returns a snapshot of the engine's counters.
func (e *Engine) Stats() Stats {
	return Stats{
		MemoryHits: e.stats.memoryHits.Load(),
		StoreHits:  e.stats.storeHits.Load(),
		Parses:     e.stats.parses.Load(),
	}
}

// ParseSource parses code as language. filePath is only used for
// location tagging and may be empty.
func (e *Engine) ParseSource(ctx context.Context, language string, code []byte, filePath string) (*ir.Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := e.registry.Resolve(language)
	if err != nil {
		return nil, err
	}

	effectivePath := filePath
	if effectivePath == "" {
		effectivePath = flow.DefaultFilePath
	}
	key := ir.SourceKey(f.Language(), effectivePath, code)

	if m, ok := e.lookup(ctx, key); ok {
		return m, nil
	}

	started := time.Now()
	m, err := f.ParseCode(ctx, code, filePath)
	if err != nil {
		return nil, err
	}
	e.stats.parses.Add(1)
	slog.Debug("parsed source",
		"language", f.Language(),
		"file", effectivePath,
		"functions", len(m.Functions),
		"duration", time.Since(started))

	if e.validate {
		if err := ir.ValidateModule(m); err != nil {
			return nil, fmt.Errorf("%s: %w", effectivePath, err)
		}
	}

	e.remember(ctx, key, m)
	return m, nil
}

// ParseFile reads path and parses it. An empty language is inferred from
// the file extension.
func (e *Engine) ParseFile(ctx context.Context, path, language string) (*ir.Module, error) {
	if language == "" {
		lang, err := e.LanguageFor(path)
		if err != nil {
			return nil, err
		}
		language = lang
	}
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return e.ParseSource(ctx, language, code, path)
}

// ParseFiles lazily parses each path in order; see ParseFile. Iteration
// stops early when ctx is cancelled, yielding the context error.
func (e *Engine) ParseFiles(ctx context.Context, paths []string, language string) iter.Seq2[string, frontend.Result] {
	return func(yield func(string, frontend.Result) bool) {
		for _, path := range paths {
			if err := ctx.Err(); err != nil {
				yield(path, frontend.Result{Err: err})
				return
			}
			m, err := e.ParseFile(ctx, path, language)
			if err != nil {
				slog.Info("parse failed", "file", path, "error", err)
			} else {
				slog.Info("parsed file", "file", path, "functions", len(m.Functions))
			}
			if !yield(path, frontend.Result{Module: m, Err: err}) {
				return
			}
		}
	}
}

// lookup serves key from memory, then from the store. Store failures are
// logged and treated as misses.
func (e *Engine) lookup(ctx context.Context, key string) (*ir.Module, bool) {
	if e.cache != nil {
		if data, ok := e.cache.Get(key); ok {
			m, err := ir.ParseModule(data)
			if err == nil {
				e.stats.memoryHits.Add(1)
				slog.Debug("cache hit", "tier", "memory", "key", key)
				return m, true
			}
			e.cache.Remove(key)
		}
	}

	if e.store != nil {
		rec, err := e.store.GetModule(ctx, key)
		switch {
		case err == nil:
			e.stats.storeHits.Add(1)
			slog.Debug("cache hit", "tier", "store", "key", key, "run_id", rec.RunID)
			if e.cache != nil {
				if data, err := ir.MarshalCanonical(rec.Module); err == nil {
					e.cache.Add(key, data)
				}
			}
			return rec.Module, true
		case store.IsNotFound(err):
		default:
			slog.Warn("cache read failed", "key", key, "error", err)
		}
	}

	slog.Debug("cache miss", "key", key)
	return nil, false
}

// remember writes a fresh result to both caches. Failures are logged,
// not returned.
func (e *Engine) remember(ctx context.Context, key string, m *ir.Module) {
	if e.cache != nil {
		data, err := ir.MarshalCanonical(m)
		if err != nil {
			slog.Warn("cache encode failed", "key", key, "error", err)
		} else {
			e.cache.Add(key, data)
		}
	}
	if e.store != nil {
		if err := e.store.PutModule(ctx, key, e.runID, m); err != nil {
			slog.Warn("cache write failed", "key", key, "error", err)
		}
	}
}
