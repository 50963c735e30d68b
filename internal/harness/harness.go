package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/flowir/internal/engine"
	"github.com/roach88/flowir/internal/frontend"
	"github.com/roach88/flowir/internal/ir"
	"github.com/roach88/flowir/internal/store"
	"github.com/roach88/flowir/internal/testutil"
)

// Options configures a harness run.
type Options struct {
	// Registry resolves frontends. Nil means frontend.Default.
	Registry *frontend.Registry
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory store with the in-memory
// cache disabled. The source is parsed twice: the second parse is served
// from the store and must reproduce the first byte for byte.
//
// The returned error is reserved for harness failures (unreadable source,
// store setup). Scenario failures are reported in the Result.
func Run(ctx context.Context, scenario *Scenario, opts Options) (*Result, error) {
	code := []byte(scenario.Source)
	if scenario.File != "" {
		data, err := os.ReadFile(scenario.resolvedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read scenario source: %w", err)
		}
		code = data
	}
	filePath := scenario.FilePath
	if filePath == "" {
		filePath = scenario.File
	}

	st, err := store.Open(store.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	engineOpts := []engine.Option{
		engine.WithStore(st),
		engine.WithCacheSize(0),
		engine.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(scenario.Name)),
	}
	if opts.Registry != nil {
		engineOpts = append(engineOpts, engine.WithRegistry(opts.Registry))
	}
	eng, err := engine.New(engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	result := NewResult(scenario.Name)
	m, parseErr := eng.ParseSource(ctx, scenario.Language, code, filePath)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	if scenario.ExpectError != "" {
		switch {
		case parseErr == nil:
			result.AddError(fmt.Sprintf("expected %s error, parse succeeded", scenario.ExpectError))
		case errorClass(parseErr) != scenario.ExpectError:
			result.AddError(fmt.Sprintf("expected %s error, got: %v", scenario.ExpectError, parseErr))
		}
		if parseErr != nil {
			return result, nil
		}
	} else if parseErr != nil {
		result.AddError(fmt.Sprintf("parse failed: %v", parseErr))
		return result, nil
	}
	result.Module = m

	if err := checkReplay(ctx, eng, scenario, code, filePath, m); err != nil {
		result.AddError(err.Error())
	}
	for _, msg := range EvaluateAssertions(m, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// RunAll runs every scenario in order.
func RunAll(ctx context.Context, scenarios []*Scenario, opts Options) ([]*Result, error) {
	results := make([]*Result, 0, len(scenarios))
	for _, s := range scenarios {
		r, err := Run(ctx, s, opts)
		if err != nil {
			return results, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
		results = append(results, r)
	}
	return results, nil
}

// checkReplay parses the source again and compares the cached result
// with the fresh one.
func checkReplay(ctx context.Context, eng *engine.Engine, s *Scenario, code []byte, filePath string, fresh *ir.Module) error {
	cached, err := eng.ParseSource(ctx, s.Language, code, filePath)
	if err != nil {
		return fmt.Errorf("cached parse failed: %w", err)
	}
	if eng.Stats().StoreHits != 1 {
		return fmt.Errorf("second parse was not served from the store")
	}
	want, err := ir.MarshalCanonical(fresh)
	if err != nil {
		return err
	}
	got, err := ir.MarshalCanonical(cached)
	if err != nil {
		return err
	}
	if !bytes.Equal(want, got) {
		return fmt.Errorf("cached module differs from fresh parse")
	}
	return nil
}

// errorClass maps a parse error onto the scenario error vocabulary.
func errorClass(err error) string {
	var verr *ir.ValidationError
	switch {
	case frontend.IsParseError(err):
		return ErrorParse
	case frontend.IsLookupError(err):
		return ErrorLookup
	case frontend.IsConfigError(err):
		return ErrorConfig
	case errors.As(err, &verr):
		return ErrorValidation
	}
	return "unknown"
}
