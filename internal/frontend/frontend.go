package frontend

import (
	"context"
	"fmt"
	"iter"
	"os"

	"github.com/roach88/flowir/internal/ir"
)

// Frontend parses source text of one language into IR.
//
// ParseCode is the only operation a frontend defines; ParseFile and
// ParseFiles are provided on top of it. filePath may be empty, in which
// case locations use "<memory>".
type Frontend interface {
	Language() string
	ParseCode(ctx context.Context, code []byte, filePath string) (*ir.Module, error)
}

// Factory constructs a fresh frontend instance.
type Factory func() (Frontend, error)

// Base carries the language key shared by all frontends. Embed it.
type Base struct {
	language string
}

// NewBase validates the language key. A frontend without one is a
// configuration error.
func NewBase(language string) (Base, error) {
	if language == "" {
		return Base{}, NewConfigError("", "frontend has no language key")
	}
	return Base{language: language}, nil
}

// Language returns the frontend's language key.
func (b Base) Language() string {
	return b.language
}

// ParseFile reads path and delegates to f.ParseCode, passing the path for
// location tagging.
func ParseFile(ctx context.Context, f Frontend, path string) (*ir.Module, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return f.ParseCode(ctx, code, path)
}

// Result is one element of a ParseFiles sequence.
type Result struct {
	Module *ir.Module
	Err    error
}

// ParseFiles lazily parses each path in order. Nothing is read until the
// sequence is iterated; iterating again re-parses from the first path.
// Iteration stops early when ctx is cancelled, yielding the context error.
func ParseFiles(ctx context.Context, f Frontend, paths []string) iter.Seq2[string, Result] {
	return func(yield func(string, Result) bool) {
		for _, path := range paths {
			if err := ctx.Err(); err != nil {
				yield(path, Result{Err: err})
				return
			}
			m, err := ParseFile(ctx, f, path)
			if !yield(path, Result{Module: m, Err: err}) {
				return
			}
		}
	}
}
