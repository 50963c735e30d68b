package schema

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/roach88/flowir/internal/ir"
)

//go:embed ir.cue
var source []byte

// Issue is one place where a document does not match the wire shape.
type Issue struct {
	Path    string
	Message string
	Pos     token.Pos
}

func (i Issue) String() string {
	var b strings.Builder
	if i.Pos.IsValid() {
		fmt.Fprintf(&b, "%s:%d:%d: ", i.Pos.Filename(), i.Pos.Line(), i.Pos.Column())
	}
	if i.Path != "" {
		b.WriteString(i.Path)
		b.WriteString(": ")
	}
	b.WriteString(i.Message)
	return b.String()
}

// Error lists every issue found in one document.
type Error struct {
	File   string
	Issues []Issue
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return fmt.Sprintf("%s: schema mismatch (%d issues): %s", e.File, len(e.Issues), strings.Join(parts, "; "))
}

// Validator checks documents against #Module. A cue.Context is not safe
// for concurrent use, so calls are serialized.
type Validator struct {
	mu     sync.Mutex
	ctx    *cue.Context
	module cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(source, cue.Filename("ir.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	module := v.LookupPath(cue.ParsePath("#Module"))
	if !module.Exists() {
		return nil, fmt.Errorf("compile schema: #Module not defined")
	}
	return &Validator{ctx: ctx, module: module}, nil
}

// Validate checks that data, a JSON document named file, matches the
// wire shape. Mismatches are reported as *Error.
func (s *Validator) Validate(file string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expr, err := cuejson.Extract(file, data)
	if err != nil {
		return &Error{File: file, Issues: issues(err, file)}
	}
	doc := s.ctx.BuildExpr(expr, cue.Filename(file))
	if err := doc.Err(); err != nil {
		return &Error{File: file, Issues: issues(err, file)}
	}

	unified := s.module.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &Error{File: file, Issues: issues(err, file)}
	}
	return nil
}

// Check validates the shape of data, decodes it, and checks the graph
// invariants of every function.
func (s *Validator) Check(file string, data []byte) (*ir.Module, error) {
	if err := s.Validate(file, data); err != nil {
		return nil, err
	}
	m, err := ir.ParseModule(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	if err := ir.ValidateModule(m); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return m, nil
}

// issues flattens a CUE error list. Positions inside the document are
// preferred over positions inside the schema.
func issues(err error, file string) []Issue {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return []Issue{{Message: err.Error()}}
	}

	out := make([]Issue, 0, len(errs))
	seen := make(map[string]bool)
	for _, e := range errs {
		format, args := e.Msg()
		issue := Issue{
			Path:    strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
			Pos:     position(e, file),
		}
		key := issue.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, issue)
	}
	return out
}

func position(e cueerrors.Error, file string) token.Pos {
	positions := cueerrors.Positions(e)
	for _, p := range positions {
		if p.Filename() == file {
			return p
		}
	}
	if len(positions) > 0 {
		return positions[0]
	}
	return token.NoPos
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
	defaultErr       error
)

// Default returns a process-wide Validator, compiling the schema on first use.
func Default() (*Validator, error) {
	defaultOnce.Do(func() {
		defaultValidator, defaultErr = New()
	})
	return defaultValidator, defaultErr
}

// Validate checks data with the default Validator.
func Validate(file string, data []byte) error {
	v, err := Default()
	if err != nil {
		return err
	}
	return v.Validate(file, data)
}

// Check validates and decodes data with the default Validator.
func Check(file string, data []byte) (*ir.Module, error) {
	v, err := Default()
	if err != nil {
		return nil, err
	}
	return v.Check(file, data)
}
