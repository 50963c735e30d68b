package csimple

import (
	"context"
	"log/slog"

	"github.com/roach88/flowir/internal/flow"
	"github.com/roach88/flowir/internal/frontend"
	"github.com/roach88/flowir/internal/ir"
)

// Language is the registry key of this frontend.
const Language = "c"

func init() {
	frontend.MustRegister(Language, func() (frontend.Frontend, error) {
		return New()
	})
}

// Frontend is the heuristic C frontend.
type Frontend struct {
	frontend.Base
}

// New creates a C frontend.
func New() (*Frontend, error) {
	base, err := frontend.NewBase(Language)
	if err != nil {
		return nil, err
	}
	return &Frontend{Base: base}, nil
}

// ParseCode builds one graph per function definition found in code.
// It never fails on malformed input: functions that cannot be parsed are
// skipped and named in the "skipped_functions" module metadata.
func (f *Frontend) ParseCode(ctx context.Context, code []byte, filePath string) (*ir.Module, error) {
	view := newCodeView(string(code))
	builder := flow.NewBuilder(filePath)
	parser := &stmtParser{v: view}

	module := &ir.Module{
		Language:  f.Language(),
		Metadata:  ir.Object{"file_path": ir.String(builder.FilePath())},
		Functions: []ir.Function{},
	}
	var skipped []string

	for _, c := range extractFunctions(view) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := parser.block(c.bodyOpen+1, c.bodyClose)
		if err != nil {
			slog.Debug("skipping unparseable function",
				"function", c.name,
				"file", builder.FilePath(),
				"offset", c.nameAt,
				"error", err)
			skipped = append(skipped, c.name)
			continue
		}

		module.Functions = append(module.Functions, builder.Build(flow.Function{
			Name:       c.name,
			Parameters: parameterNames(view, c),
			Returns:    returnType(view, c),
			Metadata:   ir.Object{"signature": ir.String(view.text(c.sigStart, c.bodyOpen))},
			StartPos:   view.position(c.bodyOpen + 1),
			EndPos:     view.position(c.bodyClose),
			Body:       body,
		}))
	}

	if len(skipped) > 0 {
		module.Metadata["skipped_functions"] = ir.Strings(skipped)
	}
	return module, nil
}
