package golang

import (
	"context"
	"errors"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"

	"github.com/roach88/flowir/internal/flow"
	"github.com/roach88/flowir/internal/frontend"
	"github.com/roach88/flowir/internal/ir"
)

// Language is the registry key of this frontend.
const Language = "go"

func init() {
	frontend.MustRegister(Language, func() (frontend.Frontend, error) {
		return New()
	})
}

// Frontend is the Go frontend.
type Frontend struct {
	frontend.Base
}

// New creates a Go frontend.
func New() (*Frontend, error) {
	base, err := frontend.NewBase(Language)
	if err != nil {
		return nil, err
	}
	return &Frontend{Base: base}, nil
}

// ParseCode builds one graph per top-level function declaration in code.
// Any syntax error rejects the whole file.
func (f *Frontend) ParseCode(ctx context.Context, code []byte, filePath string) (*ir.Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	builder := flow.NewBuilder(filePath)

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, builder.FilePath(), code, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		line, column := 0, 0
		var list scanner.ErrorList
		if errors.As(err, &list) && len(list) > 0 {
			line, column = list[0].Pos.Line, list[0].Pos.Column-1
		}
		return nil, frontend.NewParseError(Language, builder.FilePath(), line, column, err)
	}

	l := &lowerer{fset: fset, src: code}
	module := &ir.Module{
		Language: f.Language(),
		Metadata: ir.Object{
			"file_path": ir.String(builder.FilePath()),
			"package":   ir.String(file.Name.Name),
		},
		Functions: []ir.Function{},
	}

	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Body == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		module.Functions = append(module.Functions, builder.Build(l.function(fd)))
	}
	return module, nil
}
