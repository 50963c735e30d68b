package python

import (
	"context"
	"errors"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/roach88/flowir/internal/flow"
	"github.com/roach88/flowir/internal/frontend"
	"github.com/roach88/flowir/internal/ir"
)

// Language is the registry key of this frontend.
const Language = "python"

func init() {
	frontend.MustRegister(Language, func() (frontend.Frontend, error) {
		return New()
	})
}

// Frontend is the tree-sitter backed Python frontend.
type Frontend struct {
	frontend.Base
}

// New creates a Python frontend.
func New() (*Frontend, error) {
	base, err := frontend.NewBase(Language)
	if err != nil {
		return nil, err
	}
	return &Frontend{Base: base}, nil
}

// ParseCode builds one graph per top-level function in code.
func (f *Frontend) ParseCode(ctx context.Context, code []byte, filePath string) (*ir.Module, error) {
	builder := flow.NewBuilder(filePath)

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, code)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, frontend.NewParseError(Language, builder.FilePath(), 0, 0, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		line, column := 0, 0
		if bad := firstError(root); bad != nil {
			line = int(bad.StartPoint().Row) + 1
			column = int(bad.StartPoint().Column)
		}
		return nil, frontend.NewParseError(Language, builder.FilePath(), line, column,
			errors.New("invalid syntax"))
	}

	l := &lowerer{src: code}
	module := &ir.Module{
		Language:  f.Language(),
		Metadata:  ir.Object{"file_path": ir.String(builder.FilePath())},
		Functions: []ir.Function{},
	}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		def := functionDefinition(root.NamedChild(i))
		if def == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		module.Functions = append(module.Functions, builder.Build(l.function(def)))
	}
	return module, nil
}

// functionDefinition returns the function_definition node of a top-level
// statement, unwrapping decorators, or nil for anything else.
func functionDefinition(n *sitter.Node) *sitter.Node {
	switch n.Type() {
	case "function_definition":
		return n
	case "decorated_definition":
		if def := n.ChildByFieldName("definition"); def != nil && def.Type() == "function_definition" {
			return def
		}
	}
	return nil
}

// firstError finds the first ERROR or MISSING node in document order.
func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || !child.HasError() && !child.IsMissing() {
			continue
		}
		if bad := firstError(child); bad != nil {
			return bad
		}
	}
	return nil
}
