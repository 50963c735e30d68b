package treesitter

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/roach88/flowir/internal/flow"
	"github.com/roach88/flowir/internal/frontend"
	"github.com/roach88/flowir/internal/ir"
)

// Frontend is a query-driven tree-sitter frontend.
type Frontend struct {
	frontend.Base
	cfg   Config
	query *sitter.Query
}

// New validates cfg and compiles its function query. A missing grammar
// or an invalid query is a configuration error.
func New(cfg Config) (*Frontend, error) {
	base, err := frontend.NewBase(cfg.Language)
	if err != nil {
		return nil, err
	}
	if cfg.Grammar == nil {
		return nil, frontend.NewConfigError(cfg.Language, "tree-sitter grammar is required")
	}
	query, err := sitter.NewQuery([]byte(cfg.FunctionQuery), cfg.Grammar)
	if err != nil {
		e := frontend.NewConfigError(cfg.Language, "invalid function query")
		e.Err = err
		return nil, e
	}
	return &Frontend{Base: base, cfg: cfg.withDefaults(), query: query}, nil
}

// ParseCode builds one flat graph per query match. The grammar tolerates
// syntax errors; a tree containing any is flagged with "has_errors" in
// the module metadata instead of being rejected.
func (f *Frontend) ParseCode(ctx context.Context, code []byte, filePath string) (*ir.Module, error) {
	builder := flow.NewBuilder(filePath)

	parser := sitter.NewParser()
	parser.SetLanguage(f.cfg.Grammar)

	tree, err := parser.ParseCtx(ctx, nil, code)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, frontend.NewParseError(f.Language(), builder.FilePath(), 0, 0, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	module := &ir.Module{
		Language:  f.Language(),
		Metadata:  ir.Object{"file_path": ir.String(builder.FilePath())},
		Functions: []ir.Function{},
	}
	if root.HasError() {
		slog.Debug("syntax errors in source",
			"language", f.Language(),
			"file", builder.FilePath())
		module.Metadata["has_errors"] = ir.Bool(true)
	}

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(f.query, root)

	seen := make(map[uint32]bool)
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		match = cursor.FilterPredicates(match, code)

		name, body := f.captures(match)
		if name == nil || body == nil || seen[body.StartByte()] {
			continue
		}
		seen[body.StartByte()] = true

		module.Functions = append(module.Functions, builder.Build(f.function(name, body, code)))
	}
	return module, nil
}

func (f *Frontend) captures(match *sitter.QueryMatch) (name, body *sitter.Node) {
	for _, c := range match.Captures {
		switch f.query.CaptureNameForId(c.Index) {
		case f.cfg.NameCapture:
			if name == nil {
				name = c.Node
			}
		case f.cfg.BodyCapture:
			if body == nil {
				body = c.Node
			}
		}
	}
	return name, body
}

func (f *Frontend) function(name, body *sitter.Node, code []byte) flow.Function {
	fn := flow.Function{
		Name:       name.Content(code),
		Parameters: []string{},
		Metadata:   ir.Object{},
		StartPos:   pos(body),
		EndPos:     pos(body),
	}
	if def := body.Parent(); def != nil {
		fn.Metadata["node_type"] = ir.String(def.Type())
		fn.Metadata["async"] = ir.Bool(def.ChildCount() > 0 && def.Child(0).Type() == "async")
		fn.Parameters = parameterNames(def, code)
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		kind := stmt.Type()
		if slices.Contains(f.cfg.CommentTypes, kind) {
			continue
		}
		label := normalizeLabel(stmt.Content(code))
		switch {
		case slices.Contains(f.cfg.ReturnTypes, kind):
			fn.Body = append(fn.Body, flow.Return{Label: label, Pos: pos(stmt)})
		case slices.Contains(f.cfg.RaiseTypes, kind):
			fn.Body = append(fn.Body, flow.Raise{Label: label, Pos: pos(stmt)})
		default:
			fn.Body = append(fn.Body, flow.Plain{Label: label, Pos: pos(stmt)})
		}
	}
	return fn
}

// parameterNames reads simple parameter names from a definition's
// "parameters" list or its single "parameter" field. Destructured and
// rest parameters are skipped.
func parameterNames(def *sitter.Node, code []byte) []string {
	names := []string{}
	if single := def.ChildByFieldName("parameter"); single != nil {
		return append(names, single.Content(code))
	}
	params := def.ChildByFieldName("parameters")
	if params == nil {
		return names
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "identifier":
			names = append(names, p.Content(code))
		case "assignment_pattern":
			if left := p.ChildByFieldName("left"); left != nil && left.Type() == "identifier" {
				names = append(names, left.Content(code))
			}
		}
	}
	return names
}

func pos(n *sitter.Node) flow.Pos {
	p := n.StartPoint()
	return flow.Pos{Line: int(p.Row) + 1, Column: int(p.Column)}
}

// normalizeLabel folds a multi-line statement onto one line.
func normalizeLabel(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(slices.DeleteFunc(lines, func(s string) bool { return s == "" }), " ")
}

