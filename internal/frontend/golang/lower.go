package golang

import (
	"go/ast"
	"go/token"
	"strings"

	"github.com/roach88/flowir/internal/flow"
	"github.com/roach88/flowir/internal/ir"
)

// lowerer maps go/ast statements onto flow statements. Labels are cut
// from the original source so they keep the author's spelling.
type lowerer struct {
	fset *token.FileSet
	src  []byte
}

func (l *lowerer) pos(p token.Pos) flow.Pos {
	if !p.IsValid() {
		return flow.Pos{}
	}
	position := l.fset.Position(p)
	return flow.Pos{Line: position.Line, Column: position.Column - 1}
}

func (l *lowerer) span(from, to token.Pos) string {
	if !from.IsValid() || !to.IsValid() {
		return ""
	}
	start, end := l.fset.Position(from).Offset, l.fset.Position(to).Offset
	if start < 0 || end > len(l.src) || start > end {
		return ""
	}
	return strings.TrimSpace(string(l.src[start:end]))
}

func (l *lowerer) text(n ast.Node) string {
	if n == nil {
		return ""
	}
	return l.span(n.Pos(), n.End())
}

func (l *lowerer) function(fd *ast.FuncDecl) flow.Function {
	metadata := ir.Object{"exported": ir.Bool(fd.Name.IsExported())}
	if fd.Recv != nil && len(fd.Recv.List) > 0 {
		metadata["receiver"] = ir.String(l.text(fd.Recv.List[0].Type))
	}

	var returns string
	if fd.Type.Results != nil {
		returns = l.text(fd.Type.Results)
	}

	return flow.Function{
		Name:       fd.Name.Name,
		Parameters: parameterNames(fd.Type.Params),
		Returns:    returns,
		Docstring:  strings.TrimSpace(fd.Doc.Text()),
		Metadata:   metadata,
		StartPos:   l.pos(fd.Type.Func),
		EndPos:     l.pos(fd.Body.Rbrace),
		Body:       l.block(fd.Body.List),
	}
}

// parameterNames lists declared parameter names in order. Unnamed
// parameters contribute nothing.
func parameterNames(fields *ast.FieldList) []string {
	names := []string{}
	if fields == nil {
		return names
	}
	for _, field := range fields.List {
		for _, name := range field.Names {
			names = append(names, name.Name)
		}
	}
	return names
}

func (l *lowerer) block(list []ast.Stmt) []flow.Stmt {
	var out []flow.Stmt
	for _, stmt := range list {
		out = append(out, l.statement(stmt)...)
	}
	return out
}

// statement lowers one Go statement. The init statement of an if is
// emitted ahead of its conditional and nested blocks are inlined, so a single Go statement may yield zero or more flow
// statements.
func (l *lowerer) statement(stmt ast.Stmt) []flow.Stmt {
	switch s := stmt.(type) {
	case *ast.EmptyStmt:
		return nil
	case *ast.BlockStmt:
		return l.block(s.List)
	case *ast.LabeledStmt:
		return l.statement(s.Stmt)
	case *ast.IfStmt:
		return l.ifStmt(s)
	case *ast.ForStmt:
		return []flow.Stmt{l.loop(s.For, s.Body)}
	case *ast.RangeStmt:
		return []flow.Stmt{l.loop(s.For, s.Body)}
	case *ast.ReturnStmt:
		return []flow.Stmt{flow.Return{Label: l.text(s), Pos: l.pos(s.Pos())}}
	case *ast.ExprStmt:
		if isPanic(s.X) {
			return []flow.Stmt{flow.Raise{Label: l.text(s), Pos: l.pos(s.Pos())}}
		}
	case *ast.SwitchStmt:
		return []flow.Stmt{l.header(s.Pos(), s.Body.Lbrace)}
	case *ast.TypeSwitchStmt:
		return []flow.Stmt{l.header(s.Pos(), s.Body.Lbrace)}
	case *ast.SelectStmt:
		return []flow.Stmt{l.header(s.Pos(), s.Body.Lbrace)}
	}
	return []flow.Stmt{flow.Plain{Label: l.text(stmt), Pos: l.pos(stmt.Pos())}}
}

// loop keeps the whole header, init and post statements included, as the
// loop label.
func (l *lowerer) loop(keyword token.Pos, body *ast.BlockStmt) flow.Stmt {
	return flow.Loop{
		Label: l.span(keyword, body.Lbrace),
		Pos:   l.pos(keyword),
		Body:  l.block(body.List),
	}
}

func (l *lowerer) header(from, lbrace token.Pos) flow.Stmt {
	return flow.Plain{Label: l.span(from, lbrace), Pos: l.pos(from)}
}

func (l *lowerer) ifStmt(s *ast.IfStmt) []flow.Stmt {
	cond := flow.If{
		Label: "if " + l.text(s.Cond),
		Pos:   l.pos(s.Cond.Pos()),
		Then:  l.block(s.Body.List),
	}
	switch e := s.Else.(type) {
	case *ast.BlockStmt:
		cond.Else = l.block(e.List)
	case *ast.IfStmt:
		cond.Else = l.ifStmt(e)
	}
	if s.Init == nil {
		return []flow.Stmt{cond}
	}
	return append(l.statement(s.Init), cond)
}

// isPanic reports whether expr is a call of the builtin panic.
func isPanic(expr ast.Expr) bool {
	call, ok := ast.Unparen(expr).(*ast.CallExpr)
	if !ok {
		return false
	}
	ident, ok := ast.Unparen(call.Fun).(*ast.Ident)
	return ok && ident.Name == "panic"
}
