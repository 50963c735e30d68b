package python

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/roach88/flowir/internal/flow"
	"github.com/roach88/flowir/internal/ir"
)

// lowerer maps tree-sitter Python nodes onto flow statements.
type lowerer struct {
	src []byte
}

func (l *lowerer) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Content(l.src))
}

func pos(n *sitter.Node) flow.Pos {
	p := n.StartPoint()
	return flow.Pos{Line: int(p.Row) + 1, Column: int(p.Column)}
}

func (l *lowerer) function(def *sitter.Node) flow.Function {
	body := def.ChildByFieldName("body")
	return flow.Function{
		Name:       l.text(def.ChildByFieldName("name")),
		Parameters: l.parameters(def.ChildByFieldName("parameters")),
		Returns:    l.text(def.ChildByFieldName("return_type")),
		Docstring:  l.docstring(body),
		Metadata:   ir.Object{"async": ir.Bool(isAsync(def))},
		StartPos:   pos(def),
		EndPos:     pos(def),
		Body:       l.block(body),
	}
}

// isAsync reports whether a def, for or with node carries the async keyword.
func isAsync(n *sitter.Node) bool {
	return n.ChildCount() > 0 && n.Child(0).Type() == "async"
}

// parameters returns the names of the positional-or-keyword parameters.
// Positional-only names before "/" are dropped, and collection stops at
// the first star parameter or keyword-only separator.
func (l *lowerer) parameters(params *sitter.Node) []string {
	names := []string{}
	if params == nil {
		return names
	}
	for i := 0; i < int(params.ChildCount()); i++ {
		p := params.Child(i)
		switch p.Type() {
		case "identifier":
			names = append(names, l.text(p))
		case "typed_parameter":
			first := p.NamedChild(0)
			if first == nil || first.Type() != "identifier" {
				return names
			}
			names = append(names, l.text(first))
		case "default_parameter", "typed_default_parameter":
			names = append(names, l.text(p.ChildByFieldName("name")))
		case "positional_separator", "/":
			names = names[:0]
		case "keyword_separator", "*", "list_splat_pattern", "dictionary_splat_pattern":
			return names
		}
	}
	return names
}

// block lowers the statements of a block node, skipping comments.
func (l *lowerer) block(n *sitter.Node) []flow.Stmt {
	if n == nil {
		return nil
	}
	var out []flow.Stmt
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		out = append(out, l.statement(child))
	}
	return out
}

func (l *lowerer) statement(n *sitter.Node) flow.Stmt {
	switch n.Type() {
	case "if_statement":
		return l.ifStatement(n)
	case "for_statement":
		return l.forStatement(n)
	case "while_statement":
		return flow.Loop{
			Label: "while " + l.text(n.ChildByFieldName("condition")),
			Pos:   pos(n),
			Body:  l.block(n.ChildByFieldName("body")),
			Else:  l.elseBody(n.ChildByFieldName("alternative")),
		}
	case "try_statement":
		return l.tryStatement(n)
	case "with_statement":
		return l.withStatement(n)
	case "return_statement":
		return flow.Return{Label: l.keywordLabel("return", n), Pos: pos(n)}
	case "raise_statement":
		return flow.Raise{Label: l.keywordLabel("raise", n), Pos: pos(n)}
	default:
		return flow.Plain{Label: l.text(n), Pos: pos(n)}
	}
}

// keywordLabel renders "kw <value>" from a statement's first named child,
// or just the keyword when the statement has none. The "from" cause of a
// raise is left out.
func (l *lowerer) keywordLabel(kw string, n *sitter.Node) string {
	cause := n.ChildByFieldName("cause")
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "comment" || cause != nil && child.StartByte() == cause.StartByte() {
			continue
		}
		return kw + " " + l.text(child)
	}
	return kw
}

func (l *lowerer) ifStatement(n *sitter.Node) flow.Stmt {
	var alternatives []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if t := child.Type(); t == "elif_clause" || t == "else_clause" {
			alternatives = append(alternatives, child)
		}
	}
	cond := n.ChildByFieldName("condition")
	return flow.If{
		Label: "if " + l.text(cond),
		Pos:   pos(cond),
		Then:  l.block(n.ChildByFieldName("consequence")),
		Else:  l.alternatives(alternatives),
	}
}

// alternatives lowers an elif/else chain: each elif becomes an If nested
// in the else branch of the previous one.
func (l *lowerer) alternatives(alts []*sitter.Node) []flow.Stmt {
	if len(alts) == 0 {
		return nil
	}
	first := alts[0]
	if first.Type() == "else_clause" {
		return l.block(first.ChildByFieldName("body"))
	}
	cond := first.ChildByFieldName("condition")
	return []flow.Stmt{flow.If{
		Label: "if " + l.text(cond),
		Pos:   pos(cond),
		Then:  l.block(first.ChildByFieldName("consequence")),
		Else:  l.alternatives(alts[1:]),
	}}
}

func (l *lowerer) forStatement(n *sitter.Node) flow.Stmt {
	prefix := "for"
	if isAsync(n) {
		prefix = "async for"
	}
	return flow.Loop{
		Label: prefix + " " + l.text(n.ChildByFieldName("left")) + " in " + l.text(n.ChildByFieldName("right")),
		Pos:   pos(n),
		Body:  l.block(n.ChildByFieldName("body")),
		Else:  l.elseBody(n.ChildByFieldName("alternative")),
	}
}

func (l *lowerer) elseBody(n *sitter.Node) []flow.Stmt {
	if n == nil {
		return nil
	}
	return l.block(n.ChildByFieldName("body"))
}

func (l *lowerer) tryStatement(n *sitter.Node) flow.Stmt {
	try := flow.Try{Pos: pos(n), Body: l.block(n.ChildByFieldName("body"))}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		clause := n.NamedChild(i)
		switch clause.Type() {
		case "except_clause", "except_group_clause":
			try.Handlers = append(try.Handlers, flow.Handler{
				Label: l.clauseHeader(clause),
				Pos:   pos(clause),
				Body:  l.block(blockOf(clause)),
			})
		case "else_clause":
			try.Else = l.block(clause.ChildByFieldName("body"))
		case "finally_clause":
			try.Finally = l.block(blockOf(clause))
		}
	}
	return try
}

// clauseHeader is the clause text up to its colon with runs of whitespace
// collapsed, e.g. "except (KeyError, ValueError) as e".
func (l *lowerer) clauseHeader(clause *sitter.Node) string {
	end := clause.EndByte()
	if b := blockOf(clause); b != nil {
		end = b.StartByte()
	}
	header := strings.TrimSpace(string(l.src[clause.StartByte():end]))
	header = strings.TrimSpace(strings.TrimSuffix(header, ":"))
	return strings.Join(strings.Fields(header), " ")
}

// blockOf returns the last block child of a clause.
func blockOf(n *sitter.Node) *sitter.Node {
	for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
		if child := n.NamedChild(i); child.Type() == "block" {
			return child
		}
	}
	return nil
}

func (l *lowerer) withStatement(n *sitter.Node) flow.Stmt {
	prefix := "with"
	if isAsync(n) {
		prefix = "async with"
	}
	var items []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		clause := n.NamedChild(i)
		if clause.Type() != "with_clause" {
			continue
		}
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			if item := clause.NamedChild(j); item.Type() == "with_item" {
				items = append(items, l.text(item))
			}
		}
	}
	return flow.With{
		Label: prefix + " " + strings.Join(items, ", "),
		Pos:   pos(n),
		Body:  l.block(n.ChildByFieldName("body")),
	}
}
