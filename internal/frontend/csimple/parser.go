package csimple

import (
	"fmt"

	"github.com/roach88/flowir/internal/flow"
)

// syntaxError is a per-function parse failure.
type syntaxError struct {
	offset  int
	message string
}

func (e *syntaxError) Error() string {
	return fmt.Sprintf("%s at offset %d", e.message, e.offset)
}

// stmtParser is a recursive-descent parser over a function body.
type stmtParser struct {
	v *codeView
}

// block parses statements in [start, end).
func (p *stmtParser) block(start, end int) ([]flow.Stmt, error) {
	var out []flow.Stmt
	for i := start; ; {
		i = p.v.skipSpace(i, end)
		if i >= end {
			return out, nil
		}
		stmts, next, err := p.statement(i, end)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
		i = next
	}
}

// statement parses one statement starting at i. A bare block yields its
// statements inline; an empty statement yields none.
func (p *stmtParser) statement(i, limit int) ([]flow.Stmt, int, error) {
	src := p.v.cleaned
	switch {
	case src[i] == ';':
		return nil, i + 1, nil
	case src[i] == '{':
		end := p.v.matching(i, '{', '}')
		if end < 0 || end >= limit {
			return nil, 0, &syntaxError{i, "unclosed block"}
		}
		stmts, err := p.block(i+1, end)
		return stmts, end + 1, err
	case p.v.keywordAt(i, "if"):
		return one(p.parseIf(i, limit))
	case p.v.keywordAt(i, "for"):
		return one(p.parseLoop(i, limit, "for"))
	case p.v.keywordAt(i, "while"):
		return one(p.parseLoop(i, limit, "while"))
	case p.v.keywordAt(i, "do"):
		return one(p.parseDoWhile(i, limit))
	case p.v.keywordAt(i, "switch"):
		return one(p.parseSwitch(i, limit))
	case p.v.keywordAt(i, "else"):
		return nil, 0, &syntaxError{i, "else without if"}
	}

	end, err := p.statementEnd(i, limit)
	if err != nil {
		return nil, 0, err
	}
	text := p.v.text(i, end)
	pos := p.v.position(i)
	if p.v.keywordAt(i, "return") {
		return []flow.Stmt{flow.Return{Label: text, Pos: pos}}, end, nil
	}
	return []flow.Stmt{flow.Plain{Label: text, Pos: pos}}, end, nil
}

func one(s flow.Stmt, next int, err error) ([]flow.Stmt, int, error) {
	if err != nil {
		return nil, 0, err
	}
	return []flow.Stmt{s}, next, nil
}

// header parses the parenthesized group following a keyword at kwAt and
// returns the offsets of its parentheses.
func (p *stmtParser) header(kwAt int, kw string, limit int) (int, int, error) {
	open := p.v.skipSpace(kwAt+len(kw), limit)
	if open >= limit || p.v.cleaned[open] != '(' {
		return 0, 0, &syntaxError{kwAt, "malformed " + kw + " statement"}
	}
	end := p.v.matching(open, '(', ')')
	if end < 0 || end >= limit {
		return 0, 0, &syntaxError{open, "unbalanced parentheses in " + kw + " header"}
	}
	return open, end, nil
}

// body parses the statement or braced block controlled by a keyword.
func (p *stmtParser) body(start, limit int) ([]flow.Stmt, int, error) {
	if start >= limit {
		return nil, start, nil
	}
	return p.statement(start, limit)
}

func (p *stmtParser) parseIf(start, limit int) (flow.Stmt, int, error) {
	open, rparen, err := p.header(start, "if", limit)
	if err != nil {
		return nil, 0, err
	}
	stmt := flow.If{
		Label: "if (" + p.v.text(open+1, rparen) + ")",
		Pos:   p.v.position(start),
	}

	then, next, err := p.body(p.v.skipSpace(rparen+1, limit), limit)
	if err != nil {
		return nil, 0, err
	}
	stmt.Then = then

	elseAt := p.v.skipSpace(next, limit)
	if elseAt < limit && p.v.keywordAt(elseAt, "else") {
		otherwise, after, err := p.body(p.v.skipSpace(elseAt+len("else"), limit), limit)
		if err != nil {
			return nil, 0, err
		}
		stmt.Else, next = otherwise, after
	}
	return stmt, next, nil
}

func (p *stmtParser) parseLoop(start, limit int, kw string) (flow.Stmt, int, error) {
	_, rparen, err := p.header(start, kw, limit)
	if err != nil {
		return nil, 0, err
	}
	body, next, err := p.body(p.v.skipSpace(rparen+1, limit), limit)
	if err != nil {
		return nil, 0, err
	}
	return flow.Loop{
		Label: p.v.text(start, rparen+1),
		Pos:   p.v.position(start),
		Body:  body,
	}, next, nil
}

// parseDoWhile models do { ... } while (c); as a loop node labeled
// "do-while (c)". Like every loop, the node itself is an exit, which
// under-models the body running at least once.
func (p *stmtParser) parseDoWhile(start, limit int) (flow.Stmt, int, error) {
	body, next, err := p.body(p.v.skipSpace(start+len("do"), limit), limit)
	if err != nil {
		return nil, 0, err
	}
	whileAt := p.v.skipSpace(next, limit)
	if whileAt >= limit || !p.v.keywordAt(whileAt, "while") {
		return nil, 0, &syntaxError{start, "malformed do-while loop"}
	}
	open, rparen, err := p.header(whileAt, "while", limit)
	if err != nil {
		return nil, 0, err
	}
	next = p.v.skipSpace(rparen+1, limit)
	if next < limit && p.v.cleaned[next] == ';' {
		next++
	}
	return flow.Loop{
		Label: "do-while (" + p.v.text(open+1, rparen) + ")",
		Pos:   p.v.position(start),
		Body:  body,
	}, next, nil
}

// parseSwitch keeps a switch as one statement node labeled with its header.
// Case bodies are not modeled.
func (p *stmtParser) parseSwitch(start, limit int) (flow.Stmt, int, error) {
	_, rparen, err := p.header(start, "switch", limit)
	if err != nil {
		return nil, 0, err
	}
	brace := p.v.skipSpace(rparen+1, limit)
	if brace >= limit || p.v.cleaned[brace] != '{' {
		return nil, 0, &syntaxError{start, "malformed switch statement"}
	}
	end := p.v.matching(brace, '{', '}')
	if end < 0 || end >= limit {
		return nil, 0, &syntaxError{brace, "unclosed switch body"}
	}
	return flow.Plain{Label: p.v.text(start, rparen+1), Pos: p.v.position(start)}, end + 1, nil
}

// statementEnd returns the offset just past the ';' ending the statement
// at start. A ';' nested in (), [] or {} does not count. Text running to
// limit without a terminator is taken as one statement.
func (p *stmtParser) statementEnd(start, limit int) (int, error) {
	var paren, bracket, brace int
	var quote byte
	src := p.v.cleaned
	for i := start; i < limit; i++ {
		ch := src[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'':
			quote = ch
		case '(':
			paren++
		case ')':
			paren = max(0, paren-1)
		case '[':
			bracket++
		case ']':
			bracket = max(0, bracket-1)
		case '{':
			brace++
		case '}':
			if brace == 0 {
				return 0, &syntaxError{i, "unbalanced braces"}
			}
			brace--
		case ';':
			if paren == 0 && bracket == 0 && brace == 0 {
				return i + 1, nil
			}
		}
	}
	if brace > 0 {
		return 0, &syntaxError{start, "unclosed block in statement"}
	}
	return limit, nil
}
