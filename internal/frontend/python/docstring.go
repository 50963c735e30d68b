package python

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// docstring returns the cleaned docstring of a function body, or "" when
// the first statement is not a plain string literal.
func (l *lowerer) docstring(body *sitter.Node) string {
	if body == nil {
		return ""
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() == "comment" {
			continue
		}
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() != 1 {
			return ""
		}
		lit := stmt.NamedChild(0)
		if lit.Type() != "string" {
			return ""
		}
		value, ok := stringValue(lit.Content(l.src))
		if !ok {
			return ""
		}
		return cleanDoc(value)
	}
	return ""
}

// stringValue decodes a Python string literal. Byte strings and f-strings
// are rejected; raw strings are taken verbatim.
func stringValue(lit string) (string, bool) {
	i := 0
	raw := false
	for i < len(lit) && lit[i] != '"' && lit[i] != '\'' {
		switch lit[i] {
		case 'r', 'R':
			raw = true
		case 'u', 'U':
		default:
			return "", false
		}
		i++
	}
	body := lit[i:]
	quote := 1
	if strings.HasPrefix(body, `"""`) || strings.HasPrefix(body, `'''`) {
		quote = 3
	}
	if len(body) < 2*quote {
		return "", false
	}
	body = body[quote : len(body)-quote]
	if raw {
		return body, true
	}
	return unescape(body), true
}

var escapes = map[byte]string{
	'n':  "\n",
	't':  "\t",
	'r':  "\r",
	'\\': "\\",
	'\'': "'",
	'"':  "\"",
	'\n': "",
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			if rep, ok := escapes[s[i+1]]; ok {
				b.WriteString(rep)
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// cleanDoc normalizes docstring indentation: tabs are expanded, leading
// whitespace is stripped from the first line, the common indentation of
// the remaining lines is removed, and blank lines at either end dropped.
func cleanDoc(doc string) string {
	lines := strings.Split(expandTabs(doc), "\n")

	margin := -1
	for _, line := range lines[1:] {
		content := strings.TrimLeft(line, " ")
		if content == "" {
			continue
		}
		indent := len(line) - len(content)
		if margin < 0 || indent < margin {
			margin = indent
		}
	}

	lines[0] = strings.TrimLeft(lines[0], " ")
	if margin > 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) > margin {
				lines[i] = lines[i][margin:]
			} else {
				lines[i] = strings.TrimLeft(lines[i], " ")
			}
		}
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			n := 8 - col%8
			b.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n':
			b.WriteRune(r)
			col = 0
		default:
			b.WriteRune(r)
			col++
		}
	}
	return b.String()
}
