package summarize

import (
	"strings"
	"unicode"

	"github.com/roach88/flowir/internal/ir"
)

// Fixed summaries for synthetic nodes.
const (
	StartSummary = "Begin the function."
	EndSummary   = "Finish the function."
)

// ForKind selects the summary rule by node kind.
func ForKind(kind ir.NodeKind, label string) string {
	switch kind {
	case ir.KindStart:
		return StartSummary
	case ir.KindEnd:
		return EndSummary
	case ir.KindConditional:
		return Expression(label)
	case ir.KindLoop:
		return Loop(label)
	default:
		return Statement(label)
	}
}

// Expression summarizes a branch header such as "if x > 0" or "elif ok".
// Anything else is summarized as a statement.
func Expression(expr string) string {
	expr = strings.TrimSpace(expr)
	switch {
	case expr == "":
		return ""
	case hasKeyword(expr, "return"):
		return Statement(expr)
	case hasKeyword(expr, "if"):
		return "Check whether " + Condition(expr[2:]) + "."
	case hasKeyword(expr, "elif"):
		return "Otherwise, check whether " + Condition(expr[4:]) + "."
	case hasKeyword(expr, "else"):
		return "Handle the alternative branch."
	}
	return Statement(expr)
}

// conditionWords spells out operators. Longer operators come first so
// ">=" is rewritten before ">".
var conditionWords = strings.NewReplacer(
	"->", ".",
	"<<", " shifted left by ",
	">>", " shifted right by ",
	"==", " equals ",
	"!=", " does not equal ",
	">=", " is at least ",
	"<=", " is at most ",
	">", " is greater than ",
	"<", " is less than ",
	"&&", " and ",
	"||", " or ",
	"!", " not ",
)

// Condition rewrites a boolean expression with its operators in words.
func Condition(cond string) string {
	cond = stripOuterParens(strings.TrimSpace(cond))
	if cond == "" {
		return "the condition holds"
	}
	return collapseSpace(conditionWords.Replace(cond))
}

// Loop summarizes a loop header. Recognized shapes: "for X in Y",
// "async for X in Y", "for (init; cond; step)", "for k, v := range xs",
// "while C", "do-while (C)" and a bare "for".
func Loop(header string) string {
	header = strings.TrimSpace(header)
	switch {
	case hasKeyword(header, "async for"):
		if target, iterable, ok := splitIteration(header[len("async for"):]); ok {
			return "Asynchronously iterate for each " + Humanize(target) + " in " + Humanize(iterable) + "."
		}
	case hasKeyword(header, "for"):
		return forLoop(header, strings.TrimSpace(header[len("for"):]))
	case hasKeyword(header, "while"):
		return "Loop while " + Condition(header[len("while"):]) + "."
	case strings.HasPrefix(header, "do-while"):
		return "Repeat until " + Condition(header[len("do-while"):]) + " becomes false."
	}
	return "Repeat according to " + header + "."
}

func forLoop(header, rest string) string {
	if rest == "" {
		return "Repeat indefinitely."
	}
	if target, iterable, ok := splitIteration(rest); ok {
		return "Repeat for each " + Humanize(target) + " in " + Humanize(iterable) + "."
	}
	inner := stripOuterParens(rest)
	if parts := strings.Split(inner, ";"); len(parts) == 3 {
		cond := strings.TrimSpace(parts[1])
		if cond == "" {
			return "Repeat indefinitely."
		}
		return "Repeat while " + Condition(cond) + "."
	}
	if !strings.Contains(inner, ";") {
		return "Repeat while " + Condition(inner) + "."
	}
	return "Repeat according to " + header + "."
}

// splitIteration splits "x in xs", "(const x of xs)" or "_, x := range xs"
// into the bound target and the iterable.
func splitIteration(s string) (target, iterable string, ok bool) {
	s = stripOuterParens(strings.TrimSpace(s))
	if i := strings.Index(s, " range "); i >= 0 || strings.HasPrefix(s, "range ") {
		left := ""
		if i >= 0 {
			left = s[:i]
			iterable = s[i+len(" range "):]
		} else {
			iterable = s[len("range "):]
		}
		left = strings.TrimSuffix(strings.TrimSpace(left), ":=")
		left = strings.TrimSuffix(strings.TrimSpace(left), "=")
		target = lastListItem(left)
		if target == "" || target == "_" {
			target = "item"
		}
		return target, strings.TrimSpace(iterable), true
	}
	for _, sep := range []string{" in ", " of "} {
		if i := strings.Index(s, sep); i >= 0 {
			target = dropDeclarator(strings.TrimSpace(s[:i]))
			return target, strings.TrimSpace(s[i+len(sep):]), true
		}
	}
	return "", "", false
}

func lastListItem(s string) string {
	parts := strings.Split(s, ",")
	return strings.TrimSpace(parts[len(parts)-1])
}

// dropDeclarator removes a leading JavaScript declaration keyword.
func dropDeclarator(s string) string {
	for _, kw := range []string{"const ", "let ", "var "} {
		if strings.HasPrefix(s, kw) {
			return strings.TrimSpace(s[len(kw):])
		}
	}
	return s
}

// Statement summarizes a single statement.
func Statement(stmt string) string {
	stmt = strings.TrimSpace(strings.Trim(stmt, "; "))
	if stmt == "" {
		return "Perform the next action."
	}

	switch {
	case hasKeyword(stmt, "return"):
		if expr := strings.TrimSpace(stmt[len("return"):]); expr != "" {
			return "Return " + Value(expr) + "."
		}
		return "Return from the function."
	case hasKeyword(stmt, "raise"), hasKeyword(stmt, "throw"):
		word := "raise"
		if strings.HasPrefix(stmt, "throw") {
			word = "throw"
		}
		if expr := strings.TrimSpace(stmt[len(word):]); expr != "" {
			return "Raise " + Value(expr) + "."
		}
		return "Raise an exception."
	}

	if s, ok := stepStatement(stmt); ok {
		return s
	}
	if left, op, right, ok := splitAssignment(stmt); ok {
		return assignment(left, op, right)
	}
	if strings.HasSuffix(stmt, ")") {
		if s, ok := callStatement(stmt); ok {
			return s
		}
	}

	if readable := Humanize(stmt); readable != "" {
		return readable
	}
	return "Execute the next step."
}

// stepStatement handles increments and decrements such as "i++" and "--n".
func stepStatement(stmt string) (string, bool) {
	for _, op := range []struct{ token, verb string }{{"++", "Increment"}, {"--", "Decrement"}} {
		var target string
		switch {
		case strings.HasSuffix(stmt, op.token):
			target = strings.TrimSuffix(stmt, op.token)
		case strings.HasPrefix(stmt, op.token):
			target = strings.TrimPrefix(stmt, op.token)
		default:
			continue
		}
		target = strings.TrimSpace(target)
		if target != "" && isSimpleOperand(target) {
			return op.verb + " " + Humanize(target) + ".", true
		}
	}
	return "", false
}

func isSimpleOperand(s string) bool {
	for _, r := range s {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("_.[]->*", r)) {
			return false
		}
	}
	return true
}

func assignment(left, op, right string) string {
	switch op {
	case "=", ":=":
		return "Set " + Value(left) + " to " + Value(right) + "."
	case "+=":
		return "Increase " + Value(left) + " by " + Value(right) + "."
	case "-=":
		return "Decrease " + Value(left) + " by " + Value(right) + "."
	case "*=":
		return "Multiply " + Value(left) + " by " + Value(right) + "."
	case "/=":
		return "Divide " + Value(left) + " by " + Value(right) + "."
	}
	return "Update " + Value(left) + " with " + Value(right) + "."
}

// splitAssignment finds the first assignment operator outside brackets
// and string literals. Comparison operators are not assignments.
func splitAssignment(stmt string) (left, op, right string, ok bool) {
	depth := 0
	var quote rune
	for i, r := range stmt {
		if quote != 0 {
			if r == quote && (i == 0 || stmt[i-1] != '\\') {
				quote = 0
			}
			continue
		}
		switch r {
		case '"', '\'', '`':
			quote = r
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '=':
			if depth != 0 {
				continue
			}
			if i+1 < len(stmt) && stmt[i+1] == '=' {
				return "", "", "", false
			}
			start := i
			for start > 0 && strings.IndexByte("+-*/%&|^<>:!", stmt[start-1]) >= 0 {
				start--
			}
			op = stmt[start : i+1]
			switch op {
			case "==", "!=", "<=", ">=":
				return "", "", "", false
			}
			left = strings.TrimSpace(stmt[:start])
			right = strings.TrimSpace(stmt[i+1:])
			if left == "" {
				return "", "", "", false
			}
			return left, op, right, true
		}
	}
	return "", "", "", false
}

// callStatement renders "f(a, b)" as "Call f with a, b.".
func callStatement(stmt string) (string, bool) {
	open := strings.IndexByte(stmt, '(')
	if open <= 0 {
		return "", false
	}
	name := Humanize(stmt[:open])
	if name == "" {
		return "", false
	}
	args := strings.TrimSpace(stmt[open+1 : len(stmt)-1])
	if args == "" {
		return "Call " + name + ".", true
	}
	parts := splitTopLevel(args, ',')
	for i, p := range parts {
		parts[i] = Humanize(p)
	}
	return "Call " + name + " with " + strings.Join(parts, ", ") + ".", true
}

// valueWords spells out arithmetic operators.
var valueWords = strings.NewReplacer(
	"->", ".",
	"**", " to the power of ",
	"//", " floor divided by ",
	"*", " multiplied by ",
	"/", " divided by ",
	"+", " plus ",
	"-", " minus ",
	"%", " modulo ",
)

// Value renders an expression with arithmetic operators in words.
// A quoted string literal is returned without its quotes.
func Value(expr string) string {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return "the value"
	}
	if isQuoted(expr) {
		return strings.Trim(expr, "\"'")
	}
	return collapseSpace(valueWords.Replace(expr))
}

func isQuoted(s string) bool {
	return len(s) >= 2 && strings.ContainsRune(`"'`, rune(s[0])) && strings.ContainsRune(`"'`, rune(s[len(s)-1]))
}

var identifierWords = strings.NewReplacer(
	"->", " to ",
	"::", " ",
	".", " ",
	"[", " ",
	"]", " ",
	"(", "",
	")", "",
)

// Humanize splits camelCase and snake_case identifiers into words and
// replaces member access punctuation with spaces.
func Humanize(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return ""
	}
	var b strings.Builder
	var prev rune
	for i, r := range identifier {
		if i > 0 && unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			b.WriteByte(' ')
		}
		if r == '_' {
			r = ' '
		}
		b.WriteRune(r)
		prev = r
	}
	return collapseSpace(identifierWords.Replace(b.String()))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// hasKeyword reports whether s starts with kw as a whole word.
func hasKeyword(s, kw string) bool {
	if !strings.HasPrefix(s, kw) {
		return false
	}
	if len(s) == len(kw) {
		return true
	}
	next := rune(s[len(kw)])
	return !(unicode.IsLetter(next) || unicode.IsDigit(next) || next == '_')
}

// stripOuterParens removes one pair of parentheses enclosing the whole string.
func stripOuterParens(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return s
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return s
			}
		}
	}
	return strings.TrimSpace(s[1 : len(s)-1])
}

// splitTopLevel splits s on sep when not nested in brackets.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, last := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[last:i]))
				last = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(s[last:]))
}
