package csimple

import "strings"

// keywords are identifiers that never name a function.
var keywords = map[string]bool{
	"if":            true,
	"else":          true,
	"for":           true,
	"while":         true,
	"switch":        true,
	"case":          true,
	"default":       true,
	"return":        true,
	"do":            true,
	"sizeof":        true,
	"goto":          true,
	"enum":          true,
	"struct":        true,
	"union":         true,
	"typedef":       true,
	"__attribute__": true,
}

// candidate is the span of one function definition.
type candidate struct {
	name       string
	nameAt     int
	sigStart   int
	paramOpen  int
	paramClose int
	bodyOpen   int
	bodyClose  int
}

// extractFunctions finds every identifier followed by a balanced
// parameter list, an optional __attribute__((...)) and a balanced body.
// Scanning stops at a body whose braces never close.
func extractFunctions(v *codeView) []candidate {
	src := v.cleaned
	n := len(src)
	var out []candidate

	for i := 0; i < n; {
		ch := src[i]
		if '0' <= ch && ch <= '9' {
			for i < n && isIdentChar(src[i]) {
				i++
			}
			continue
		}
		if !isIdentStart(ch) {
			i++
			continue
		}

		identStart := i
		for i < n && isIdentChar(src[i]) {
			i++
		}
		ident := src[identStart:i]
		if keywords[ident] {
			continue
		}

		j := v.skipSpace(i, n)
		if j >= n || src[j] != '(' {
			i = j
			continue
		}
		paramClose := v.matching(j, '(', ')')
		if paramClose < 0 {
			i = j + 1
			continue
		}

		k := v.skipSpace(paramClose+1, n)
		if strings.HasPrefix(src[k:], "__attribute__") {
			attr := v.skipSpace(k+len("__attribute__"), n)
			if attr < n && src[attr] == '(' {
				if attrClose := v.matching(attr, '(', ')'); attrClose >= 0 {
					k = v.skipSpace(attrClose+1, n)
				}
			}
		}
		if k >= n || src[k] != '{' {
			i = paramClose + 1
			continue
		}

		bodyClose := v.matching(k, '{', '}')
		if bodyClose < 0 {
			break
		}

		out = append(out, candidate{
			name:       ident,
			nameAt:     identStart,
			sigStart:   signatureStart(v, identStart),
			paramOpen:  j,
			paramClose: paramClose,
			bodyOpen:   k,
			bodyClose:  bodyClose,
		})
		i = bodyClose + 1
	}
	return out
}

// signatureStart backtracks from the function name to just after the
// nearest ';' or '}' (or the start of the file), then skips blank space so
// leading comments and directives are not part of the signature.
func signatureStart(v *codeView, identStart int) int {
	k := identStart - 1
	for k >= 0 && v.cleaned[k] != ';' && v.cleaned[k] != '}' {
		k--
	}
	return v.skipSpace(k+1, identStart)
}
