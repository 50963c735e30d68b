package csimple

import (
	"strings"

	"github.com/roach88/flowir/internal/flow"
)

// codeView holds the original source and a cleaned copy of equal length.
// Indices are shared: any offset found in cleaned addresses the same
// character in original.
type codeView struct {
	original string
	cleaned  string
}

type scanState int

const (
	stateCode scanState = iota
	stateLineComment
	stateBlockComment
	stateString
	stateChar
	stateDirective
)

func newCodeView(code string) *codeView {
	return &codeView{original: code, cleaned: clean(code)}
}

// clean blanks comments, literal bodies and preprocessor directives.
// Newlines are kept so line numbers survive; quotes are kept so literals
// still delimit.
func clean(code string) string {
	out := []byte(code)
	blank := func(i int) {
		if out[i] != '\n' {
			out[i] = ' '
		}
	}

	state := stateCode
	lineStart := true
	n := len(code)
	for i := 0; i < n; i++ {
		ch := code[i]
		var next byte
		if i+1 < n {
			next = code[i+1]
		}

		switch state {
		case stateCode:
			switch {
			case ch == '/' && next == '/':
				blank(i)
				blank(i + 1)
				i++
				state = stateLineComment
			case ch == '/' && next == '*':
				blank(i)
				blank(i + 1)
				i++
				state = stateBlockComment
			case ch == '"':
				state = stateString
			case ch == '\'':
				state = stateChar
			case ch == '#' && lineStart:
				blank(i)
				state = stateDirective
			}
		case stateLineComment:
			if ch == '\n' {
				state = stateCode
			} else {
				blank(i)
			}
		case stateBlockComment:
			if ch == '*' && next == '/' {
				blank(i)
				blank(i + 1)
				i++
				state = stateCode
			} else {
				blank(i)
			}
		case stateString, stateChar:
			quote := byte('"')
			if state == stateChar {
				quote = '\''
			}
			switch {
			case ch == '\\' && i+1 < n:
				blank(i)
				blank(i + 1)
				i++
			case ch == quote:
				state = stateCode
			case ch == '\n':
				// Unterminated literal: recover at end of line.
				state = stateCode
			default:
				blank(i)
			}
		case stateDirective:
			switch {
			case ch == '\\' && next == '\n':
				blank(i)
				i++
			case ch == '\n':
				state = stateCode
			default:
				blank(i)
			}
		}

		if code[i] == '\n' {
			lineStart = true
		} else if ch != ' ' && ch != '\t' && ch != '\r' {
			lineStart = false
		}
	}
	return string(out)
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || ('0' <= ch && ch <= '9')
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\v' || ch == '\f'
}

// skipSpace returns the first non-whitespace index in [idx, limit).
func (v *codeView) skipSpace(idx, limit int) int {
	for idx < limit && isSpace(v.cleaned[idx]) {
		idx++
	}
	return idx
}

// matching returns the index of the delimiter closing the one at start,
// or -1. Quoted literals and any comment text are skipped.
func (v *codeView) matching(start int, open, close byte) int {
	depth := 0
	n := len(v.cleaned)
	var quote byte
	for i := start; i < n; i++ {
		ch := v.cleaned[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch {
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '/' && i+1 < n && v.cleaned[i+1] == '/':
			for i < n && v.cleaned[i] != '\n' {
				i++
			}
		case ch == '/' && i+1 < n && v.cleaned[i+1] == '*':
			end := strings.Index(v.cleaned[i+2:], "*/")
			if end < 0 {
				return -1
			}
			i += end + 3
		case ch == open:
			depth++
		case ch == close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// keywordAt reports whether kw appears at idx as a whole word.
func (v *codeView) keywordAt(idx int, kw string) bool {
	if !strings.HasPrefix(v.cleaned[idx:], kw) {
		return false
	}
	if idx > 0 && isIdentChar(v.cleaned[idx-1]) {
		return false
	}
	end := idx + len(kw)
	return end >= len(v.cleaned) || !isIdentChar(v.cleaned[end])
}

// position converts an offset to a 1-based line and 0-based column.
func (v *codeView) position(idx int) flow.Pos {
	if idx > len(v.cleaned) {
		idx = len(v.cleaned)
	}
	line := strings.Count(v.cleaned[:idx], "\n") + 1
	lastNL := strings.LastIndexByte(v.cleaned[:idx], '\n')
	return flow.Pos{Line: line, Column: idx - lastNL - 1}
}

// text returns the original source in [start, end), trimmed.
func (v *codeView) text(start, end int) string {
	return strings.TrimSpace(v.original[start:end])
}
