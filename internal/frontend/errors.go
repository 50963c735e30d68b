package frontend

import (
	"errors"
	"fmt"
	"strings"
)

// Error represents a failure surfaced by the registry or a frontend.
//
// Error kinds:
//   - Config: duplicate registration, or a frontend without a language key
//   - Lookup: unknown language key; Available lists the registered keys
//   - Parse: the source was rejected as a whole; no partial module exists
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Language is the language key involved, if any.
	Language string

	// Available lists registered keys (lookup errors only).
	Available []string

	// Path, Line and Column locate parse errors when known.
	Path   string
	Line   int
	Column int

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes frontend errors.
type ErrorCode string

const (
	// ErrCodeConfig indicates a registration or construction mistake.
	ErrCodeConfig ErrorCode = "CONFIG"

	// ErrCodeLookup indicates an unknown language key.
	ErrCodeLookup ErrorCode = "LOOKUP"

	// ErrCodeParse indicates the source could not be parsed.
	ErrCodeParse ErrorCode = "PARSE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if e.Path != "" && e.Line > 0 {
		fmt.Fprintf(&b, " (%s:%d:%d)", e.Path, e.Line, e.Column)
	} else if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsConfigError returns true if the error is a configuration error.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error) bool {
	return hasCode(err, ErrCodeConfig)
}

// IsLookupError returns true if the error is an unknown-language error.
func IsLookupError(err error) bool {
	return hasCode(err, ErrCodeLookup)
}

// IsParseError returns true if the error is a whole-module parse failure.
func IsParseError(err error) bool {
	return hasCode(err, ErrCodeParse)
}

func hasCode(err error, code ErrorCode) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}

// NewConfigError creates a configuration error.
func NewConfigError(language, message string) *Error {
	return &Error{Code: ErrCodeConfig, Language: language, Message: message}
}

// NewLookupError creates a lookup error naming the available keys.
func NewLookupError(language string, available []string) *Error {
	list := "<none>"
	if len(available) > 0 {
		list = strings.Join(available, ", ")
	}
	return &Error{
		Code:      ErrCodeLookup,
		Language:  language,
		Available: available,
		Message:   fmt.Sprintf("no parser registered for language %q; available: %s", language, list),
	}
}

// NewParseError creates a whole-module parse error.
func NewParseError(language, path string, line, column int, cause error) *Error {
	return &Error{
		Code:     ErrCodeParse,
		Language: language,
		Message:  fmt.Sprintf("%s source could not be parsed", language),
		Path:     path,
		Line:     line,
		Column:   column,
		Err:      cause,
	}
}
