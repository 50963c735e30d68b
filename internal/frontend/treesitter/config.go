package treesitter

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/roach88/flowir/internal/frontend"
)

// Default capture names.
const (
	DefaultNameCapture = "name"
	DefaultBodyCapture = "body"
)

// Config describes how to adapt one tree-sitter grammar.
type Config struct {
	// Language is the registry key.
	Language string

	// Grammar is the tree-sitter language used for parsing and queries.
	Grammar *sitter.Language

	// FunctionQuery matches function definitions. Each match must
	// capture the function name and body.
	FunctionQuery string

	// NameCapture and BodyCapture default to "name" and "body".
	NameCapture string
	BodyCapture string

	// ReturnTypes and RaiseTypes are statement node types lowered to
	// return and exception nodes.
	ReturnTypes []string
	RaiseTypes  []string

	// CommentTypes are node types dropped from function bodies.
	CommentTypes []string
}

func (c Config) withDefaults() Config {
	if c.NameCapture == "" {
		c.NameCapture = DefaultNameCapture
	}
	if c.BodyCapture == "" {
		c.BodyCapture = DefaultBodyCapture
	}
	return c
}

// Factory returns a frontend factory for c, for use with any registry.
func (c Config) Factory() frontend.Factory {
	return func() (frontend.Frontend, error) {
		return New(c)
	}
}

// Register adds c to the default frontend registry.
func Register(c Config) error {
	return frontend.Register(c.Language, c.Factory())
}

// MustRegister is like Register but panics on error.
func MustRegister(c Config) {
	frontend.MustRegister(c.Language, c.Factory())
}
