package flow

import "github.com/roach88/flowir/internal/ir"

// Stmt is a statement shape the builder knows how to lower.
//
// This is a sealed interface - only types in this package implement it.
// Frontends map their syntax onto these cases:
//   - Plain: any statement that falls through
//   - If: conditional with optional else branch
//   - Loop: for/while/do-while with optional else clause
//   - Try: exception handling with handlers, else and finally
//   - With: scoped-resource statement wrapping a body
//   - Return: leaves the function
//   - Raise: raises to the function's end
type Stmt interface {
	stmtNode() // Marker method - seals interface to this package
}

// Pos is a source position. Line is 1-based, Column 0-based.
// The zero Pos means "no position" and yields a node without location.
type Pos struct {
	Line   int
	Column int
}

// Known reports whether p carries a real position.
func (p Pos) Known() bool {
	return p.Line > 0
}

// Plain is a statement node that falls through to the next statement.
type Plain struct {
	Label string
	Pos   Pos
}

// If is a conditional. Label is the full header, e.g. "if x > 0".
// An empty Else means the condition node itself falls through.
type If struct {
	Label string
	Pos   Pos
	Then  []Stmt
	Else  []Stmt
}

// Loop is any loop. The loop node is always an exit, modeling the
// condition being false or the iteration being exhausted.
type Loop struct {
	Label string
	Pos   Pos
	Body  []Stmt
	Else  []Stmt
}

// Handler is one exception handler of a Try.
type Handler struct {
	Label string
	Pos   Pos
	Body  []Stmt
}

// Try is exception handling. Body exits feed Else when present, and
// Finally is entered from the else (or body) exits.
type Try struct {
	Pos      Pos
	Body     []Stmt
	Handlers []Handler
	Else     []Stmt
	Finally  []Stmt
}

// With is a scoped-resource statement collapsed into one node.
type With struct {
	Label string
	Pos   Pos
	Body  []Stmt
}

// Return leaves the function through its end node.
type Return struct {
	Label string
	Pos   Pos
}

// Raise raises an exception straight to the function's end node.
type Raise struct {
	Label string
	Pos   Pos
}

func (Plain) stmtNode()  {}
func (If) stmtNode()     {}
func (Loop) stmtNode()   {}
func (Try) stmtNode()    {}
func (With) stmtNode()   {}
func (Return) stmtNode() {}
func (Raise) stmtNode()  {}

// Function is a lowered function declaration ready to be built.
type Function struct {
	Name       string
	Parameters []string
	Returns    string
	Docstring  string
	Metadata   ir.Object

	// StartPos and EndPos locate the synthetic start and end nodes.
	StartPos Pos
	EndPos   Pos

	Body []Stmt
}
