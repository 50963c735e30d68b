// Package python is the grammar-driven Python frontend.
//
// Source is parsed with the tree-sitter Python grammar. Every top-level
// function definition (decorated or not, sync or async) is lowered into
// flow statements and built into one graph. A source file containing any
// syntax error is rejected as a whole with a PARSE error; no partial
// module is returned.
package python
