// Package treesitter adapts any tree-sitter grammar into a frontend.
//
// A Config names a grammar and a query whose matches capture a function's
// name and body. The adapter emits a flat graph per match: each named
// statement of the body becomes one node in sequence, except that
// configured return and throw statement types leave through the end node.
// Nested control flow is not analysed.
//
// JavaScript is registered under "javascript" on load. Other grammars can
// be added with Register.
package treesitter
