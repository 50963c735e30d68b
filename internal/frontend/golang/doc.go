// Package golang is a grammar-driven Go frontend built on go/parser.
//
// Every top-level function or method with a body becomes one graph.
// if/else-if chains become conditionals, for and range loops become loops,
// return statements leave through the end node and panic calls are
// treated as exceptions raised to it. switch and select statements are
// collapsed into a single statement node labelled with their header;
// break, continue and goto are plain statements that fall through.
package golang
