// Package flow builds control-flow graphs from a small, closed set of
// statement shapes.
//
// Every frontend lowers its syntax into []Stmt and hands it to a Builder;
// the slice-merging algorithm lives here once, so graphs from the grammar
// driven and the heuristic frontends satisfy the same invariants.
//
// A slice is the pair (entry ids, exit ids) of a constructed sub-graph.
// Building a block connects the current exits to each statement's entries
// and adopts that statement's exits. A statement with no exits (return,
// raise) ends the block: the statements after it are unreachable and get
// no nodes.
package flow
