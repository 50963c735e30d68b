// Package harness runs conformance scenarios against the frontends.
//
// A scenario names a language, a source text, and assertions over the
// module the engine produces for it. Each run uses a fresh in-memory
// store and parses the source twice, so every scenario also checks that
// cached results round-trip unchanged.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: python_process_order
//	description: "Loop and branch inside one function"
//	language: python
//	file_path: orders.py
//	source: |
//	  def process_order(order):
//	      ...
//	assertions:
//	  - type: node_count
//	    function: process_order
//	    count: 8
//	  - type: has_edge
//	    function: process_order
//	    from: "if order.total > 100"
//	    to: "discount = 0.1"
//	    label: "True"
//
// Instead of source, file may name a source file relative to the
// scenario. Scenarios that must fail set expect_error to one of parse,
// lookup, config or validation.
//
// # Assertion Types
//
//   - function_names: the module defines exactly these functions, in order
//   - parameters: a function's parameter list
//   - node_count, edge_count: graph sizes
//   - kind_count: number of nodes of one kind
//   - has_node, no_node: a node with the given label (and kind) exists or not
//   - has_edge: an edge between two labelled nodes, optionally with a label
//   - summary: the summary of the first node with a label
//   - metadata: a module or function metadata entry
//
// # Golden Files
//
// RunWithGolden compares the produced module, as indented canonical JSON,
// with testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
