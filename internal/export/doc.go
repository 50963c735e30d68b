// Package export writes parsed function graphs into Neo4j.
//
// The graph layout is
//
//	(:FlowModule)-[:DEFINES]->(:FlowFunction)-[:HAS_NODE]->(:FlowNode)
//	(:FlowNode)-[:FLOWS_TO {label, seq}]->(:FlowNode)
//
// Nodes are keyed so that exporting the same module twice replaces the
// earlier copy instead of duplicating it. Statements are sent as batched
// UNWIND queries.
package export
