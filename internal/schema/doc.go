// Package schema checks serialized modules against the IR wire shape.
//
// The shape is a CUE definition embedded in the binary (ir.cue). A
// document passes Check when it unifies with #Module, decodes into
// ir.Module, and every function satisfies the graph invariants.
package schema
