package testutil

import (
	"fmt"
	"strings"

	"github.com/roach88/flowir/internal/ir"
)

// EdgeTriples returns {source, target, label} for every edge, in order.
func EdgeTriples(fn *ir.Function) [][3]string {
	out := make([][3]string, len(fn.Edges))
	for i, e := range fn.Edges {
		out[i] = [3]string{e.Source, e.Target, e.Label}
	}
	return out
}

// Labels returns the node labels in id order.
func Labels(fn *ir.Function) []string {
	out := make([]string, len(fn.Nodes))
	for i, n := range fn.Nodes {
		out[i] = n.Label
	}
	return out
}

// NodesByLabel returns every node whose label is label.
func NodesByLabel(fn *ir.Function, label string) []ir.Node {
	var out []ir.Node
	for _, n := range fn.Nodes {
		if n.Label == label {
			out = append(out, n)
		}
	}
	return out
}

// LabeledEdges renders each edge as "source label -> target label",
// with the edge label in brackets when present. Node labels make the
// result independent of id assignment.
func LabeledEdges(fn *ir.Function) []string {
	label := func(id string) string {
		if n := fn.Node(id); n != nil {
			return n.Label
		}
		return "?" + id
	}
	out := make([]string, len(fn.Edges))
	for i, e := range fn.Edges {
		s := label(e.Source) + " -> " + label(e.Target)
		if e.Label != "" {
			s += " [" + e.Label + "]"
		}
		out[i] = s
	}
	return out
}

// Describe renders fn one node and one edge per line, for failure messages.
func Describe(fn *ir.Function) string {
	var b strings.Builder
	fmt.Fprintf(&b, "function %s(%s)\n", fn.Name, strings.Join(fn.Parameters, ", "))
	for _, n := range fn.Nodes {
		fmt.Fprintf(&b, "  %-4s %-12s %q\n", n.ID, n.Kind, n.Label)
	}
	for _, e := range fn.Edges {
		if e.Label != "" {
			fmt.Fprintf(&b, "  %s -> %s [%s]\n", e.Source, e.Target, e.Label)
		} else {
			fmt.Fprintf(&b, "  %s -> %s\n", e.Source, e.Target)
		}
	}
	return b.String()
}
