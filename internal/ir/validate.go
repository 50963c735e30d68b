package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Invariant rule names reported by Validate.
const (
	RuleSingleStart  = "single_start"
	RuleStartInbound = "start_in_degree"
	RuleSingleEnd    = "single_end"
	RuleTerminator   = "terminator_to_end"
	RuleDanglingEdge = "dangling_edge"
	RuleNodeIDs      = "node_ids"
	RuleNodeKind     = "node_kind"
)

// Violation describes one broken graph invariant.
type Violation struct {
	Function string
	Rule     string
	Message  string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s: %s", v.Function, v.Rule, v.Message)
}

// ValidationError collects every violation found in a module.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("invalid IR (%d violations): %s", len(e.Violations), strings.Join(parts, "; "))
}

// ValidateModule checks every function and returns a *ValidationError
// when any invariant is broken.
func ValidateModule(m *Module) error {
	var all []Violation
	for i := range m.Functions {
		all = append(all, Validate(&m.Functions[i])...)
	}
	if len(all) > 0 {
		return &ValidationError{Violations: all}
	}
	return nil
}

// Validate checks the structural invariants of one function graph:
//   - exactly one start node, with no incoming edges
//   - exactly one end node
//   - return nodes, and exception nodes raised to end, have exactly one
//     outgoing edge and it targets end
//   - every edge endpoint is a node of this function
//   - node ids are unique and, for builder-assigned "n<k>" ids, strictly
//     increasing in declaration order
//   - every node kind belongs to the closed set
func Validate(f *Function) []Violation {
	var out []Violation
	report := func(rule, format string, args ...any) {
		out = append(out, Violation{Function: f.Name, Rule: rule, Message: fmt.Sprintf(format, args...)})
	}

	ids := make(map[string]bool, len(f.Nodes))
	last := -1
	for _, n := range f.Nodes {
		if ids[n.ID] {
			report(RuleNodeIDs, "duplicate node id %q", n.ID)
		}
		ids[n.ID] = true
		if seq, ok := sequenceOf(n.ID); ok {
			if seq <= last {
				report(RuleNodeIDs, "node id %q is out of sequence", n.ID)
			}
			last = seq
		}
		if !n.Kind.Valid() {
			report(RuleNodeKind, "node %s has unknown kind %q", n.ID, n.Kind)
		}
	}

	for _, e := range f.Edges {
		if !ids[e.Source] {
			report(RuleDanglingEdge, "edge source %q is not a node", e.Source)
		}
		if !ids[e.Target] {
			report(RuleDanglingEdge, "edge target %q is not a node", e.Target)
		}
	}

	starts := f.NodesOfKind(KindStart)
	if len(starts) != 1 {
		report(RuleSingleStart, "expected 1 start node, found %d", len(starts))
	}
	for _, s := range starts {
		if in := f.Incoming(s.ID); len(in) > 0 {
			report(RuleStartInbound, "start node %s has %d incoming edges", s.ID, len(in))
		}
	}

	ends := f.NodesOfKind(KindEnd)
	if len(ends) != 1 {
		report(RuleSingleEnd, "expected 1 end node, found %d", len(ends))
		return out
	}
	endID := ends[0].ID

	for _, n := range f.Nodes {
		outgoing := f.Outgoing(n.ID)
		switch {
		case n.Kind == KindReturn:
		case n.Kind == KindException && raisesToEnd(outgoing, endID):
		default:
			continue
		}
		if len(outgoing) != 1 || outgoing[0].Target != endID {
			report(RuleTerminator, "%s node %s must have a single edge to end, has %d", n.Kind, n.ID, len(outgoing))
		}
	}
	return out
}

func raisesToEnd(edges []Edge, endID string) bool {
	for _, e := range edges {
		if e.Target == endID && e.Label == LabelRaise {
			return true
		}
	}
	return false
}

// sequenceOf extracts k from a builder id of the form "n<k>".
func sequenceOf(id string) (int, bool) {
	if !strings.HasPrefix(id, "n") {
		return 0, false
	}
	k, err := strconv.Atoi(id[1:])
	if err != nil || k < 0 {
		return 0, false
	}
	return k, true
}
