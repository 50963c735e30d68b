package flow

import (
	"fmt"
	"strings"

	"github.com/roach88/flowir/internal/ir"
	"github.com/roach88/flowir/internal/summarize"
)

// DefaultFilePath is stamped into locations when the caller gives no path.
const DefaultFilePath = "<memory>"

// Labels of the synthetic nodes.
const (
	StartLabel = "Start"
	EndLabel   = "End"
)

// Builder turns lowered functions into IR graphs.
//
// Each Build call starts from a fresh arena (node list, edge list, id
// sequence) so no state crosses function or call boundaries. A Builder is
// not safe for concurrent use; give each goroutine its own.
type Builder struct {
	filePath string

	nodes []ir.Node
	edges []ir.Edge
	ids   idSequence
	endID string
}

// NewBuilder creates a builder stamping filePath into node locations.
func NewBuilder(filePath string) *Builder {
	if filePath == "" {
		filePath = DefaultFilePath
	}
	return &Builder{filePath: filePath}
}

// FilePath returns the path stamped into node locations.
func (b *Builder) FilePath() string {
	return b.filePath
}

// idSequence hands out monotonically increasing node ids "n0", "n1", ...
type idSequence struct {
	next int
}

func (s *idSequence) Next() string {
	id := fmt.Sprintf("n%d", s.next)
	s.next++
	return id
}

// pending is an exit waiting to be connected, with the label its edge
// should carry.
type pending struct {
	id    string
	label string
}

// graphSlice is the entry/exit pair of a constructed sub-graph.
type graphSlice struct {
	entries []string
	exits   []string
}

// Build lowers fn into a function graph. The returned value shares no
// state with the builder.
func (b *Builder) Build(fn Function) ir.Function {
	b.nodes = nil
	b.edges = nil
	b.ids = idSequence{}

	startID := b.addNode(ir.KindStart, StartLabel, fn.StartPos, nil)
	b.endID = b.addNode(ir.KindEnd, EndLabel, fn.EndPos, ir.Object{"reason": ir.String("function_terminator")})

	for _, exit := range b.block(fn.Body, []pending{{id: startID}}) {
		if exit != b.endID {
			b.edges = append(b.edges, ir.Edge{Source: exit, Target: b.endID})
		}
	}

	params := make([]string, len(fn.Parameters))
	copy(params, fn.Parameters)

	out := ir.Function{
		Name:       fn.Name,
		Parameters: params,
		Returns:    ir.Text(strings.TrimSpace(fn.Returns)),
		Docstring:  ir.Text(fn.Docstring),
		Metadata:   fn.Metadata.Clone(),
		Nodes:      b.nodes,
		Edges:      b.edges,
	}
	b.nodes = nil
	b.edges = nil
	return out
}

// block builds stmts sequentially from the incoming exits and returns the
// block's exits. An empty block passes its incoming sources through
// (their labels are dropped). With no incoming exits the block is
// unreachable and builds nothing.
func (b *Builder) block(stmts []Stmt, incoming []pending) []string {
	if len(stmts) == 0 {
		return sources(incoming)
	}
	if len(incoming) == 0 {
		return nil
	}

	current := incoming
	for _, stmt := range stmts {
		s := b.slice(stmt)
		b.connect(current, s.entries)
		current = unlabeled(s.exits)
		if len(current) == 0 {
			break
		}
	}
	return sources(current)
}

func (b *Builder) connect(from []pending, to []string) {
	for _, src := range from {
		for _, dst := range to {
			b.edges = append(b.edges, ir.Edge{Source: src.id, Target: dst, Label: src.label})
		}
	}
}

func (b *Builder) slice(stmt Stmt) graphSlice {
	switch s := stmt.(type) {
	case If:
		return b.ifSlice(s)
	case Loop:
		return b.loopSlice(s)
	case Try:
		return b.trySlice(s)
	case With:
		id := b.addNode(ir.KindStatement, s.Label, s.Pos, nil)
		return graphSlice{entries: []string{id}, exits: b.block(s.Body, []pending{{id: id}})}
	case Return:
		return b.terminator(ir.KindReturn, s.Label, s.Pos, ir.LabelReturn)
	case Raise:
		return b.terminator(ir.KindException, s.Label, s.Pos, ir.LabelRaise)
	case Plain:
		id := b.addNode(ir.KindStatement, s.Label, s.Pos, nil)
		return graphSlice{entries: []string{id}, exits: []string{id}}
	default:
		panic(fmt.Sprintf("flow: unhandled statement type %T", stmt))
	}
}

func (b *Builder) ifSlice(s If) graphSlice {
	cond := b.addNode(ir.KindConditional, s.Label, s.Pos, nil)
	thenExits := b.block(s.Then, []pending{{id: cond, label: ir.LabelTrue}})
	elseExits := []string{cond}
	if len(s.Else) > 0 {
		elseExits = b.block(s.Else, []pending{{id: cond, label: ir.LabelFalse}})
	}
	return graphSlice{entries: []string{cond}, exits: dedupe(thenExits, elseExits)}
}

func (b *Builder) loopSlice(s Loop) graphSlice {
	loop := b.addNode(ir.KindLoop, s.Label, s.Pos, nil)
	bodyExits := b.block(s.Body, []pending{{id: loop, label: ir.LabelLoopBody}})
	if len(s.Body) > 0 {
		for _, exit := range bodyExits {
			b.edges = append(b.edges, ir.Edge{Source: exit, Target: loop, Label: ir.LabelIterate})
		}
	}
	elseExits := []string{loop}
	if len(s.Else) > 0 {
		elseExits = b.block(s.Else, []pending{{id: loop, label: ir.LabelLoopElse}})
	}
	return graphSlice{entries: []string{loop}, exits: dedupe(elseExits, []string{loop})}
}

func (b *Builder) trySlice(s Try) graphSlice {
	try := b.addNode(ir.KindStatement, "try", s.Pos, nil)
	bodyExits := b.block(s.Body, []pending{{id: try, label: ir.LabelTryBody}})

	var handlerExits []string
	for _, h := range s.Handlers {
		hid := b.addNode(ir.KindException, h.Label, h.Pos, nil)
		b.edges = append(b.edges, ir.Edge{Source: try, Target: hid, Label: ir.LabelException})
		handlerExits = append(handlerExits, b.block(h.Body, []pending{{id: hid}})...)
	}

	normalExits := bodyExits
	if len(s.Else) > 0 {
		normalExits = b.block(s.Else, unlabeled(bodyExits))
	}
	finalExits := normalExits
	if len(s.Finally) > 0 {
		finalExits = b.block(s.Finally, unlabeled(normalExits))
	}
	return graphSlice{entries: []string{try}, exits: dedupe(handlerExits, finalExits)}
}

func (b *Builder) terminator(kind ir.NodeKind, label string, pos Pos, edgeLabel string) graphSlice {
	id := b.addNode(kind, label, pos, nil)
	b.edges = append(b.edges, ir.Edge{Source: id, Target: b.endID, Label: edgeLabel})
	return graphSlice{entries: []string{id}}
}

func (b *Builder) addNode(kind ir.NodeKind, label string, pos Pos, metadata ir.Object) string {
	id := b.ids.Next()
	label = strings.TrimSpace(label)
	node := ir.Node{
		ID:       id,
		Kind:     kind,
		Label:    label,
		Summary:  ir.Text(summarize.ForKind(kind, label)),
		Metadata: metadata,
	}
	if pos.Known() {
		node.Location = &ir.Location{FilePath: b.filePath, Line: pos.Line, Column: pos.Column}
	}
	b.nodes = append(b.nodes, node)
	return id
}

func sources(ps []pending) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.id
	}
	return out
}

func unlabeled(ids []string) []pending {
	out := make([]pending, len(ids))
	for i, id := range ids {
		out[i] = pending{id: id}
	}
	return out
}

// dedupe concatenates lists keeping the first occurrence of each id.
func dedupe(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}
