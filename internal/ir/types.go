package ir

// NodeKind tags the control-flow role of a node. The set is closed.
type NodeKind string

const (
	KindStart       NodeKind = "start"
	KindEnd         NodeKind = "end"
	KindStatement   NodeKind = "statement"
	KindConditional NodeKind = "conditional"
	KindLoop        NodeKind = "loop"
	KindCall        NodeKind = "call"
	KindReturn      NodeKind = "return"
	KindException   NodeKind = "exception"
	KindUnknown     NodeKind = "unknown"
)

// ValidNodeKinds defines allowed node kinds.
var ValidNodeKinds = map[NodeKind]bool{
	KindStart:       true,
	KindEnd:         true,
	KindStatement:   true,
	KindConditional: true,
	KindLoop:        true,
	KindCall:        true,
	KindReturn:      true,
	KindException:   true,
	KindUnknown:     true,
}

// Valid reports whether k is one of the closed set of node kinds.
func (k NodeKind) Valid() bool {
	return ValidNodeKinds[k]
}

// Edge labels produced by the graph builders.
const (
	LabelTrue      = "True"
	LabelFalse     = "False"
	LabelLoopBody  = "Loop body"
	LabelIterate   = "Iterate"
	LabelLoopElse  = "Loop orelse"
	LabelTryBody   = "Try body"
	LabelException = "Exception"
	LabelReturn    = "Return"
	LabelRaise     = "Raise"
)

// Location identifies where a node originated in the source text.
type Location struct {
	FilePath string `json:"file_path"`
	Line     int    `json:"line"`   // 1-based
	Column   int    `json:"column"` // 0-based
}

// Node is a single vertex of a function's control-flow graph.
type Node struct {
	ID       string    `json:"id"`
	Kind     NodeKind  `json:"kind"`
	Label    string    `json:"label"`
	Summary  *string   `json:"summary"`
	Metadata Object    `json:"metadata"`
	Location *Location `json:"location,omitempty"` // nil for synthetic nodes
}

// Edge is a directed control-flow transfer between two nodes of the same function.
type Edge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Label    string `json:"label,omitempty"`
	Metadata Object `json:"metadata,omitempty"`
}

// Function is the graph built for one function declaration.
type Function struct {
	Name       string   `json:"name"`
	Parameters []string `json:"parameters"`
	Returns    *string  `json:"returns"`
	Docstring  *string  `json:"docstring"`
	Metadata   Object   `json:"metadata"`
	Nodes      []Node   `json:"nodes"`
	Edges      []Edge   `json:"edges"`
}

// Module is the result of parsing one source text.
type Module struct {
	Language  string     `json:"language"`
	Metadata  Object     `json:"metadata"`
	Functions []Function `json:"functions"`
}

// Text returns a pointer to s, or nil when s is empty.
// Optional text fields use nil for "absent".
func Text(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Node returns the node with the given id, or nil.
func (f *Function) Node(id string) *Node {
	for i := range f.Nodes {
		if f.Nodes[i].ID == id {
			return &f.Nodes[i]
		}
	}
	return nil
}

// NodesOfKind returns the nodes of kind k in declaration order.
func (f *Function) NodesOfKind(k NodeKind) []Node {
	var out []Node
	for _, n := range f.Nodes {
		if n.Kind == k {
			out = append(out, n)
		}
	}
	return out
}

// Start returns the function's start node, or nil when missing.
func (f *Function) Start() *Node {
	return f.firstOfKind(KindStart)
}

// End returns the function's end node, or nil when missing.
func (f *Function) End() *Node {
	return f.firstOfKind(KindEnd)
}

func (f *Function) firstOfKind(k NodeKind) *Node {
	for i := range f.Nodes {
		if f.Nodes[i].Kind == k {
			return &f.Nodes[i]
		}
	}
	return nil
}

// Outgoing returns the edges leaving id in declaration order.
func (f *Function) Outgoing(id string) []Edge {
	var out []Edge
	for _, e := range f.Edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// Incoming returns the edges entering id in declaration order.
func (f *Function) Incoming(id string) []Edge {
	var out []Edge
	for _, e := range f.Edges {
		if e.Target == id {
			out = append(out, e)
		}
	}
	return out
}

// Function returns the function with the given name, or nil.
func (m *Module) Function(name string) *Function {
	for i := range m.Functions {
		if m.Functions[i].Name == name {
			return &m.Functions[i]
		}
	}
	return nil
}
