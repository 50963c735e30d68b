package ir

import "encoding/json"

// Tree converts the node into its wire-shape value tree.
// location is omitted when unavailable; summary is null when absent.
func (n *Node) Tree() Object {
	obj := Object{
		"id":       String(n.ID),
		"kind":     String(n.Kind),
		"label":    String(n.Label),
		"summary":  OptionalText(n.Summary),
		"metadata": objectOrEmpty(n.Metadata),
	}
	if n.Location != nil {
		obj["location"] = Object{
			"file_path": String(n.Location.FilePath),
			"line":      Int(n.Location.Line),
			"column":    Int(n.Location.Column),
		}
	}
	return obj
}

// Tree converts the edge into its wire-shape value tree.
// label and metadata are omitted when empty.
func (e *Edge) Tree() Object {
	obj := Object{
		"source": String(e.Source),
		"target": String(e.Target),
	}
	if e.Label != "" {
		obj["label"] = String(e.Label)
	}
	if len(e.Metadata) > 0 {
		obj["metadata"] = e.Metadata.Clone()
	}
	return obj
}

// Tree converts the function into its wire-shape value tree.
func (f *Function) Tree() Object {
	nodes := make(Array, len(f.Nodes))
	for i := range f.Nodes {
		nodes[i] = f.Nodes[i].Tree()
	}
	edges := make(Array, len(f.Edges))
	for i := range f.Edges {
		edges[i] = f.Edges[i].Tree()
	}
	return Object{
		"name":       String(f.Name),
		"parameters": Strings(f.Parameters),
		"returns":    OptionalText(f.Returns),
		"docstring":  OptionalText(f.Docstring),
		"metadata":   objectOrEmpty(f.Metadata),
		"nodes":      nodes,
		"edges":      edges,
	}
}

// Tree converts the module into its wire-shape value tree. The result is
// deterministic: two structurally equal modules produce equal trees.
func (m *Module) Tree() Object {
	fns := make(Array, len(m.Functions))
	for i := range m.Functions {
		fns[i] = m.Functions[i].Tree()
	}
	return Object{
		"language":  String(m.Language),
		"metadata":  objectOrEmpty(m.Metadata),
		"functions": fns,
	}
}

func objectOrEmpty(obj Object) Object {
	if obj == nil {
		return Object{}
	}
	return obj.Clone()
}

// MarshalJSON encodes the module through Tree so nil slices and absent
// fields follow the wire shape.
func (m Module) MarshalJSON() ([]byte, error) {
	return m.Tree().MarshalJSON()
}

// MarshalJSON encodes the function through Tree.
func (f Function) MarshalJSON() ([]byte, error) {
	return f.Tree().MarshalJSON()
}

// ParseModule decodes a module from its JSON wire form.
func ParseModule(data []byte) (*Module, error) {
	var m Module
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
