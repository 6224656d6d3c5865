package passage

import (
	"fmt"
	"strings"
)

// Layer ID prefixes.
const (
	TerminalLayer = "0"
	NodeLayer     = "1"
)

// Attr is a single key/value attribute.
type Attr struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Attrs is an ordered attribute list. Keys are unique; Set keeps the
// position of an existing key.
type Attrs []Attr

// Get returns the value for key and whether it was present.
func (a Attrs) Get(key string) (string, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

// Value returns the value for key, or "" if absent.
func (a Attrs) Value(key string) string {
	v, _ := a.Get(key)
	return v
}

// Set stores value under key.
func (a *Attrs) Set(key, value string) {
	for i := range *a {
		if (*a)[i].Key == key {
			(*a)[i].Value = value
			return
		}
	}
	*a = append(*a, Attr{Key: key, Value: value})
}

// Passage is one annotated unit.
type Passage struct {
	// ID is the unit identifier, unique within a run.
	ID string `json:"id"`

	// Attrs holds passage-level metadata in insertion order.
	Attrs Attrs `json:"attrs,omitempty"`

	// Terminals are the layer-0 tokens in text order.
	Terminals []*Terminal `json:"terminals,omitempty"`

	// Nodes are the layer-1 graph nodes in creation order.
	Nodes []*Node `json:"nodes,omitempty"`

	index map[string]any
}

// Terminal is a layer-0 token.
type Terminal struct {
	// ID is "0.<position>".
	ID string `json:"id"`

	// Position is the 1-based position in the passage text.
	Position int `json:"position"`

	// Text is the surface form.
	Text string `json:"text"`

	Attrs Attrs `json:"attrs,omitempty"`
}

// Node is a layer-1 graph node.
type Node struct {
	// ID is "1.<n>".
	ID string `json:"id"`

	// Tag is the node label (a concept, a category, or a constant value).
	Tag string `json:"tag"`

	Attrs Attrs `json:"attrs,omitempty"`

	// Edges are the outgoing edges in insertion order.
	Edges []*Edge `json:"edges,omitempty"`
}

// Edge is a labeled edge from a node to a node or terminal.
type Edge struct {
	// Tag is the edge label (a role or a dependency relation).
	Tag string `json:"tag"`

	// Child is the ID of the target node or terminal.
	Child string `json:"child"`

	// Remote marks a secondary edge that is not part of the backbone.
	Remote bool `json:"remote,omitempty"`

	Attrs Attrs `json:"attrs,omitempty"`
}

// New creates an empty passage.
func New(id string) *Passage {
	return &Passage{ID: id}
}

// AddTerminal appends a terminal with the next position.
func (p *Passage) AddTerminal(text string) *Terminal {
	pos := len(p.Terminals) + 1
	t := &Terminal{
		ID:       fmt.Sprintf("%s.%d", TerminalLayer, pos),
		Position: pos,
		Text:     text,
	}
	p.Terminals = append(p.Terminals, t)
	p.index = nil
	return t
}

// AddNode appends a node with the next layer-1 ID.
func (p *Passage) AddNode(tag string) *Node {
	n := &Node{
		ID:  fmt.Sprintf("%s.%d", NodeLayer, len(p.Nodes)+1),
		Tag: tag,
	}
	p.Nodes = append(p.Nodes, n)
	p.index = nil
	return n
}

// AddEdge appends a primary edge to child.
func (n *Node) AddEdge(tag, child string) *Edge {
	e := &Edge{Tag: tag, Child: child}
	n.Edges = append(n.Edges, e)
	return e
}

// AddRemoteEdge appends a remote edge to child.
func (n *Node) AddRemoteEdge(tag, child string) *Edge {
	e := n.AddEdge(tag, child)
	e.Remote = true
	return e
}

// IsTerminalID reports whether id names a terminal.
func IsTerminalID(id string) bool {
	return strings.HasPrefix(id, TerminalLayer+".")
}

func (p *Passage) buildIndex() {
	p.index = make(map[string]any, len(p.Terminals)+len(p.Nodes))
	for _, t := range p.Terminals {
		p.index[t.ID] = t
	}
	for _, n := range p.Nodes {
		p.index[n.ID] = n
	}
}

// Node returns the node with the given ID, or nil.
func (p *Passage) Node(id string) *Node {
	if p.index == nil {
		p.buildIndex()
	}
	n, _ := p.index[id].(*Node)
	return n
}

// Terminal returns the terminal with the given ID, or nil.
func (p *Passage) Terminal(id string) *Terminal {
	if p.index == nil {
		p.buildIndex()
	}
	t, _ := p.index[id].(*Terminal)
	return t
}

// Roots returns the nodes that are not the child of any primary edge, in
// node order.
func (p *Passage) Roots() []*Node {
	hasParent := make(map[string]bool)
	for _, n := range p.Nodes {
		for _, e := range n.Edges {
			if !e.Remote {
				hasParent[e.Child] = true
			}
		}
	}
	var roots []*Node
	for _, n := range p.Nodes {
		if !hasParent[n.ID] {
			roots = append(roots, n)
		}
	}
	return roots
}

// Stats summarizes the size of a passage.
type Stats struct {
	Terminals   int `json:"terminals"`
	Nodes       int `json:"nodes"`
	Edges       int `json:"edges"`
	RemoteEdges int `json:"remote_edges"`
}

// Stats counts the elements of the passage.
func (p *Passage) Stats() Stats {
	s := Stats{Terminals: len(p.Terminals), Nodes: len(p.Nodes)}
	for _, n := range p.Nodes {
		for _, e := range n.Edges {
			s.Edges++
			if e.Remote {
				s.RemoteEdges++
			}
		}
	}
	return s
}
