// Package passage provides the unified graph representation that every
// native annotation format is converted into and back out of.
//
// # Core Types
//
// A Passage is one annotated unit (a sentence or a graph) and has two layers:
//
//   - Terminal: layer-0 tokens, IDs "0.1", "0.2", ... in text order
//   - Node: layer-1 graph nodes, IDs "1.1", "1.2", ... in creation order
//
// Nodes point at terminals or other nodes through labeled Edges. An edge
// marked Remote is a secondary (reentrant) edge; the primary edges form a
// tree-shaped backbone that converters use for serialization order.
//
// Every element carries ordered Attrs so that format-specific details
// (lemmas, variable names, comment lines) survive the trip through the
// representation when a converter chooses to keep them.
//
// # Interchange
//
// WriteXML produces a canonical XML rendering; ReadXML parses it back. The
// rendering is deterministic, so WriteXML(ReadXML(WriteXML(p))) is byte-identical
// to WriteXML(p).
//
// # Example
//
//	p := passage.New("doc1.conllu#0")
//	t := p.AddTerminal("Hello")
//	n := p.AddNode("root")
//	n.AddEdge("terminal", t.ID)
package passage
