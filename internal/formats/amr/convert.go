// Package amr converts Abstract Meaning Representation graphs in PENMAN
// notation to passages and back, and scores round-tripped graphs by
// triple overlap.
package amr

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/semroundtrip/core/convert"
	rterrors "github.com/FocuswithJustin/semroundtrip/core/errors"
	"github.com/FocuswithJustin/semroundtrip/core/passage"
)

// Format is the identifier of the AMR format.
const Format = "amr"

// Attribute keys used on passages and nodes.
const (
	// attrComment prefixes the keys of a unit's comment lines.
	attrComment = "comment."
	// attrVar holds the variable of an instance node.
	attrVar = "var"
	// attrKind is "constant" on nodes holding a relation's value.
	attrKind     = "kind"
	kindConstant = "constant"
)

// Converter converts between PENMAN text and passages.
type Converter struct{}

// NewConverter returns an AMR converter.
func NewConverter() *Converter {
	return &Converter{}
}

// Pair returns the converter as a registry pair.
func (c *Converter) Pair() convert.Pair {
	return convert.Pair{Forward: c, Backward: c}
}

// block is a blank-line separated group of lines.
type block struct {
	line  int // 1-based line of the first line
	lines []string
}

// blocks yields the non-empty blank-line separated blocks of r.
func blocks(r io.Reader) iter.Seq2[block, error] {
	return func(yield func(block, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
		var cur block
		n := 0
		for scanner.Scan() {
			n++
			line := scanner.Text()
			if strings.TrimSpace(line) == "" {
				if len(cur.lines) > 0 && !yield(cur, nil) {
					return
				}
				cur = block{}
				continue
			}
			if len(cur.lines) == 0 {
				cur.line = n
			}
			cur.lines = append(cur.lines, line)
		}
		if err := scanner.Err(); err != nil {
			yield(block{}, err)
			return
		}
		if len(cur.lines) > 0 {
			yield(cur, nil)
		}
	}
}

// split separates comment lines from graph lines.
func split(lines []string) (comments, body []string) {
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			comments = append(comments, line)
		} else {
			body = append(body, line)
		}
	}
	return comments, body
}

// FromFormat yields one unit per graph. Blocks holding only comments,
// such as a file header, are skipped.
func (c *Converter) FromFormat(r io.Reader, opts convert.FromOptions) iter.Seq2[*convert.Unit, error] {
	return func(yield func(*convert.Unit, error) bool) {
		n := 0
		for b, err := range blocks(r) {
			if err != nil {
				yield(nil, rterrors.NewIO("read", opts.PassageID, err))
				return
			}
			comments, body := split(b.lines)
			if len(body) == 0 {
				continue
			}
			g, err := parseGraph(strings.Join(body, "\n"))
			if err != nil {
				yield(nil, parseError(opts.PassageID, b, len(comments), err))
				return
			}
			id := fmt.Sprintf("%s#%d", opts.PassageID, n)
			n++
			p, err := toPassage(id, comments, g)
			if err != nil {
				yield(nil, err)
				return
			}
			u := &convert.Unit{Passage: p, ID: id}
			if opts.ReturnOriginal {
				u.Original = b.lines
			}
			if !yield(u, nil) {
				return
			}
		}
	}
}

func parseError(path string, b block, offset int, err error) error {
	line := b.line
	msg := err.Error()
	if se, ok := err.(*syntaxError); ok {
		line += offset + se.Line - 1
		msg = se.Message
	}
	return rterrors.NewParse(Format, path, line, msg)
}

// toPassage builds a passage from a parsed graph. Instances become nodes
// carrying their variable, relations to instances become edges (remote
// for re-entrant variables) and relations to values become constant
// nodes. Sentence tokens from "::tok" or "::snt" become terminals.
func toPassage(id string, comments []string, g *graph) (*passage.Passage, error) {
	p := passage.New(id)
	for i, line := range comments {
		p.Attrs.Set(attrComment+strconv.Itoa(i), line)
	}
	for _, tok := range sentenceTokens(comments) {
		p.AddTerminal(tok)
	}

	nodes := make(map[string]*passage.Node)
	for _, v := range g.variables() {
		if _, dup := nodes[v]; dup {
			return nil, rterrors.NewParse(Format, id, g.Pos.Line, "duplicate variable "+v)
		}
		nodes[v] = nil
	}

	var build func(g *graph) *passage.Node
	build = func(g *graph) *passage.Node {
		n := p.AddNode(g.Concept)
		n.Attrs.Set(attrVar, g.Var)
		nodes[g.Var] = n
		for _, r := range g.Relations {
			if r.Target.Graph != nil {
				build(r.Target.Graph)
			}
		}
		return n
	}
	build(g)

	var link func(g *graph)
	link = func(g *graph) {
		n := nodes[g.Var]
		for _, r := range g.Relations {
			switch {
			case r.Target.Graph != nil:
				n.AddEdge(r.role(), nodes[r.Target.Graph.Var].ID)
				link(r.Target.Graph)
			case r.Target.Symbol != nil && nodes[*r.Target.Symbol] != nil:
				n.AddRemoteEdge(r.role(), nodes[*r.Target.Symbol].ID)
			default:
				value := r.Target.value()
				c := p.AddNode(value)
				c.Attrs.Set(attrKind, kindConstant)
				n.AddEdge(r.role(), c.ID)
			}
		}
	}
	link(g)
	return p, nil
}

func (t *target) value() string {
	if t.String != nil {
		return *t.String
	}
	return *t.Symbol
}

// sentenceTokens returns the tokens of the "::tok" metadata field, or of
// "::snt" split on whitespace.
func sentenceTokens(comments []string) []string {
	var snt string
	for _, line := range comments {
		for _, field := range metadataFields(line) {
			switch field[0] {
			case "tok":
				return strings.Fields(field[1])
			case "snt":
				snt = field[1]
			}
		}
	}
	return strings.Fields(snt)
}

// metadataFields splits "# ::id x ::snt y" into key/value pairs.
func metadataFields(line string) [][2]string {
	line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "#"))
	var fields [][2]string
	for _, part := range strings.Split(line, "::")[1:] {
		key, value, _ := strings.Cut(part, " ")
		fields = append(fields, [2]string{key, strings.TrimSpace(value)})
	}
	return fields
}

// ToFormat renders the passage as comment lines followed by the graph.
// With Wikification, every instance with a "name" edge and no "wiki"
// edge gets ":wiki -" before its first "name" edge.
func (c *Converter) ToFormat(p *passage.Passage, opts convert.ToOptions) ([]string, error) {
	var lines []string
	for _, a := range p.Attrs {
		if strings.HasPrefix(a.Key, attrComment) {
			lines = append(lines, a.Value)
		}
	}

	roots := instanceRoots(p)
	if len(roots) == 0 {
		return nil, fmt.Errorf("passage %s has no instance nodes", p.ID)
	}
	if len(roots) > 1 {
		return nil, fmt.Errorf("passage %s has %d disconnected graphs", p.ID, len(roots))
	}

	r := &renderer{p: p, wikify: opts.Wikification, seen: make(map[string]bool)}
	root, err := r.node(roots[0])
	if err != nil {
		return nil, err
	}
	return append(lines, render(root)...), nil
}

// instanceRoots returns the root nodes that are not constants.
func instanceRoots(p *passage.Passage) []*passage.Node {
	var roots []*passage.Node
	for _, n := range p.Roots() {
		if n.Attrs.Value(attrKind) != kindConstant {
			roots = append(roots, n)
		}
	}
	return roots
}

type renderer struct {
	p      *passage.Passage
	wikify bool
	seen   map[string]bool
}

func varOf(n *passage.Node) string {
	if v := n.Attrs.Value(attrVar); v != "" {
		return v
	}
	return "x" + strings.ReplaceAll(n.ID, ".", "_")
}

func (r *renderer) node(n *passage.Node) (*renderNode, error) {
	r.seen[n.ID] = true
	out := &renderNode{Var: varOf(n), Concept: n.Tag}

	needsWiki := r.wikify && hasEdge(n, "name") && !hasEdge(n, "wiki")
	for _, e := range n.Edges {
		if needsWiki && e.Tag == "name" {
			out.Relations = append(out.Relations, renderRelation{Role: "wiki", Value: "-"})
			needsWiki = false
		}
		child := r.p.Node(e.Child)
		if child == nil {
			return nil, fmt.Errorf("edge %s of %s points to unknown node %s", e.Tag, n.ID, e.Child)
		}
		rel := renderRelation{Role: e.Tag}
		switch {
		case child.Attrs.Value(attrKind) == kindConstant:
			rel.Value = child.Tag
		case e.Remote || r.seen[child.ID]:
			rel.Value = varOf(child)
		default:
			sub, err := r.node(child)
			if err != nil {
				return nil, err
			}
			rel.Node = sub
		}
		out.Relations = append(out.Relations, rel)
	}
	return out, nil
}

func hasEdge(n *passage.Node, tag string) bool {
	for _, e := range n.Edges {
		if e.Tag == tag {
			return true
		}
	}
	return false
}
