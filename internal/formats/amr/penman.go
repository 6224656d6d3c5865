package amr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// graph is a PENMAN-serialized AMR graph rooted at an instance.
//
//nolint:govet // participle grammar tags are not standard struct tags
type graph struct {
	Pos       lexer.Position
	Var       string      `"(" @Symbol`
	Concept   string      `"/" @(Symbol | String)`
	Relations []*relation `@@* ")"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type relation struct {
	Role   string  `@Role`
	Target *target `@@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type target struct {
	Graph  *graph  `  @@`
	String *string `| @String`
	Symbol *string `| @Symbol`
}

// penmanLexer tokenizes PENMAN notation. Roles keep their leading colon.
var penmanLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Role", Pattern: `:[^\s()"]*`},
	{Name: "Paren", Pattern: `[()]`},
	{Name: "Slash", Pattern: `/`},
	{Name: "Symbol", Pattern: `[^\s()"/:][^\s()"/]*`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var penmanParser = participle.MustBuild[graph](
	participle.Lexer(penmanLexer),
	participle.Elide("Whitespace"),
)

// syntaxError is a PENMAN error at a 1-based line of the parsed text.
type syntaxError struct {
	Line    int
	Message string
}

func (e *syntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// parseGraph parses one PENMAN graph.
func parseGraph(text string) (*graph, error) {
	g, err := penmanParser.ParseString("", text)
	if err != nil {
		var perr participle.Error
		if errors.As(err, &perr) {
			return nil, &syntaxError{Line: perr.Position().Line, Message: perr.Message()}
		}
		return nil, &syntaxError{Line: 1, Message: err.Error()}
	}
	return g, nil
}

// role returns the relation label without its leading colon.
func (r *relation) role() string {
	return strings.TrimPrefix(r.Role, ":")
}

// variables returns the variables of every instance in g, pre-order.
func (g *graph) variables() []string {
	vars := []string{g.Var}
	for _, r := range g.Relations {
		if r.Target.Graph != nil {
			vars = append(vars, r.Target.Graph.variables()...)
		}
	}
	return vars
}

// indentUnit is the indentation added per nesting level when rendering.
const indentUnit = "      "

// renderNode is the rendering-side view of an instance.
type renderNode struct {
	Var       string
	Concept   string
	Relations []renderRelation
}

// renderRelation has exactly one of Node and Value set.
type renderRelation struct {
	Role  string
	Node  *renderNode
	Value string
}

// render writes n in PENMAN notation, one relation per line.
func render(n *renderNode) []string {
	var b strings.Builder
	renderInto(&b, n, 1)
	return strings.Split(b.String(), "\n")
}

func renderInto(b *strings.Builder, n *renderNode, depth int) {
	fmt.Fprintf(b, "(%s / %s", n.Var, n.Concept)
	for _, r := range n.Relations {
		b.WriteString("\n")
		b.WriteString(strings.Repeat(indentUnit, depth))
		b.WriteString(":")
		b.WriteString(r.Role)
		b.WriteString(" ")
		if r.Node != nil {
			renderInto(b, r.Node, depth+1)
		} else {
			b.WriteString(r.Value)
		}
	}
	b.WriteString(")")
}
