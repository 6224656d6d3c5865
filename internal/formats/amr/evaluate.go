package amr

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/semroundtrip/core/evaluation"
)

// Score fields, in display order.
const (
	FieldInstances  = "instances"
	FieldAttributes = "attributes"
	FieldRelations  = "relations"
	FieldTriples    = "triples"
)

// nonInverse lists roles that end in "-of" without being inverses.
var nonInverse = map[string]bool{
	"consist-of":        true,
	"prep-out-of":       true,
	"prep-on-behalf-of": true,
}

// triples is a graph decomposed into comparable triples.
type triples struct {
	instances  []string
	attributes []string
	relations  []string
}

func (t *triples) all() []string {
	all := make([]string, 0, len(t.instances)+len(t.attributes)+len(t.relations))
	all = append(all, t.instances...)
	all = append(all, t.attributes...)
	return append(all, t.relations...)
}

// Evaluate scores the guessed graph against the reference graph by triple
// overlap. Variables are compared by name: a round trip keeps them, so no
// alignment search is done.
func Evaluate(guessed, reference []string, opts evaluation.Options) (evaluation.Record, error) {
	g, err := triplesOf(guessed)
	if err != nil {
		return nil, fmt.Errorf("guessed graph: %w", err)
	}
	r, err := triplesOf(reference)
	if err != nil {
		return nil, fmt.Errorf("reference graph: %w", err)
	}

	w := opts.Writer()
	scores := evaluation.NewScores(Format)
	for _, f := range []struct {
		name      string
		guessed   []string
		reference []string
	}{
		{FieldInstances, g.instances, r.instances},
		{FieldAttributes, g.attributes, r.attributes},
		{FieldRelations, g.relations, r.relations},
		{FieldTriples, g.all(), r.all()},
	} {
		c, missing, spurious := evaluation.Match(f.guessed, f.reference)
		scores.Add(f.name, c)
		if f.name != FieldTriples {
			evaluation.PrintDiff(w, f.name, missing, spurious)
		}
	}
	return scores, nil
}

// triplesOf parses lines, ignoring comments, and decomposes the graph.
// Lines without a graph yield no triples.
func triplesOf(lines []string) (*triples, error) {
	_, body := split(lines)
	text := strings.TrimSpace(strings.Join(body, "\n"))
	t := &triples{}
	if text == "" {
		return t, nil
	}
	g, err := parseGraph(text)
	if err != nil {
		return nil, err
	}

	vars := make(map[string]bool)
	for _, v := range g.variables() {
		vars[v] = true
	}
	t.attributes = append(t.attributes, triple("TOP", g.Var, g.Concept))

	var walk func(g *graph)
	walk = func(g *graph) {
		t.instances = append(t.instances, triple("instance", g.Var, g.Concept))
		for _, r := range g.Relations {
			switch {
			case r.Target.Graph != nil:
				t.relations = append(t.relations, relationTriple(r.role(), g.Var, r.Target.Graph.Var))
				walk(r.Target.Graph)
			case r.Target.Symbol != nil && vars[*r.Target.Symbol]:
				t.relations = append(t.relations, relationTriple(r.role(), g.Var, *r.Target.Symbol))
			default:
				t.attributes = append(t.attributes, triple(r.role(), g.Var, r.Target.value()))
			}
		}
	}
	walk(g)
	return t, nil
}

// relationTriple normalizes inverse roles such as ARG0-of.
func relationTriple(role, source, target string) string {
	if strings.HasSuffix(role, "-of") && !nonInverse[role] {
		return triple(strings.TrimSuffix(role, "-of"), target, source)
	}
	return triple(role, source, target)
}

func triple(role, a, b string) string {
	return fmt.Sprintf("%s(%s, %s)", role, a, b)
}
