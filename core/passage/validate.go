package passage

import (
	"fmt"

	rterrors "github.com/FocuswithJustin/semroundtrip/core/errors"
)

// Validate checks structural integrity and returns all problems found.
// A valid passage has an ID, unique element IDs in the right layers, and
// edges that resolve to existing elements.
func Validate(p *Passage) []error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, rterrors.NewValidation(field, fmt.Sprintf(format, args...)))
	}

	if p.ID == "" {
		add("passage.id", "ID is required")
	}

	seen := make(map[string]bool, len(p.Terminals)+len(p.Nodes))
	for i, t := range p.Terminals {
		field := fmt.Sprintf("passage.terminals[%d]", i)
		if !IsTerminalID(t.ID) {
			add(field, "terminal ID %q is not in layer %s", t.ID, TerminalLayer)
		}
		if seen[t.ID] {
			add(field, "duplicate ID %q", t.ID)
		}
		seen[t.ID] = true
	}
	for i, n := range p.Nodes {
		field := fmt.Sprintf("passage.nodes[%d]", i)
		if IsTerminalID(n.ID) || n.ID == "" {
			add(field, "node ID %q is not in layer %s", n.ID, NodeLayer)
		}
		if seen[n.ID] {
			add(field, "duplicate ID %q", n.ID)
		}
		seen[n.ID] = true
	}

	for i, n := range p.Nodes {
		for j, e := range n.Edges {
			if !seen[e.Child] {
				add(fmt.Sprintf("passage.nodes[%d].edges[%d]", i, j),
					"edge %q points to unknown element %q", e.Tag, e.Child)
			}
		}
	}

	return errs
}
