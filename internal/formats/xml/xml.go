// Package xml serves passage XML as a native format. A file holds one
// passage and converting it back reproduces the canonical rendering.
package xml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/FocuswithJustin/semroundtrip/core/convert"
	rterrors "github.com/FocuswithJustin/semroundtrip/core/errors"
	"github.com/FocuswithJustin/semroundtrip/core/evaluation"
	"github.com/FocuswithJustin/semroundtrip/core/passage"
)

// Format is the identifier of the passage XML format.
const Format = "xml"

// Score fields, in display order.
const (
	FieldTerminals = "terminals"
	FieldEdges     = "edges"
)

// Converter reads and writes passage XML.
type Converter struct{}

// NewConverter returns a passage XML converter.
func NewConverter() *Converter {
	return &Converter{}
}

// Pair returns the converter as a registry pair.
func (c *Converter) Pair() convert.Pair {
	return convert.Pair{Forward: c, Backward: c}
}

// FromFormat yields the file's passage as a single unit.
func (c *Converter) FromFormat(r io.Reader, opts convert.FromOptions) iter.Seq2[*convert.Unit, error] {
	return func(yield func(*convert.Unit, error) bool) {
		data, err := io.ReadAll(r)
		if err != nil {
			yield(nil, rterrors.NewIO("read", opts.PassageID, err))
			return
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return
		}
		p, err := read(data, opts.PassageID)
		if err != nil {
			yield(nil, err)
			return
		}
		u := &convert.Unit{Passage: p, ID: opts.PassageID + "#0"}
		if opts.ReturnOriginal {
			u.Original = lines(data)
		}
		yield(u, nil)
	}
}

func read(data []byte, path string) (*passage.Passage, error) {
	p, err := passage.ReadXML(bytes.NewReader(data))
	if err != nil {
		var perr *rterrors.ParseError
		if errors.As(err, &perr) && perr.Path == "" {
			perr.Path = path
		}
		return nil, err
	}
	if errs := passage.Validate(p); len(errs) > 0 {
		return nil, &rterrors.ParseError{
			Format:  Format,
			Path:    path,
			Message: "invalid passage",
			Err:     errors.Join(errs...),
		}
	}
	return p, nil
}

func lines(data []byte) []string {
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

// ToFormat renders the canonical XML of p.
func (c *Converter) ToFormat(p *passage.Passage, _ convert.ToOptions) ([]string, error) {
	return passage.Lines(p)
}

// Evaluate compares the terminals and edges of two passages.
func Evaluate(guessed, reference []string, opts evaluation.Options) (evaluation.Record, error) {
	g, err := parseLines(guessed)
	if err != nil {
		return nil, fmt.Errorf("guessed passage: %w", err)
	}
	r, err := parseLines(reference)
	if err != nil {
		return nil, fmt.Errorf("reference passage: %w", err)
	}

	w := opts.Writer()
	scores := evaluation.NewScores(Format)
	for _, f := range []struct {
		name  string
		items func(*passage.Passage) []string
	}{
		{FieldTerminals, terminalItems},
		{FieldEdges, edgeItems},
	} {
		c, missing, spurious := evaluation.Match(f.items(g), f.items(r))
		scores.Add(f.name, c)
		evaluation.PrintDiff(w, f.name, missing, spurious)
	}
	return scores, nil
}

func parseLines(l []string) (*passage.Passage, error) {
	if len(l) == 0 {
		return passage.New(""), nil
	}
	return passage.ReadXML(strings.NewReader(strings.Join(l, "\n")))
}

func terminalItems(p *passage.Passage) []string {
	items := make([]string, 0, len(p.Terminals))
	for _, t := range p.Terminals {
		items = append(items, fmt.Sprintf("%d %s", t.Position, t.Text))
	}
	return items
}

func edgeItems(p *passage.Passage) []string {
	var items []string
	for _, n := range p.Nodes {
		for _, e := range n.Edges {
			label := e.Tag
			if e.Remote {
				label += "*"
			}
			items = append(items, fmt.Sprintf("%s(%s) -%s-> %s", n.Tag, n.ID, label, e.Child))
		}
	}
	return items
}
