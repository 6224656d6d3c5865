// Package conllu converts CoNLL-U dependency trees to passages and back,
// and scores round-tripped trees by attachment.
//
// Each word becomes a terminal holding its surface columns and a node
// tagged with its UPOS; HEAD and DEPREL become edges between nodes.
// Multi-word token lines are kept on the terminal they precede. Empty
// nodes and the DEPS column do not survive the round trip.
package conllu

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/semroundtrip/core/convert"
	rterrors "github.com/FocuswithJustin/semroundtrip/core/errors"
	"github.com/FocuswithJustin/semroundtrip/core/passage"
)

// Formats are the identifiers this package serves.
var Formats = []string{"conllu", "conll"}

// columns is the number of tab-separated fields on a word line.
const columns = 10

// Attribute and edge keys.
const (
	attrComment = "comment."
	attrLemma   = "lemma"
	attrXPOS    = "xpos"
	attrFeats   = "feats"
	attrMisc    = "misc"
	attrMWT     = "mwt"
	attrDeprel  = "deprel"
	edgeToken   = "token"
	empty       = "_"
)

// word is one parsed word line.
type word struct {
	ID     int
	Form   string
	Lemma  string
	UPOS   string
	XPOS   string
	Feats  string
	Head   int
	Deprel string
	Deps   string
	Misc   string
}

// lineKind classifies a line of a sentence.
type lineKind int

const (
	kindWord lineKind = iota
	kindComment
	kindRange
	kindEmptyNode
)

func classify(line string) lineKind {
	if strings.HasPrefix(line, "#") {
		return kindComment
	}
	id, _, _ := strings.Cut(line, "\t")
	switch {
	case strings.Contains(id, "-"):
		return kindRange
	case strings.Contains(id, "."):
		return kindEmptyNode
	}
	return kindWord
}

// parseWord parses a word line.
func parseWord(line string) (*word, error) {
	f := strings.Split(line, "\t")
	if len(f) != columns {
		return nil, fmt.Errorf("expected %d columns, got %d", columns, len(f))
	}
	id, err := strconv.Atoi(f[0])
	if err != nil || id < 1 {
		return nil, fmt.Errorf("invalid ID %q", f[0])
	}
	head, err := strconv.Atoi(f[6])
	if err != nil || head < 0 {
		return nil, fmt.Errorf("invalid HEAD %q", f[6])
	}
	return &word{
		ID: id, Form: f[1], Lemma: f[2], UPOS: f[3], XPOS: f[4], Feats: f[5],
		Head: head, Deprel: f[7], Deps: f[8], Misc: f[9],
	}, nil
}

func (w *word) String() string {
	return strings.Join([]string{
		strconv.Itoa(w.ID), w.Form, w.Lemma, w.UPOS, w.XPOS, w.Feats,
		strconv.Itoa(w.Head), w.Deprel, w.Deps, w.Misc,
	}, "\t")
}

// sentence is a blank-line separated block.
type sentence struct {
	line  int
	lines []string
}

func sentences(r io.Reader) iter.Seq2[sentence, error] {
	return func(yield func(sentence, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
		var cur sentence
		n := 0
		for scanner.Scan() {
			n++
			line := strings.TrimRight(scanner.Text(), "\r")
			if strings.TrimSpace(line) == "" {
				if len(cur.lines) > 0 && !yield(cur, nil) {
					return
				}
				cur = sentence{}
				continue
			}
			if len(cur.lines) == 0 {
				cur.line = n
			}
			cur.lines = append(cur.lines, line)
		}
		if err := scanner.Err(); err != nil {
			yield(sentence{}, err)
			return
		}
		if len(cur.lines) > 0 {
			yield(cur, nil)
		}
	}
}

// Converter converts between CoNLL-U text and passages.
type Converter struct{}

// NewConverter returns a CoNLL-U converter.
func NewConverter() *Converter {
	return &Converter{}
}

// Pair returns the converter as a registry pair.
func (c *Converter) Pair() convert.Pair {
	return convert.Pair{Forward: c, Backward: c}
}

// FromFormat yields one unit per sentence with at least one word.
func (c *Converter) FromFormat(r io.Reader, opts convert.FromOptions) iter.Seq2[*convert.Unit, error] {
	return func(yield func(*convert.Unit, error) bool) {
		n := 0
		for s, err := range sentences(r) {
			if err != nil {
				yield(nil, rterrors.NewIO("read", opts.PassageID, err))
				return
			}
			id := fmt.Sprintf("%s#%d", opts.PassageID, n)
			p, err := toPassage(id, opts.PassageID, s)
			if err != nil {
				yield(nil, err)
				return
			}
			if len(p.Terminals) == 0 {
				continue
			}
			n++
			u := &convert.Unit{Passage: p, ID: id}
			if opts.ReturnOriginal {
				u.Original = s.lines
			}
			if !yield(u, nil) {
				return
			}
		}
	}
}

func toPassage(id, path string, s sentence) (*passage.Passage, error) {
	p := passage.New(id)
	var words []*word
	var pendingMWT string
	comments := 0
	for i, line := range s.lines {
		switch classify(line) {
		case kindComment:
			p.Attrs.Set(attrComment+strconv.Itoa(comments), line)
			comments++
		case kindRange:
			pendingMWT = line
		case kindEmptyNode:
		case kindWord:
			w, err := parseWord(line)
			if err != nil {
				return nil, rterrors.NewParse("conllu", path, s.line+i, err.Error())
			}
			if w.ID != len(words)+1 {
				return nil, rterrors.NewParse("conllu", path, s.line+i,
					fmt.Sprintf("word ID %d out of sequence", w.ID))
			}
			t := p.AddTerminal(w.Form)
			t.Attrs.Set(attrLemma, w.Lemma)
			t.Attrs.Set(attrXPOS, w.XPOS)
			t.Attrs.Set(attrFeats, w.Feats)
			t.Attrs.Set(attrMisc, w.Misc)
			if pendingMWT != "" {
				t.Attrs.Set(attrMWT, pendingMWT)
				pendingMWT = ""
			}
			words = append(words, w)
		}
	}

	nodes := make([]*passage.Node, len(words))
	for i, w := range words {
		nodes[i] = p.AddNode(w.UPOS)
		nodes[i].AddEdge(edgeToken, p.Terminals[i].ID)
	}
	for i, w := range words {
		switch {
		case w.Head > len(words):
			return nil, rterrors.NewParse("conllu", path, s.line,
				fmt.Sprintf("word %d has HEAD %d beyond sentence length %d", w.ID, w.Head, len(words)))
		case w.Head == 0:
			nodes[i].Attrs.Set(attrDeprel, w.Deprel)
		default:
			nodes[w.Head-1].AddEdge(w.Deprel, nodes[i].ID)
		}
	}
	return p, nil
}

// ToFormat renders the passage as comment lines followed by word lines.
// DEPS is always "_".
func (c *Converter) ToFormat(p *passage.Passage, opts convert.ToOptions) ([]string, error) {
	var lines []string
	for _, a := range p.Attrs {
		if strings.HasPrefix(a.Key, attrComment) {
			lines = append(lines, a.Value)
		}
	}

	// Word positions follow the terminal each node points at.
	position := make(map[string]int, len(p.Nodes))
	byPosition := make(map[int]*passage.Node, len(p.Nodes))
	for _, n := range p.Nodes {
		for _, e := range n.Edges {
			if e.Tag != edgeToken {
				continue
			}
			t := p.Terminal(e.Child)
			if t == nil {
				return nil, fmt.Errorf("node %s points to unknown terminal %s", n.ID, e.Child)
			}
			position[n.ID] = t.Position
			byPosition[t.Position] = n
		}
	}

	heads := make(map[int]int)
	deprels := make(map[int]string)
	for _, n := range p.Nodes {
		for _, e := range n.Edges {
			if e.Tag == edgeToken || e.Remote {
				continue
			}
			child, ok := position[e.Child]
			if !ok {
				return nil, fmt.Errorf("edge %s of %s points to a node without a word", e.Tag, n.ID)
			}
			heads[child] = position[n.ID]
			deprels[child] = e.Tag
		}
	}

	for _, t := range p.Terminals {
		if mwt := t.Attrs.Value(attrMWT); mwt != "" {
			lines = append(lines, mwt)
		}
		w := &word{
			ID:     t.Position,
			Form:   t.Text,
			Lemma:  valueOr(t.Attrs, attrLemma),
			UPOS:   empty,
			XPOS:   valueOr(t.Attrs, attrXPOS),
			Feats:  valueOr(t.Attrs, attrFeats),
			Head:   heads[t.Position],
			Deprel: deprels[t.Position],
			Deps:   empty,
			Misc:   valueOr(t.Attrs, attrMisc),
		}
		if n := byPosition[t.Position]; n != nil {
			w.UPOS = n.Tag
			if w.Head == 0 {
				w.Deprel = n.Attrs.Value(attrDeprel)
			}
		}
		if w.Deprel == "" {
			w.Deprel = empty
		}
		lines = append(lines, w.String())
	}
	return lines, nil
}

func valueOr(a passage.Attrs, key string) string {
	if v, ok := a.Get(key); ok {
		return v
	}
	return empty
}

// words parses the word lines of a sentence, skipping comments, ranges and
// empty nodes.
func words(lines []string) ([]*word, error) {
	var out []*word
	for i, line := range lines {
		if strings.TrimSpace(line) == "" || classify(line) != kindWord {
			continue
		}
		w, err := parseWord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		out = append(out, w)
	}
	slices.SortStableFunc(out, func(a, b *word) int { return a.ID - b.ID })
	return out, nil
}
