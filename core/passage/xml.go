package passage

import (
	"bufio"
	"encoding/xml"
	"io"
	"strconv"

	rterrors "github.com/FocuswithJustin/semroundtrip/core/errors"
	rtxml "github.com/FocuswithJustin/semroundtrip/core/xml"
)

// xmlIndent is the indentation used by WriteXML.
const xmlIndent = "  "

type xmlAttr struct {
	Key   string `xml:"key,attr"`
	Value string `xml:"value,attr"`
}

type xmlEdge struct {
	Tag    string    `xml:"tag,attr"`
	Child  string    `xml:"child,attr"`
	Remote bool      `xml:"remote,attr,omitempty"`
	Attrs  []xmlAttr `xml:"attr"`
}

type xmlTerminal struct {
	ID       string    `xml:"id,attr"`
	Position int       `xml:"position,attr"`
	Text     string    `xml:"text,attr"`
	Attrs    []xmlAttr `xml:"attr"`
}

type xmlNode struct {
	ID    string    `xml:"id,attr"`
	Tag   string    `xml:"tag,attr"`
	Attrs []xmlAttr `xml:"attr"`
	Edges []xmlEdge `xml:"edge"`
}

type xmlPassage struct {
	XMLName   xml.Name      `xml:"passage"`
	ID        string        `xml:"id,attr"`
	Attrs     []xmlAttr     `xml:"attr"`
	Terminals []xmlTerminal `xml:"terminal"`
	Nodes     []xmlNode     `xml:"node"`
}

func toXMLAttrs(a Attrs) []xmlAttr {
	if len(a) == 0 {
		return nil
	}
	out := make([]xmlAttr, len(a))
	for i, attr := range a {
		out[i] = xmlAttr{Key: attr.Key, Value: attr.Value}
	}
	return out
}

// WriteXML writes the canonical XML rendering of p, terminated by a newline.
func WriteXML(w io.Writer, p *Passage) error {
	doc := xmlPassage{ID: p.ID, Attrs: toXMLAttrs(p.Attrs)}
	for _, t := range p.Terminals {
		doc.Terminals = append(doc.Terminals, xmlTerminal{
			ID:       t.ID,
			Position: t.Position,
			Text:     t.Text,
			Attrs:    toXMLAttrs(t.Attrs),
		})
	}
	for _, n := range p.Nodes {
		xn := xmlNode{ID: n.ID, Tag: n.Tag, Attrs: toXMLAttrs(n.Attrs)}
		for _, e := range n.Edges {
			xn.Edges = append(xn.Edges, xmlEdge{
				Tag:    e.Tag,
				Child:  e.Child,
				Remote: e.Remote,
				Attrs:  toXMLAttrs(e.Attrs),
			})
		}
		doc.Nodes = append(doc.Nodes, xn)
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(bw)
	enc.Indent("", xmlIndent)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	return bw.Flush()
}

func readAttrs(n *rtxml.Node) Attrs {
	var attrs Attrs
	for _, c := range n.Children() {
		if c.Name() == "attr" {
			attrs = append(attrs, Attr{Key: c.Attr("key"), Value: c.Attr("value")})
		}
	}
	return attrs
}

// ReadXML parses a passage from its XML rendering. Malformed input is
// reported with the line of the first syntax error.
func ReadXML(r io.Reader) (*Passage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, rterrors.NewIO("read", "", err)
	}
	if res := rtxml.Validate(data); !res.Valid {
		first := res.Errors[0]
		return nil, rterrors.NewParse("xml", "", first.Line, "malformed passage XML: "+first.Message)
	}
	doc, err := rtxml.ParseBytes(data)
	if err != nil {
		return nil, &rterrors.ParseError{Format: "xml", Message: "malformed passage XML", Err: err}
	}
	root := doc.Root()
	if root == nil || root.Name() != "passage" {
		return nil, rterrors.NewParse("xml", "", 0, "root element is not <passage>")
	}

	p := New(root.Attr("id"))
	p.Attrs = readAttrs(root)

	terminals, err := doc.XPath("/passage/terminal")
	if err != nil {
		return nil, err
	}
	for _, tn := range terminals {
		if !tn.HasAttr("id") {
			return nil, rterrors.NewParse("xml", p.ID, 0, "terminal without id")
		}
		pos, err := strconv.Atoi(tn.Attr("position"))
		if err != nil {
			return nil, rterrors.NewParse("xml", p.ID, 0, "terminal "+tn.Attr("id")+" has invalid position")
		}
		p.Terminals = append(p.Terminals, &Terminal{
			ID:       tn.Attr("id"),
			Position: pos,
			Text:     tn.Attr("text"),
			Attrs:    readAttrs(tn),
		})
	}

	nodes, err := doc.XPath("/passage/node")
	if err != nil {
		return nil, err
	}
	for _, nn := range nodes {
		if !nn.HasAttr("id") {
			return nil, rterrors.NewParse("xml", p.ID, 0, "node without id")
		}
		n := &Node{ID: nn.Attr("id"), Tag: nn.Attr("tag"), Attrs: readAttrs(nn)}
		edges, err := nn.XPath("edge")
		if err != nil {
			return nil, err
		}
		for _, en := range edges {
			n.Edges = append(n.Edges, &Edge{
				Tag:    en.Attr("tag"),
				Child:  en.Attr("child"),
				Remote: en.Attr("remote") == "true",
				Attrs:  readAttrs(en),
			})
		}
		p.Nodes = append(p.Nodes, n)
	}

	return p, nil
}
