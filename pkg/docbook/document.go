package docbook

import (
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
)

// XMLNamespace is the namespace bound to the "xml" prefix.
const XMLNamespace = "http://www.w3.org/XML/1998/namespace"

// Document is a parsed docbook part with an xml:id index.
type Document struct {
	name string
	root *xmlquery.Node
	ids  map[string]*xmlquery.Node
}

// Parse reads a docbook part. name is the logical part name, used in
// messages only.
func Parse(name string, r io.Reader) (*Document, error) {
	root, err := xmlquery.Parse(r)
	if err != nil {
		return nil, err
	}
	d := &Document{name: name, root: root, ids: make(map[string]*xmlquery.Node)}
	d.index(root)
	return d, nil
}

func (d *Document) index(n *xmlquery.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		if id := ID(c); id != "" {
			if _, dup := d.ids[id]; !dup {
				d.ids[id] = c
			}
		}
		d.index(c)
	}
}

// Name returns the logical part name.
func (d *Document) Name() string { return d.name }

// Root returns the document node.
func (d *Document) Root() *xmlquery.Node { return d.root }

// Lookup returns the element whose xml:id is id. The first element in
// document order wins if an id is repeated.
func (d *Document) Lookup(id string) (*xmlquery.Node, bool) {
	n, ok := d.ids[id]
	return n, ok
}

// IDs returns the number of indexed ids.
func (d *Document) IDs() int { return len(d.ids) }

// =============================================================================
// Node helpers
// =============================================================================

// ID returns the xml:id of n, or "".
func ID(n *xmlquery.Node) string {
	for _, a := range n.Attr {
		if a.Name.Local != "id" {
			continue
		}
		if a.Name.Space == "xml" || a.Name.Space == XMLNamespace || a.NamespaceURI == XMLNamespace {
			return a.Value
		}
	}
	return ""
}

// Attr returns the value of the attribute with the given local name, or "".
func Attr(n *xmlquery.Node, local string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// Children returns the direct element children of n named local.
func Children(n *xmlquery.Node, local string) []*xmlquery.Node {
	if n == nil {
		return nil
	}
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == local {
			out = append(out, c)
		}
	}
	return out
}

// Child returns the first direct element child of n named local, or nil.
func Child(n *xmlquery.Node, local string) *xmlquery.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == local {
			return c
		}
	}
	return nil
}

// Find returns the first descendant of n named local in document order,
// or nil. n itself is not considered.
func Find(n *xmlquery.Node, local string) *xmlquery.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		if c.Data == local {
			return c
		}
		if found := Find(c, local); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant of n named local in document order.
func FindAll(n *xmlquery.Node, local string) []*xmlquery.Node {
	var out []*xmlquery.Node
	var walk func(*xmlquery.Node)
	walk = func(p *xmlquery.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != xmlquery.ElementNode {
				continue
			}
			if c.Data == local {
				out = append(out, c)
			}
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return out
}

// LeadingText returns the character data of n that precedes its first
// element child. Nested markup is not included.
func LeadingText(n *xmlquery.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.TextNode, xmlquery.CharDataNode:
			b.WriteString(c.Data)
		case xmlquery.ElementNode:
			return b.String()
		}
	}
	return b.String()
}

// =============================================================================
// Table helpers
// =============================================================================

// Rows returns the body rows of a table (tbody/tr).
func Rows(table *xmlquery.Node) []*xmlquery.Node {
	var rows []*xmlquery.Node
	for _, body := range Children(table, "tbody") {
		rows = append(rows, Children(body, "tr")...)
	}
	return rows
}

// Cells returns the paragraphs of a row (td/para). A cell holding several
// paragraphs contributes one entry per paragraph, and spanned cells shift
// the positions of later ones.
func Cells(row *xmlquery.Node) []*xmlquery.Node {
	var cells []*xmlquery.Node
	for _, td := range Children(row, "td") {
		cells = append(cells, Children(td, "para")...)
	}
	return cells
}

// Caption returns the leading text of a table caption and whether the
// table has a non-empty one.
func Caption(table *xmlquery.Node) (string, bool) {
	c := Child(table, "caption")
	if c == nil {
		return "", false
	}
	text := LeadingText(c)
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

// Title returns the trimmed leading text of the title of a section.
func Title(section *xmlquery.Node) string {
	return strings.TrimSpace(LeadingText(Child(section, "title")))
}

// Tables returns every table below a section in document order.
func Tables(section *xmlquery.Node) []*xmlquery.Node {
	return FindAll(section, "table")
}

// Link returns the target of the first cross-reference named kind in a row.
// The reference is looked up below each td/para first and then directly
// below each td, since some tables place it outside the paragraph.
// kind is "xref" (attribute linkend) or "olink" (attribute targetptr).
func Link(row *xmlquery.Node, kind string) (string, bool) {
	attr := linkAttr(kind)
	for _, td := range Children(row, "td") {
		for _, para := range Children(td, "para") {
			if x := Child(para, kind); x != nil {
				return Attr(x, attr), true
			}
		}
	}
	for _, td := range Children(row, "td") {
		if x := Child(td, kind); x != nil {
			return Attr(x, attr), true
		}
	}
	return "", false
}

func linkAttr(kind string) string {
	if kind == "olink" {
		return "targetptr"
	}
	return "linkend"
}
