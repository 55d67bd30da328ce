package dictionary

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/matzehuels/dcmdict/pkg/docbook"
	"github.com/matzehuels/dcmdict/pkg/errors"
)

var anyAttributeRegex = regexp.MustCompile(`any.*attribute`)

// Captions of rows that carry no data element and no cross-reference.
var captionRows = map[string]bool{
	"BASIC CODED ENTRY ATTRIBUTES": true,
	"ENHANCED ENCODING MODE":       true,
}

// FetchAttributes resolves the attribute element table tableID of the
// modules part into its root elements.
//
// A row holding a tag becomes an element nested below the previous element
// one level up, the level being the number of leading '>' in its name. A
// row without a tag that references another table splices that table's
// elements at its level. A reference to a table that is still being
// resolved splices nothing, which is how self-including macros terminate.
//
// Results are cached per table. An expansion that was cut short depends on
// the tables above it, so it is only cached and reused when resolved at the
// top of the resolution path.
func (r *Resolver) FetchAttributes(ctx context.Context, tableID string) ([]*AttributeElement, error) {
	elements, _, err := r.fetchTable(ctx, tableID)
	return elements, err
}

// fetchTable resolves tableID and reports whether a reference to an active
// table was cut anywhere below it.
func (r *Resolver) fetchTable(ctx context.Context, tableID string) ([]*AttributeElement, bool, error) {
	if cached, ok := r.elements[tableID]; ok && (!r.cut[tableID] || len(r.active) == 0) {
		return cached, r.cut[tableID], nil
	}
	if r.active[tableID] {
		r.logger.Debug("table already on resolution path", "table", tableID)
		return nil, true, nil
	}
	if r.attributes == nil {
		return nil, false, errors.New(errors.ErrCodeInternal, "attributes must be parsed before resolving %s", tableID)
	}

	doc, table, err := r.table(ctx, r.opts.ModulesPart, tableID)
	if err != nil {
		return nil, false, err
	}

	r.active[tableID] = true
	defer delete(r.active, tableID)

	r.logger.Debug("resolving table", "table", tableID)
	b := &tableBuilder{owned: make(map[*AttributeElement]bool)}
	cut := false

	for i, row := range docbook.Rows(table) {
		cells := docbook.Cells(row)
		if len(cells) == 0 {
			r.skipRow(ctx, tableID, i, "no cells")
			continue
		}
		name := Text(cells[0])

		var (
			tag     *Tag
			elemTyp = Invalid
		)
		for _, c := range cells {
			cell, err := Classify(c)
			if err != nil {
				return nil, false, errors.Wrap(errors.ErrCodeMalformedTag, err, "%s row %d", tableID, i)
			}
			switch cell.Kind {
			case CellTag:
				t := cell.Tag
				tag = &t
			case CellType:
				elemTyp = cell.Type
			}
		}
		if tag == nil && anyAttributeRegex.MatchString(strings.ToLower(name)) {
			tag = &WildcardTag
		}

		if tag != nil {
			attr, ok := r.attributes.Attributes[*tag]
			if !ok {
				return nil, false, errors.New(errors.ErrCodeUnknownAttribute,
					"unknown attribute %s in %s row %d", tag, tableID, i)
			}
			e := &AttributeElement{
				Attribute:   attr,
				Type:        elemTyp,
				Description: elementDescription(cells),
				Origin:      tableID,
			}
			b.owned[e] = true
			b.place(nestingLevel(name), e)
			continue
		}

		xref, emphasis := rowReference(cells)
		switch {
		case xref != nil:
			linked := docbook.Attr(xref, "linkend")
			if _, ok := doc.Lookup(linked); !ok {
				r.skipRow(ctx, tableID, i, "reference to missing table "+linked)
				continue
			}
			children, childCut, err := r.fetchTable(ctx, linked)
			if err != nil {
				return nil, false, err
			}
			cut = cut || childCut
			level := name
			if emphasis != nil {
				level = docbook.LeadingText(emphasis)
			}
			b.place(nestingLevel(level), children...)
		case captionRows[name]:
			// Caption rows carry no data.
		case b.followsFunctionalGroups():
			// Functional groups are attached per IOD, not inlined.
		default:
			r.skipRow(ctx, tableID, i, "no tag or reference")
		}
	}

	// Only tableID itself is active at the top of the path.
	if !cut || len(r.active) == 1 {
		r.elements[tableID] = b.root
		r.cut[tableID] = cut
	}
	return b.root, cut, nil
}

// rowReference finds the first xref and the first emphasis in the cells of
// a row. Some tables place the xref beside the emphasis instead of inside
// it, so both are searched independently.
func rowReference(cells []*xmlquery.Node) (xref, emphasis *xmlquery.Node) {
	for _, c := range cells {
		if xref == nil {
			xref = docbook.Find(c, "xref")
		}
		if emphasis == nil {
			emphasis = docbook.Find(c, "emphasis")
		}
	}
	return xref, emphasis
}

// elementDescription takes the description from the fourth column, or the
// third when the table has no type column.
func elementDescription(cells []*xmlquery.Node) string {
	switch {
	case len(cells) >= 4:
		return Text(cells[3])
	case len(cells) >= 3:
		return Text(cells[2])
	default:
		return ""
	}
}

// nestingLevel counts the leading '>' markers of a name.
func nestingLevel(name string) int {
	name = strings.TrimSpace(name)
	return len(name) - len(strings.TrimLeft(name, ">"))
}

// tableBuilder assembles the element tree of one table.
type tableBuilder struct {
	root []*AttributeElement

	// owned holds elements created for this table. Elements spliced in from
	// other tables are shared with their cache entry and are copied before
	// anything is nested below them.
	owned map[*AttributeElement]bool
}

// place appends elems at the given nesting level. A level deeper than the
// tree allows attaches to the deepest available list.
func (b *tableBuilder) place(level int, elems ...*AttributeElement) {
	list := &b.root
	for ; level > 0 && len(*list) > 0; level-- {
		i := len(*list) - 1
		parent := (*list)[i]
		if !b.owned[parent] {
			cp := *parent
			cp.Children = slices.Clone(parent.Children)
			parent = &cp
			(*list)[i] = parent
			b.owned[parent] = true
		}
		list = &parent.Children
	}
	*list = append(*list, elems...)
}

// followsFunctionalGroups reports whether the last root element is a
// functional groups sequence.
func (b *tableBuilder) followsFunctionalGroups() bool {
	n := len(b.root)
	return n > 0 && b.root[n-1].Attribute.Tag.IsFunctionalGroupSequence()
}
