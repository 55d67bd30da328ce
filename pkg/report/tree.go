package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/dcmdict/pkg/dictionary"
)

// node is one line of a printed tree.
type node struct {
	label    string
	children []node
}

// Tree prints sop as a tree: the SOP class, its IOD, each module with its
// usage and the attribute elements of each module. The functional group
// macros of the IOD are listed below every functional group sequence.
func Tree(w io.Writer, sop dictionary.Sop) error {
	var b strings.Builder
	renderTree(&b, sopNode(sop))
	_, err := io.WriteString(w, b.String())
	return err
}

func sopNode(sop dictionary.Sop) node {
	root := node{
		label: sop.Uid.Name,
		children: []node{
			{label: "UID: " + sop.Uid.Value},
			{label: "Keyword: " + sop.Uid.Keyword},
		},
	}
	if sop.Iod == nil {
		return root
	}

	iod := sop.Iod
	modules := node{label: fmt.Sprintf("IOD modules (%d):", len(iod.Modules))}
	for _, me := range iod.Modules {
		modules.children = append(modules.children, moduleNode(me, iod, dictionary.Trail{}))
	}
	root.children = append(root.children, node{
		label: iod.Name,
		children: []node{
			{label: "IOD keyword: " + iod.Keyword},
			modules,
		},
	})
	return root
}

func moduleNode(me dictionary.ModuleElement, iod *dictionary.Iod, t dictionary.Trail) node {
	if me.Module == nil {
		return node{label: fmt.Sprintf("? (%s):", me.Usage)}
	}
	return node{
		label:    fmt.Sprintf("%s (%s):", me.Module.Name, me.Usage),
		children: elementNodes(me.Module.Elements, iod, t),
	}
}

func elementNodes(elements []*dictionary.AttributeElement, iod *dictionary.Iod, t dictionary.Trail) []node {
	var out []node
	for _, e := range elements {
		if !t.Allows(e) {
			continue
		}
		below := t.Enter(e)
		n := node{children: elementNodes(e.Children, iod, below)}
		if e.Attribute.Tag.IsFunctionalGroupSequence() {
			for _, fg := range iod.FunctionalGroups {
				n.children = append(n.children, moduleNode(fg, iod, below))
			}
		}

		n.label = fmt.Sprintf("%s (%s) %s", e.Attribute.Tag, e.Type, e.Attribute.Name)
		if len(n.children) > 0 {
			n.label += fmt.Sprintf(" (%d):", len(n.children))
		}
		out = append(out, n)
	}
	return out
}

func renderTree(b *strings.Builder, root node) {
	b.WriteString(root.label + "\n")
	renderChildren(b, "", root.children)
}

func renderChildren(b *strings.Builder, prefix string, nodes []node) {
	for i, n := range nodes {
		branch, indent := "├─", "│  "
		if i == len(nodes)-1 {
			branch, indent = "└─", "   "
		}
		b.WriteString(prefix + branch + n.label + "\n")
		renderChildren(b, prefix+indent, n.children)
	}
}
