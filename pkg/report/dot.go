package report

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/dcmdict/pkg/dictionary"
)

// DOTOptions configures graph rendering.
type DOTOptions struct {
	// Detailed adds UIDs, section ids and element counts to node labels.
	// When false, only names are shown.
	Detailed bool
}

// DOT converts f to Graphviz DOT format: SOP classes point to their IOD and
// IODs to their modules, labeled with the usage. Functional group macros
// are drawn with dashed edges. The result can be rendered with [RenderSVG].
func DOT(f *dictionary.Filtered, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.8;\n")
	buf.WriteString("  nodesep=0.2;\n")
	buf.WriteString("\n")

	for _, s := range f.Sops {
		label := s.Uid.Name
		if opts.Detailed {
			label += "\n" + s.Uid.Value
		}
		fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=\"#e0f2f1\"];\n", sopID(s), label)
	}
	for _, iod := range f.Iods {
		label := iod.Name
		if opts.Detailed {
			label += "\n" + iod.ID
		}
		fmt.Fprintf(&buf, "  %q [label=%q, shape=folder];\n", iodID(iod), label)
	}
	for _, m := range f.Modules {
		label := m.Name
		if opts.Detailed {
			label += fmt.Sprintf("\n%s\nelements: %d", m.ID, len(m.Elements))
		}
		fmt.Fprintf(&buf, "  %q [label=%q, shape=note];\n", moduleID(m), label)
	}

	buf.WriteString("\n")
	for _, s := range f.Sops {
		if s.Iod != nil {
			fmt.Fprintf(&buf, "  %q -> %q;\n", sopID(s), iodID(s.Iod))
		}
	}
	for _, iod := range f.Iods {
		for _, me := range iod.Modules {
			if me.Module != nil {
				fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", iodID(iod), moduleID(me.Module), string(me.Usage))
			}
		}
		for _, me := range iod.FunctionalGroups {
			if me.Module != nil {
				fmt.Fprintf(&buf, "  %q -> %q [label=%q, style=dashed];\n", iodID(iod), moduleID(me.Module), string(me.Usage))
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func sopID(s dictionary.Sop) string { return "sop:" + s.Uid.Value }
func iodID(iod *dictionary.Iod) string { return "iod:" + iod.Keyword }
func moduleID(m *dictionary.Module) string { return "module:" + m.Keyword }

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz root element so the drawing scales
// from the origin of its view box.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
