package pipeline

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/dcmdict/pkg/dictionary"
	"github.com/matzehuels/dcmdict/pkg/report"
)

// Render generates output artifacts in the requested formats.
func Render(f *dictionary.Filtered, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var dot string
	for _, format := range opts.Formats {
		var buf bytes.Buffer
		var err error

		switch format {
		case FormatText:
			err = report.Summary(&buf, f, report.Filters{
				SopPatterns:   opts.SopPatterns,
				MandatoryTags: opts.Tags(),
			})
		case FormatTree:
			err = renderTrees(&buf, f.Sops)
		case FormatJSON:
			err = report.JSON(&buf, f)
		case FormatDOT, FormatSVG:
			if dot == "" {
				dot = report.DOT(f, report.DOTOptions{Detailed: opts.Detailed})
			}
			if format == FormatDOT {
				buf.WriteString(dot)
				break
			}
			var svg []byte
			svg, err = report.RenderSVG(dot)
			buf.Write(svg)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = buf.Bytes()
	}

	return artifacts, nil
}

// renderTrees prints one tree per SOP class, separated by blank lines.
func renderTrees(buf *bytes.Buffer, sops []dictionary.Sop) error {
	for i, sop := range sops {
		if i > 0 {
			buf.WriteByte('\n')
		}
		if err := report.Tree(buf, sop); err != nil {
			return err
		}
	}
	return nil
}
