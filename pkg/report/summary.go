package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/dcmdict/pkg/dictionary"
)

// =============================================================================
// Styles
// =============================================================================

var (
	colorCyan = lipgloss.Color("36")
	colorGray = lipgloss.Color("245")
	colorDim  = lipgloss.Color("240")

	styleHeading = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleHeader  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Padding(0, 1)
	styleCell    = lipgloss.NewStyle().Padding(0, 1)
	styleBorder  = lipgloss.NewStyle().Foreground(colorDim)
	styleBanner  = lipgloss.NewStyle().Foreground(colorGray)
)

const ruleWidth = 120

// Filters describes the selection a result was computed with. It only
// feeds the banner of [Summary].
type Filters struct {
	SopPatterns   []string
	MandatoryTags []dictionary.Tag
}

// Summary prints the filter banner followed by the SOP classes, IODs,
// modules and attributes of f, each as a table.
func Summary(w io.Writer, f *dictionary.Filtered, filters Filters) error {
	var b strings.Builder
	rule := styleBanner.Render(strings.Repeat("_", ruleWidth))

	b.WriteString(styleHeading.Render("Parsing results") + "\n")
	b.WriteString(rule + "\n")
	if len(filters.SopPatterns) > 0 {
		b.WriteString(fmt.Sprintf("Filtering by SOP Class UID: %s.\n", strings.Join(filters.SopPatterns, ", ")))
	}
	if len(filters.MandatoryTags) > 0 {
		tags := make([]string, len(filters.MandatoryTags))
		for i, t := range filters.MandatoryTags {
			tags[i] = t.String()
		}
		b.WriteString(fmt.Sprintf("Filtering by mandatory tags: %s.\n", strings.Join(tags, ", ")))
	}
	if len(filters.SopPatterns) == 0 && len(filters.MandatoryTags) == 0 {
		b.WriteString("No filters.\n")
	}
	b.WriteString(rule + "\n")

	sops := make([][]string, len(f.Sops))
	for i, s := range f.Sops {
		iod := ""
		if s.Iod != nil {
			iod = s.Iod.Keyword
		}
		sops[i] = []string{s.Uid.Value, s.Uid.Name, iod}
	}
	section(&b, "SOP classes", rule, []string{"UID", "Name", "IOD"}, sops)

	iods := make([][]string, len(f.Iods))
	for i, iod := range f.Iods {
		iods[i] = []string{iod.Keyword, iod.Name, strconv.Itoa(len(iod.Modules)), strconv.Itoa(len(iod.FunctionalGroups))}
	}
	section(&b, "IODs", rule, []string{"Keyword", "Name", "Modules", "Functional groups"}, iods)

	modules := make([][]string, len(f.Modules))
	for i, m := range f.Modules {
		modules[i] = []string{m.Keyword, m.Name, strconv.Itoa(len(m.Elements))}
	}
	section(&b, "Modules", rule, []string{"Keyword", "Name", "Elements"}, modules)

	attributes := make([][]string, len(f.Attributes))
	for i, a := range f.Attributes {
		attributes[i] = []string{a.Tag.String(), a.Keyword, a.Name, a.VR, a.VM}
	}
	section(&b, "Attributes", rule, []string{"Tag", "Keyword", "Name", "VR", "VM"}, attributes)

	_, err := io.WriteString(w, b.String())
	return err
}

func section(b *strings.Builder, title, rule string, headers []string, rows [][]string) {
	b.WriteString("\n" + styleHeading.Render(fmt.Sprintf("Found %d %s:", len(rows), title)) + "\n")
	if len(rows) > 0 {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(styleBorder).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return styleHeader
				}
				return styleCell
			}).
			Headers(headers...).
			Rows(rows...)
		b.WriteString(t.Render() + "\n")
	}
	b.WriteString(rule + "\n")
}
