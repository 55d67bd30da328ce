package dictionary

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dcmdict/pkg/docbook"
	"github.com/matzehuels/dcmdict/pkg/observability"
)

// =============================================================================
// Docbook builders
// =============================================================================

func book(body ...string) string {
	return `<?xml version="1.0" encoding="utf-8"?>` +
		`<book xmlns="http://docbook.org/ns/docbook" xmlns:xl="http://www.w3.org/1999/xlink">` +
		strings.Join(body, "\n") + `</book>`
}

func section(id, title string, body ...string) string {
	return fmt.Sprintf(`<section xml:id="%s"><title>%s</title>%s</section>`, id, title, strings.Join(body, "\n"))
}

func table(id, caption string, rows ...string) string {
	return fmt.Sprintf(`<table xml:id="%s"><caption>%s</caption><thead><tr><td><para>Header</para></td></tr></thead><tbody>%s</tbody></table>`,
		id, caption, strings.Join(rows, "\n"))
}

func tr(cells ...string) string {
	return "<tr>" + strings.Join(cells, "") + "</tr>"
}

func td(content string) string {
	return "<td><para>" + content + "</para></td>"
}

func attr(tag, name, keyword, vr, vm, desc string) string {
	return tr(td(tag), td(name), td(keyword), td(vr), td(vm), td(desc))
}

func elem(name, tag, typ, desc string) string {
	return tr(td(name), td(tag), td(typ), td(desc))
}

func include(level, target string) string {
	return tr(td(fmt.Sprintf(`<emphasis role="italic">%sInclude <xref linkend="%s" xrefstyle="select: label quotedtitle"/></emphasis>`, level, target)))
}

func moduleRow(ie, name, target, usage string) string {
	return tr(td(ie), td(name), td(fmt.Sprintf(`<xref linkend="%s"/>`, target)), td(usage))
}

func sopRow(name, uid, target string) string {
	return tr(td(name), td(uid), td(fmt.Sprintf(`<olink targetdoc="PS3.3" targetptr="%s" xrefstyle="template: %%t"/>`, target)))
}

// =============================================================================
// Test corpus
// =============================================================================

const (
	ctImageUID = "1.2.840.10008.5.1.4.1.1.2"
	nmRetired  = "1.2.840.10008.5.1.4.1.1.5"
)

var (
	tagSOPClassUID       = Tag{"0008", "0016"}
	tagPatientName       = Tag{"0010", "0010"}
	tagRefSeriesSeq      = Tag{"0008", "1115"}
	tagSeriesInstanceUID = Tag{"0020", "000E"}
	tagSliceThickness    = Tag{"0018", "0050"}
	tagValueType         = Tag{"0040", "A040"}
	tagPixelMeasuresSeq  = Tag{"0028", "9110"}
	tagMessageSetID      = Tag{"0000", "5010"}
	tagLengthToEnd       = Tag{"0008", "0001"}
)

func part07() string {
	return book(table("table_E.1-1", "Command Fields",
		attr("(0000,0002)", "Affected SOP Class UID", "AffectedSOPClassUID", "UI", "1", ""),
		attr("(0000,5010)", "Message Set ID", "MessageSetID", "SH", "1", "RET"),
		attr("(0010,0010)", "Old Patient Name", "OldPatientName", "PN", "1", ""),
	))
}

func part06() string {
	return book(
		table("table_6-1", "Registry of DICOM Data Elements",
			attr("(0008,0001)", "Length to End", "LengthToEnd", "UL", "1", "RET"),
			attr("(0008,0016)", "SOP Class UID", "SOPClassUID", "UI", "1", ""),
			attr("(0008,1115)", "Referenced Series Sequence", "ReferencedSeriesSequence", "SQ", "1", ""),
			attr("(0010,0010)", "Patient's Name", "PatientName", "PN", "1", ""),
			attr("(0018,0050)", "Slice Thickness", "SliceThickness", "DS", "1", ""),
			attr("(0020,000E)", "Series Instance UID", "SeriesInstanceUID", "UI", "1", ""),
			attr("(0028,0106)", "Smallest Image Pixel Value", "SmallestImagePixelValue", "US or SS", "1", ""),
			attr("(0028,1201)", "Red Palette Color Lookup Table Data", "RedPaletteColorLookupTableData", "See Note 2", "1-n or 1", ""),
			attr("(0028,9110)", "Pixel Measures Sequence", "PixelMeasuresSequence", "SQ", "1", ""),
			attr("(0040,A040)", "Value Type", "ValueType", "CS", "1", ""),
			attr("(0000,5010)", "Message Set ID", "MessageSetID", "SH", "1", ""),
			attr("(5200,9229)", "Shared Functional Groups Sequence", "SharedFunctionalGroupsSequence", "SQ", "1", ""),
			attr("(60xx,0010)", "Overlay Rows", "OverlayRows", "US", "1", ""),
			attr("(0008,0002)", "No Multiplicity", "NoMultiplicity", "CS", "", ""),
		),
		table("table_A-1", "UID Values",
			tr(td(ctImageUID), td("CT Image Storage"), td("CTImageStorage"), td("SOP Class"), td("PS3.4")),
			tr(td("1.2.3"), td("Basic Storage"), td("BasicStorage"), td("SOP Class"), td("")),
			tr(td("1.2.4&#8203;"), td("Other Storage"), td("OtherStorage"), td("SOP Class"), td("")),
			tr(td("1.2.840.10008.1.2"), td("Implicit VR Little Endian"), td("ImplicitVRLittleEndian"), td("Transfer Syntax"), td("")),
			tr(td(nmRetired), td("Nuclear Medicine Image Storage (Retired)"), td("NuclearMedicineImageStorage"), td("SOP Class"), td("")),
		),
	)
}

func part03() string {
	return book(`<chapter xml:id="chapter_A">`,
		section("sect_A.1", "CT Image IOD",
			table("table_A.1-1", "CT Image IOD Modules",
				moduleRow("Patient", "Patient", "sect_C.2", "M"),
				moduleRow("Image", "SOP Common", "sect_C.1", "M"),
				tr(td("Image"), td("Multi-frame Functional Groups"), `<td><xref linkend="sect_C.7"/></td>`, td("C - Required if multi-frame")),
			),
			table("table_A.1-2", "CT Image Functional Group Macros",
				moduleRow("", "Pixel Measures", "sect_C.8", "M"),
			),
			table("table_A.1-3", "Example CT Image IOD Modules",
				tr(td("no reference here")),
			),
		),
		section("sect_A.2", "Basic IOD",
			table("table_A.2-1", "Basic IOD Modules",
				moduleRow("Image", "SOP Common", "sect_C.1", "U"),
			),
		),
		`</chapter><chapter xml:id="chapter_C">`,
		section("sect_C.1", "SOP Common Module",
			table("table_C.1-1", "SOP Common Module Attributes",
				elem("SOP Class UID", "(0008,0016)", "1", "Uniquely identifies the SOP Class."),
			),
		),
		section("sect_C.2", "Patient Module",
			table("table_C.2-1", "Patient Module Attributes",
				elem("Patient's Name", "(0010,0010)", "2", "Patient's full name."),
				elem("Referenced Series Sequence", "(0008,1115)", "3", "Series of the patient."),
				include("&gt;", "table_C.3-1"),
				tr(td("BASIC CODED ENTRY ATTRIBUTES")),
				tr(td("Any Attribute of the Patient IE"), td(""), td("3"), td("Private content.")),
			),
			table("table_C.2-2", "Patient Module Example",
				elem("Value Type", "(0040,A040)", "1", "Examples are never part of a module."),
			),
		),
		section("sect_C.3", "Series Macro",
			table("table_C.3-1", "Series Macro Attributes",
				elem("Series Instance UID", "(0020,000E)", "1", "Unique identifier of the series."),
				elem("&gt;Slice Thickness", "(0018,0050)", "1C", "Nominal slice thickness."),
			),
		),
		section("sect_C.4", "Content Item Macro",
			table("table_C.4-1", "Content Item Macro Attributes",
				elem("Value Type", "(0040,A040)", "1", "Type of the value."),
				include("&gt;", "table_C.4-1"),
			),
		),
		section("sect_C.5", "Chain A Macro",
			table("table_C.5-1", "Chain A Macro Attributes",
				elem("Value Type", "(0040,A040)", "1", ""),
				include("&gt;", "table_C.6-1"),
			),
			table("table_C.6-1", "Chain B Macro Attributes",
				elem("Series Instance UID", "(0020,000E)", "1", ""),
				include("&gt;", "table_C.5-1"),
			),
		),
		section("sect_C.7", "Multi-frame Functional Groups Module",
			table("table_C.7-1", "Multi-frame Functional Groups Module Attributes",
				elem("Shared Functional Groups Sequence", "(5200,9229)", "1", "Sequence of shared groups."),
				tr(td("&gt;Include one or more Functional Group Macros that are shared by all frames")),
			),
		),
		section("sect_C.8", "Pixel Measures Macro",
			table("table_C.8-1", "Pixel Measures Macro Attributes",
				elem("Pixel Measures Sequence", "(0028,9110)", "1", "Physical characteristics of the pixels."),
				elem("&gt;Slice Thickness", "(0018,0050)", "1C", "Nominal reconstructed slice thickness."),
			),
		),
		section("sect_C.9", "Splice Macro",
			table("table_C.9-1", "Splice Macro Attributes",
				include("", "table_C.3-1"),
				elem("&gt;Patient's Name", "(0010,0010)", "3", "Nested below a spliced element."),
			),
		),
		section("sect_C.10", "Broken Macro",
			table("table_C.10-1", "Broken Macro Attributes",
				elem("Value Type", "(0040,A040)", "1", ""),
				include("", "table_missing"),
				tr(td("Nothing recognizable")),
			),
		),
		section("sect_C.11", "Unknown Macro",
			table("table_C.11-1", "Unknown Macro Attributes",
				elem("Private Thing", "(0009,0010)", "1", ""),
			),
		),
		section("sect_C.12", "Empty Module",
			table("table_C.12-1", "Empty Module Attributes",
				tr(td("BASIC CODED ENTRY ATTRIBUTES")),
			),
		),
		section("sect_A.3", "Hollow IOD",
			table("table_A.3-1", "Hollow IOD Descriptions"),
		),
		`</chapter>`,
	)
}

func part04() string {
	return book(table("table_B.5-1", "Standard SOP Classes",
		sopRow("CT Image Storage", ctImageUID, "sect_A.1"),
		sopRow("Basic Storage", "1.2.3", "sect_A.2"),
		tr(td("Other Storage"), td("1.2.4"), `<td><para>IOD</para><olink targetdoc="PS3.3" targetptr="sect_A.2"/></td>`),
		sopRow("Nuclear Medicine Image Storage", nmRetired, "sect_A.1"),
		tr(td("Section header")),
	))
}

func corpus() docbook.MapOpener {
	return docbook.MapOpener{
		"part03": part03(),
		"part04": part04(),
		"part06": part06(),
		"part07": part07(),
	}
}

// =============================================================================
// Harness
// =============================================================================

type countingOpener struct {
	inner docbook.Opener
	calls map[string]int
}

func (o *countingOpener) Open(ctx context.Context, part string) (io.ReadCloser, error) {
	o.calls[part]++
	return o.inner.Open(ctx, part)
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func testOptions() Options {
	return Options{
		AttributeSources: []Source{
			{Part: "part07", Tables: []string{"table_E.1-1"}},
			{Part: "part06", Tables: []string{"table_6-1"}},
		},
		SopTables: []string{"table_B.5-1"},
		Logger:    quietLogger(),
	}
}

func newTestResolver(t *testing.T, opener docbook.Opener, mutate func(*Options)) *Resolver {
	t.Helper()
	opts := testOptions()
	if mutate != nil {
		mutate(&opts)
	}
	r, err := NewResolver(docbook.NewLibrary(opener, quietLogger()), opts)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return r
}

// newParsedResolver returns a resolver over the test corpus with the base
// dictionaries already parsed.
func newParsedResolver(t *testing.T, mutate func(*Options)) *Resolver {
	t.Helper()
	r := newTestResolver(t, corpus(), mutate)
	ctx := context.Background()
	if _, err := r.ParseAttributes(ctx); err != nil {
		t.Fatalf("ParseAttributes: %v", err)
	}
	if _, err := r.ParseUids(ctx); err != nil {
		t.Fatalf("ParseUids: %v", err)
	}
	return r
}

type recordingHooks struct {
	observability.NoopResolveHooks
	modules map[string]int
	iods    map[string]int
	skipped map[string]int
}

func (h *recordingHooks) OnModuleResolved(_ context.Context, id string, _ int) { h.modules[id]++ }
func (h *recordingHooks) OnIodResolved(_ context.Context, id string, _ int)    { h.iods[id]++ }
func (h *recordingHooks) OnRowSkipped(_ context.Context, table, _ string)      { h.skipped[table]++ }

func recordHooks(t *testing.T) *recordingHooks {
	t.Helper()
	h := &recordingHooks{
		modules: map[string]int{},
		iods:    map[string]int{},
		skipped: map[string]int{},
	}
	observability.SetResolveHooks(h)
	t.Cleanup(observability.Reset)
	return h
}

// maxDepth returns the deepest nesting reached by Walk.
func maxDepth(elements []*AttributeElement) int {
	depth := 0
	Walk(elements, func(_ *AttributeElement, t Trail) bool {
		depth = max(depth, t.Depth()+1)
		return true
	})
	return depth
}
