package dictionary

import (
	"regexp"
	"slices"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/matzehuels/dcmdict/pkg/docbook"
	"github.com/matzehuels/dcmdict/pkg/errors"
)

var (
	tagRegex = regexp.MustCompile(`^\(\s*([0-9A-Fx]{4})\s*,\s*([0-9A-Fx]{4})\s*\)`)

	textCleaner = strings.NewReplacer("\u200b", "", "\u00b5", "u")
	tagCleaner  = strings.NewReplacer("(", "", ")", "", "x", "0")
)

// =============================================================================
// Field extractors
// =============================================================================

// Text returns the text of a cell. An emphasized span directly inside the
// cell takes precedence over the cell's own leading text. Zero-width spaces
// are dropped, micro signs become "u", and the result is trimmed.
func Text(cell *xmlquery.Node) string {
	if e := docbook.Child(cell, "emphasis"); e != nil {
		cell = e
	}
	return CleanText(docbook.LeadingText(cell))
}

// CleanText applies the normalization of [Text] to s.
func CleanText(s string) string {
	return strings.TrimSpace(textCleaner.Replace(s))
}

// ExtractTag reads a tag cell such as "(0010,0010)" or "(60xx,0010)".
func ExtractTag(cell *xmlquery.Node) (Tag, error) {
	return ParseTagText(Text(cell))
}

// ParseTagText converts tag text into a Tag. Parentheses are removed, the
// placeholder x becomes 0, and the remainder must split into exactly two
// comma-separated halves.
func ParseTagText(s string) (Tag, error) {
	parts := strings.Split(tagCleaner.Replace(s), ",")
	if len(parts) != 2 {
		return Tag{}, errors.New(errors.ErrCodeMalformedTag, "malformed tag %q", s)
	}
	return Tag{
		Group:   strings.TrimSpace(parts[0]),
		Element: strings.TrimSpace(parts[1]),
	}, nil
}

// ExtractVR reads a value representation cell.
func ExtractVR(cell *xmlquery.Node) string {
	return NormalizeVR(Text(cell))
}

// NormalizeVR canonicalizes VR text. Alternatives joined by " or " are
// sorted and joined with '_' ("US or SS" is "SS_US"). Empty text and
// forward references ("See Note") are [Invalid].
func NormalizeVR(s string) string {
	if s == "" || strings.Contains(s, "See") {
		return Invalid
	}
	vrs := strings.Split(s, " or ")
	for i, v := range vrs {
		vrs[i] = strings.TrimSpace(v)
	}
	slices.Sort(vrs)
	return strings.Join(vrs, "_")
}

// ExtractVM reads a value multiplicity cell.
func ExtractVM(cell *xmlquery.Node) string {
	return NormalizeVM(Text(cell))
}

// NormalizeVM canonicalizes VM text into MIN_<lo>_MAX_<hi>: "1" is
// MIN_1_MAX_1, "2-2n" is MIN_2_MAX_2N and "1-n or 1" is MIN_1_MAX_N.
// Empty text is [Invalid].
func NormalizeVM(s string) string {
	s = strings.ToLower(s)
	if s == "" {
		return Invalid
	}
	if strings.Contains(s, "1-n or 1") {
		s = "1-n"
	}
	bounds := strings.Split(s, "-")
	hi := bounds[0]
	if len(bounds) >= 2 {
		hi = bounds[1]
	}
	return strings.ToUpper("MIN_" + bounds[0] + "_MAX_" + hi)
}

// ExtractUsage reads a module usage cell.
func ExtractUsage(cell *xmlquery.Node) (Usage, string) {
	return SplitUsage(Text(cell))
}

// SplitUsage splits usage text on its first hyphen into a usage code and a
// condition: "C - Required if ..." is (C, "Required if ...").
// Codes are not validated here; see [IsUsage].
func SplitUsage(s string) (Usage, string) {
	code, condition, _ := strings.Cut(s, "-")
	return Usage(strings.TrimSpace(code)), strings.TrimSpace(condition)
}

// ExtractUID reads a UID cell and validates it.
func ExtractUID(cell *xmlquery.Node) (string, error) {
	uid := Text(cell)
	if err := errors.ValidateUID(uid); err != nil {
		return "", err
	}
	return uid, nil
}

// =============================================================================
// Predicates
// =============================================================================

// IsTag reports whether s starts with a tag.
func IsTag(s string) bool {
	return s != "" && tagRegex.MatchString(s)
}

// IsType reports whether s is an attribute requirement type.
func IsType(s string) bool {
	return ElementTypes[s]
}

// IsUsage reports whether s is a module usage: M, U, or "C - <condition>".
func IsUsage(s string) bool {
	return s == "M" || s == "U" || strings.HasPrefix(s, "C - ")
}

// =============================================================================
// Cell classification
// =============================================================================

// CellKind is the outcome of [Classify].
type CellKind int

const (
	CellUnmatched CellKind = iota
	CellTag
	CellType
)

// Cell is a classified table cell. Tag is set for CellTag, Type for CellType.
type Cell struct {
	Kind CellKind
	Tag  Tag
	Type string
}

type cellMatcher func(text string) (Cell, bool, error)

// cellMatchers are tried in order; the first match wins.
var cellMatchers = []cellMatcher{
	func(text string) (Cell, bool, error) {
		if !IsTag(text) {
			return Cell{}, false, nil
		}
		tag, err := ParseTagText(text)
		if err != nil {
			return Cell{}, false, err
		}
		return Cell{Kind: CellTag, Tag: tag}, true, nil
	},
	func(text string) (Cell, bool, error) {
		if !IsType(text) {
			return Cell{}, false, nil
		}
		return Cell{Kind: CellType, Type: text}, true, nil
	},
}

// Classify decides whether a cell of an attribute element table holds a tag,
// a requirement type, or neither. Column positions vary between tables
// because of spanned cells, so callers classify every cell of a row.
func Classify(cell *xmlquery.Node) (Cell, error) {
	text := Text(cell)
	for _, match := range cellMatchers {
		c, ok, err := match(text)
		if err != nil {
			return Cell{}, err
		}
		if ok {
			return c, nil
		}
	}
	return Cell{Kind: CellUnmatched}, nil
}
