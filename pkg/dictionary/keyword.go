package dictionary

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gradienthealth/dicom/dicomtag"

	"github.com/matzehuels/dcmdict/pkg/errors"
)

var (
	keywordSeparators = regexp.MustCompile(`[\W_]+`)
	argumentTagRegex  = regexp.MustCompile(`^\(\s*([0-9A-Fa-fXx]{4})\s*,\s*([0-9A-Fa-fXx]{4})\s*\)$`)
)

// ToKeyword derives a PascalCase keyword from a section title. Runs of
// non-word characters separate words; each word gets an upper-case first
// letter and keeps the rest ("CT Image IOD" is "CTImageIOD").
func ToKeyword(name string) string {
	var b strings.Builder
	for _, word := range keywordSeparators.Split(name, -1) {
		if word == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(word[size:])
	}
	return b.String()
}

// ParseMandatoryTag parses a tag given on the command line. It accepts the
// "(gggg,eeee)" form, where x stands for a repeating-group digit, or a
// standard keyword such as "SOPClassUID".
func ParseMandatoryTag(s string) (Tag, error) {
	s = strings.TrimSpace(s)
	if m := argumentTagRegex.FindStringSubmatch(s); m != nil {
		return Tag{Group: normalizeHex(m[1]), Element: normalizeHex(m[2])}, nil
	}
	if s == "" || strings.ContainsAny(s, "(),") {
		return Tag{}, errors.New(errors.ErrCodeMalformedTag, "invalid tag: %q", s)
	}
	info, err := dicomtag.FindByName(s)
	if err != nil {
		return Tag{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "unknown tag keyword %q", s)
	}
	return Tag{
		Group:   fmt.Sprintf("%04X", info.Tag.Group),
		Element: fmt.Sprintf("%04X", info.Tag.Element),
	}, nil
}

// normalizeHex matches the spelling of extracted tags: upper-case hex
// digits with placeholders mapped to 0.
func normalizeHex(s string) string {
	return strings.ReplaceAll(strings.ToUpper(s), "X", "0")
}
