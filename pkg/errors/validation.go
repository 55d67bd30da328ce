package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxUIDLength is the maximum length of a DICOM UID value.
const MaxUIDLength = 64

var (
	// uidRegex matches a complete numeric dot-segment UID (no leading zeros).
	uidRegex = regexp.MustCompile(`^(0|[1-9][0-9]*)(\.(0|[1-9][0-9]*))*$`)

	// uidPatternRegex matches a UID glob pattern.
	uidPatternRegex = regexp.MustCompile(`^[0-9.*?]+$`)
)

// ValidateUID checks that s is a well-formed UID value.
func ValidateUID(s string) error {
	if s == "" {
		return New(ErrCodeInvalidUID, "UID cannot be empty")
	}
	if len(s) > MaxUIDLength {
		return New(ErrCodeInvalidUID, "UID too long (max %d characters): %s", MaxUIDLength, s)
	}
	if !uidRegex.MatchString(s) {
		return New(ErrCodeInvalidUID, "invalid UID: %q", s)
	}
	return nil
}

// ValidateSopPattern validates a SOP class UID allowlist entry.
// An entry is either a complete UID or a glob pattern built from digits,
// dots, '*' and '?'.
func ValidateSopPattern(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return New(ErrCodeInvalidPattern, "SOP UID pattern cannot be empty")
	}
	if len(s) > MaxUIDLength {
		return New(ErrCodeInvalidPattern, "SOP UID pattern too long (max %d characters): %s", MaxUIDLength, s)
	}
	if uidRegex.MatchString(s) || uidPatternRegex.MatchString(s) {
		return nil
	}
	return New(ErrCodeInvalidPattern, "invalid SOP UID pattern: %q", s)
}

// ValidateSource validates the base location of the docbook corpus.
// Remote sources must use http or https; anything else is treated as a local
// directory and only checked for control characters.
func ValidateSource(source string) error {
	if source == "" {
		return New(ErrCodeInvalidInput, "source location cannot be empty")
	}
	for _, r := range source {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "source location contains invalid characters")
		}
	}
	if strings.Contains(source, "://") &&
		!strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return New(ErrCodeInvalidInput, "source URL must use http or https scheme")
	}
	return nil
}

// partNameRegex matches docbook part names such as "part03".
var partNameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidatePartName validates a logical document name. Part names become file
// and URL path segments, so separators and traversal sequences are rejected.
func ValidatePartName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "part name cannot be empty")
	}
	if !partNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid part name: %q", name)
	}
	return nil
}
