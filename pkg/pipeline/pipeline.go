// Package pipeline runs a complete dictionary extraction for dcmdict.
//
// This package wires retrieval, docbook parsing, resolution and rendering
// into a single call that the CLI and the HTTP server share. By centralizing
// this logic both entry points apply the same defaults and filters.
//
// # Architecture
//
// A run consists of three stages:
//
//  1. Retrieve: open the configured docbook parts through the byte cache
//  2. Resolve: build attributes, UIDs, SOP classes, IODs and modules, then
//     reduce them to the reachable dictionary
//  3. Render: produce the requested output formats (text, tree, JSON, DOT, SVG)
//
// # Usage
//
//	c, err := cache.New(ctx, cfg.CacheOptions())
//	if err != nil {
//	    return err
//	}
//	runner := pipeline.NewRunner(cfg, c, nil, logger)
//	defer runner.Close()
//
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    SopPatterns: []string{"1.2.840.10008.5.1.4.1.1.2"},
//	    Formats:     []string{pipeline.FormatText},
//	})
//	if err != nil {
//	    return err
//	}
//	os.Stdout.Write(result.Artifacts[pipeline.FormatText])
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dcmdict/pkg/dictionary"
	"github.com/matzehuels/dcmdict/pkg/errors"
)

// Format constants for output formats.
const (
	FormatText = "text"
	FormatTree = "tree"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// DefaultFormat is rendered when no format is requested.
const DefaultFormat = FormatText

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatText: true,
	FormatTree: true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// =============================================================================
// Options - Run Configuration
// =============================================================================

// Options selects the SOP classes of a run and the outputs to render.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Source overrides the configured docbook location for this run.
	Source string `json:"source,omitempty"`

	// SopPatterns restricts SOP classes to matching UIDs ('*' and '?').
	SopPatterns []string `json:"sop_patterns,omitempty"`

	// MandatoryTags keeps SOP classes whose IOD reaches one of these tags,
	// given as "(gggg,eeee)" or as a keyword.
	MandatoryTags []string `json:"mandatory_tags,omitempty"`

	// Refresh bypasses cached parts and downloads them again.
	Refresh bool `json:"refresh,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // module nodes in DOT and SVG output

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	tags      []dictionary.Tag
	validated bool
}

// Result contains the outputs of a run.
type Result struct {
	// RunID identifies the run in logs and hooks.
	RunID string

	// Dictionary is the full resolution, including the filtered dictionary.
	Dictionary *dictionary.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats
}

// Filtered returns the reachable dictionary of the run.
func (r *Result) Filtered() *dictionary.Filtered {
	return r.Dictionary.Filtered
}

// Stats contains run statistics.
type Stats struct {
	SopCount       int
	IodCount       int
	ModuleCount    int
	AttributeCount int
	ResolveTime    time.Duration
	RenderTime     time.Duration
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid format: %q (must be one of: text, tree, json, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseMandatoryTags converts command-line tag arguments.
func ParseMandatoryTags(args []string) ([]dictionary.Tag, error) {
	tags := make([]dictionary.Tag, 0, len(args))
	for _, a := range args {
		t, err := dictionary.ParseMandatoryTag(a)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, nil
}

// SplitList splits a comma-separated flag value, dropping empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks filters and formats and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Source != "" {
		if err := errors.ValidateSource(o.Source); err != nil {
			return err
		}
	}
	for i, p := range o.SopPatterns {
		p = strings.TrimSpace(p)
		if err := errors.ValidateSopPattern(p); err != nil {
			return err
		}
		o.SopPatterns[i] = p
	}
	tags, err := ParseMandatoryTags(o.MandatoryTags)
	if err != nil {
		return err
	}
	o.tags = tags

	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// Tags returns the parsed mandatory tags. It is empty before
// [Options.ValidateAndSetDefaults].
func (o *Options) Tags() []dictionary.Tag {
	return o.tags
}

// String summarizes the selection for log lines.
func (o *Options) String() string {
	return fmt.Sprintf("sops=%v tags=%v formats=%v", o.SopPatterns, o.MandatoryTags, o.Formats)
}
