package dictionary

import (
	"context"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/charmbracelet/log"
	"github.com/gobwas/glob"

	"github.com/matzehuels/dcmdict/pkg/docbook"
	"github.com/matzehuels/dcmdict/pkg/errors"
)

// =============================================================================
// Default table layout of the published standard
// =============================================================================

const (
	DefaultModulesPart  = "part03"
	DefaultSopsPart     = "part04"
	DefaultRegistryPart = "part06"
	DefaultUidTable     = "table_A-1"
)

// Source is a part and the attribute tables read from it.
type Source struct {
	Part   string
	Tables []string
}

// DefaultAttributeSources returns the attribute registries in reading order.
// part06 is read last so that it refines the part07 command dictionary.
func DefaultAttributeSources() []Source {
	return []Source{
		{Part: "part07", Tables: []string{"table_E.1-1"}},
		{Part: "part06", Tables: []string{"table_7-1", "table_8-1", "table_6-1"}},
	}
}

// DefaultSopTables returns the SOP class tables of part04.
func DefaultSopTables() []string {
	return []string{"table_B.5-1", "table_I.4-1", "table_GG.3-1", "table_KK.1-2"}
}

// =============================================================================
// Resolver
// =============================================================================

// Documents opens parsed parts. *docbook.Library implements it.
type Documents interface {
	Open(ctx context.Context, part string) (*docbook.Document, error)
}

// Options configures a [Resolver]. Zero fields take the defaults of the
// published standard.
type Options struct {
	ModulesPart      string
	SopsPart         string
	RegistryPart     string
	AttributeSources []Source
	UidTable         string
	SopTables        []string

	// SopPatterns restricts SOP classes to UIDs matching one of the glob
	// patterns ('*' and '?'). Empty keeps every SOP class.
	SopPatterns []string

	// MandatoryTags keeps only SOP classes whose IOD reaches one of the
	// tags. Empty keeps every SOP class.
	MandatoryTags []Tag

	Logger *log.Logger
}

func (o *Options) setDefaults() {
	if o.ModulesPart == "" {
		o.ModulesPart = DefaultModulesPart
	}
	if o.SopsPart == "" {
		o.SopsPart = DefaultSopsPart
	}
	if o.RegistryPart == "" {
		o.RegistryPart = DefaultRegistryPart
	}
	if len(o.AttributeSources) == 0 {
		o.AttributeSources = DefaultAttributeSources()
	}
	if o.UidTable == "" {
		o.UidTable = DefaultUidTable
	}
	if len(o.SopTables) == 0 {
		o.SopTables = DefaultSopTables()
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
}

// Resolver owns the base dictionaries and every resolution cache of a run.
// It is not safe for concurrent use.
type Resolver struct {
	docs   Documents
	opts   Options
	logger *log.Logger

	patterns  []glob.Glob
	mandatory map[Tag]bool

	attributes *AttributeTable
	uids       *UidTable

	elements map[string][]*AttributeElement
	cut      map[string]bool // cached tables whose expansion was cut short
	active   map[string]bool
	modules  map[string]*Module
	iods     map[string]*Iod
}

// NewResolver creates a resolver reading through docs. It fails if a SOP
// pattern is invalid.
func NewResolver(docs Documents, opts Options) (*Resolver, error) {
	opts.setDefaults()

	r := &Resolver{
		docs:      docs,
		opts:      opts,
		logger:    opts.Logger,
		mandatory: make(map[Tag]bool, len(opts.MandatoryTags)),
		elements:  make(map[string][]*AttributeElement),
		cut:       make(map[string]bool),
		active:    make(map[string]bool),
		modules:   make(map[string]*Module),
		iods:      make(map[string]*Iod),
	}
	for _, p := range opts.SopPatterns {
		p = strings.TrimSpace(p)
		if err := errors.ValidateSopPattern(p); err != nil {
			return nil, err
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPattern, err, "compile SOP pattern %q", p)
		}
		r.patterns = append(r.patterns, g)
	}
	for _, t := range opts.MandatoryTags {
		r.mandatory[t] = true
	}
	return r, nil
}

// Attributes returns the parsed data dictionary, or nil before
// [Resolver.ParseAttributes].
func (r *Resolver) Attributes() *AttributeTable { return r.attributes }

// Uids returns the parsed UID registry, or nil before [Resolver.ParseUids].
func (r *Resolver) Uids() *UidTable { return r.uids }

// ModuleCount returns the number of modules resolved so far.
func (r *Resolver) ModuleCount() int { return len(r.modules) }

// IodCount returns the number of IODs resolved so far.
func (r *Resolver) IodCount() int { return len(r.iods) }

// table opens part and looks up the element with the given id.
func (r *Resolver) table(ctx context.Context, part, id string) (*docbook.Document, *xmlquery.Node, error) {
	doc, err := r.docs.Open(ctx, part)
	if err != nil {
		return nil, nil, err
	}
	n, ok := doc.Lookup(id)
	if !ok {
		return nil, nil, errors.New(errors.ErrCodeMissingElement, "%s has no element %s", part, id)
	}
	return doc, n, nil
}
