package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/dcmdict/pkg/dictionary"
)

// Export is the normalized form of a filtered dictionary. Objects refer to
// each other by keyword (IODs and modules), UID value (SOP classes) or tag
// text (attributes) instead of by nesting.
type Export struct {
	Sops       []SopRecord       `json:"sop_classes"`
	Iods       []IodRecord       `json:"iods"`
	Modules    []ModuleRecord    `json:"modules"`
	Attributes []AttributeRecord `json:"attributes"`
	Types      []string          `json:"types"`
}

// SopRecord is a SOP class and the keyword of its IOD.
type SopRecord struct {
	UID     string `json:"uid" bson:"_id"`
	Name    string `json:"name" bson:"name"`
	Keyword string `json:"keyword" bson:"keyword"`
	Type    string `json:"type" bson:"type"`
	Iod     string `json:"iod" bson:"iod"`
}

// IodRecord is an IOD with its module usages.
type IodRecord struct {
	Keyword          string        `json:"keyword" bson:"_id"`
	ID               string        `json:"id" bson:"section"`
	Name             string        `json:"name" bson:"name"`
	Modules          []UsageRecord `json:"modules" bson:"modules"`
	FunctionalGroups []UsageRecord `json:"functional_groups,omitempty" bson:"functional_groups,omitempty"`
}

// UsageRecord is a module included by an IOD.
type UsageRecord struct {
	Module    string `json:"module" bson:"module"`
	Usage     string `json:"usage" bson:"usage"`
	Condition string `json:"condition,omitempty" bson:"condition,omitempty"`
}

// ModuleRecord is a module with its element tree.
type ModuleRecord struct {
	Keyword  string          `json:"keyword" bson:"_id"`
	ID       string          `json:"id" bson:"section"`
	Name     string          `json:"name" bson:"name"`
	Elements []ElementRecord `json:"elements" bson:"elements"`
}

// ElementRecord is an attribute element. Children that would re-enter a
// table already on the path from the module root are left out.
type ElementRecord struct {
	Tag         string          `json:"tag" bson:"tag"`
	Keyword     string          `json:"keyword" bson:"keyword"`
	Type        string          `json:"type" bson:"type"`
	Description string          `json:"description,omitempty" bson:"description,omitempty"`
	Origin      string          `json:"origin" bson:"origin"`
	Children    []ElementRecord `json:"children,omitempty" bson:"children,omitempty"`
}

// AttributeRecord is a data dictionary entry.
type AttributeRecord struct {
	Tag         string `json:"tag" bson:"_id"`
	Group       string `json:"group" bson:"group"`
	Element     string `json:"element" bson:"element"`
	Name        string `json:"name" bson:"name"`
	Keyword     string `json:"keyword" bson:"keyword"`
	VR          string `json:"vr" bson:"vr"`
	VM          string `json:"vm" bson:"vm"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
}

// NewExport normalizes f.
func NewExport(f *dictionary.Filtered) *Export {
	out := &Export{
		Sops:       make([]SopRecord, 0, len(f.Sops)),
		Iods:       make([]IodRecord, 0, len(f.Iods)),
		Modules:    make([]ModuleRecord, 0, len(f.Modules)),
		Attributes: make([]AttributeRecord, 0, len(f.Attributes)),
		Types:      append([]string(nil), f.Types...),
	}

	for _, s := range f.Sops {
		rec := SopRecord{UID: s.Uid.Value, Name: s.Uid.Name, Keyword: s.Uid.Keyword, Type: s.Uid.Type}
		if s.Iod != nil {
			rec.Iod = s.Iod.Keyword
		}
		out.Sops = append(out.Sops, rec)
	}
	for _, iod := range f.Iods {
		out.Iods = append(out.Iods, IodRecord{
			Keyword:          iod.Keyword,
			ID:               iod.ID,
			Name:             iod.Name,
			Modules:          usageRecords(iod.Modules),
			FunctionalGroups: usageRecords(iod.FunctionalGroups),
		})
	}
	for _, m := range f.Modules {
		out.Modules = append(out.Modules, ModuleRecord{
			Keyword:  m.Keyword,
			ID:       m.ID,
			Name:     m.Name,
			Elements: elementRecords(m.Elements, dictionary.Trail{}),
		})
	}
	for _, a := range f.Attributes {
		out.Attributes = append(out.Attributes, AttributeRecord{
			Tag:         a.Tag.String(),
			Group:       a.Tag.Group,
			Element:     a.Tag.Element,
			Name:        a.Name,
			Keyword:     a.Keyword,
			VR:          a.VR,
			VM:          a.VM,
			Description: a.Description,
		})
	}
	return out
}

func usageRecords(usages []dictionary.ModuleElement) []UsageRecord {
	if len(usages) == 0 {
		return nil
	}
	out := make([]UsageRecord, 0, len(usages))
	for _, u := range usages {
		if u.Module == nil {
			continue
		}
		out = append(out, UsageRecord{Module: u.Module.Keyword, Usage: string(u.Usage), Condition: u.Condition})
	}
	return out
}

func elementRecords(elements []*dictionary.AttributeElement, t dictionary.Trail) []ElementRecord {
	var out []ElementRecord
	for _, e := range elements {
		if !t.Allows(e) {
			continue
		}
		out = append(out, ElementRecord{
			Tag:         e.Attribute.Tag.String(),
			Keyword:     e.Attribute.Keyword,
			Type:        e.Type,
			Description: e.Description,
			Origin:      e.Origin,
			Children:    elementRecords(e.Children, t.Enter(e)),
		})
	}
	return out
}

// JSON writes the normalized export of f to w as indented JSON.
func JSON(w io.Writer, f *dictionary.Filtered) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewExport(f)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
