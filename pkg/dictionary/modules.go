package dictionary

import (
	"context"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/matzehuels/dcmdict/pkg/docbook"
	"github.com/matzehuels/dcmdict/pkg/errors"
	"github.com/matzehuels/dcmdict/pkg/observability"
)

// FetchModule resolves the module or macro section sectionID. Every table
// of the section captioned as module attributes, macro attributes or module
// table contributes its elements; tables captioned as examples are ignored.
// The result is cached: later calls return the same *Module.
func (r *Resolver) FetchModule(ctx context.Context, sectionID string) (*Module, error) {
	if m, ok := r.modules[sectionID]; ok {
		return m, nil
	}

	_, section, err := r.table(ctx, r.opts.ModulesPart, sectionID)
	if err != nil {
		return nil, err
	}
	name := docbook.Title(section)
	r.logger.Debug("fetching module", "section", sectionID, "name", name)

	var elements []*AttributeElement
	for _, table := range docbook.Tables(section) {
		caption, ok := docbook.Caption(table)
		if !ok || !isModuleCaption(strings.ToLower(caption)) {
			continue
		}
		id := docbook.ID(table)
		if id == "" {
			r.skipRow(ctx, sectionID, 0, "attribute table without id")
			continue
		}
		found, err := r.FetchAttributes(ctx, id)
		if err != nil {
			return nil, err
		}
		elements = append(elements, found...)
	}

	if len(elements) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyModule, "no attributes found in module %q (%s)", name, sectionID)
	}

	m := &Module{
		ID:       sectionID,
		Name:     name,
		Keyword:  ToKeyword(name),
		Elements: elements,
	}
	r.modules[sectionID] = m
	observability.Resolve().OnModuleResolved(ctx, sectionID, len(elements))
	return m, nil
}

func isModuleCaption(lower string) bool {
	if strings.Contains(lower, "example") {
		return false
	}
	return strings.Contains(lower, "module attributes") ||
		strings.Contains(lower, "macro attributes") ||
		strings.Contains(lower, "module table")
}

// FetchIod resolves the IOD section sectionID. A table captioned "IOD
// modules" lists its modules and one captioned "group macros" lists its
// functional groups. The result is cached: later calls return the same *Iod.
func (r *Resolver) FetchIod(ctx context.Context, sectionID string) (*Iod, error) {
	if iod, ok := r.iods[sectionID]; ok {
		return iod, nil
	}

	_, section, err := r.table(ctx, r.opts.ModulesPart, sectionID)
	if err != nil {
		return nil, err
	}
	name := docbook.Title(section)
	r.logger.Debug("fetching IOD", "section", sectionID, "name", name)

	var modules, groups []ModuleElement
	for _, table := range docbook.Tables(section) {
		caption, ok := docbook.Caption(table)
		if !ok {
			continue
		}
		lower := strings.ToLower(caption)
		if strings.Contains(lower, "example") {
			continue
		}

		var target *[]ModuleElement
		switch {
		case strings.Contains(lower, "iod modules"):
			target = &modules
		case strings.Contains(lower, "group macros"):
			target = &groups
		default:
			continue
		}
		usages, err := r.fetchModuleUsages(ctx, table)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "IOD %q", name)
		}
		*target = append(*target, usages...)
	}

	if len(modules) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyIOD, "no modules found in IOD %q (%s)", name, sectionID)
	}

	iod := &Iod{
		ID:               sectionID,
		Name:             name,
		Keyword:          ToKeyword(name),
		Modules:          modules,
		FunctionalGroups: groups,
	}
	r.iods[sectionID] = iod
	observability.Resolve().OnIodResolved(ctx, sectionID, len(modules))
	return iod, nil
}

// fetchModuleUsages reads a modules table: one module per row, referenced
// by xref, with the usage found in whichever cell holds one. Usage defaults
// to mandatory.
func (r *Resolver) fetchModuleUsages(ctx context.Context, table *xmlquery.Node) ([]ModuleElement, error) {
	tableID := docbook.ID(table)

	var usages []ModuleElement
	for i, row := range docbook.Rows(table) {
		sectionID, ok := docbook.Link(row, "xref")
		if !ok || sectionID == "" {
			return nil, errors.New(errors.ErrCodeBrokenReference, "%s row %d has no module reference", tableID, i)
		}

		usage, condition := UsageMandatory, ""
		for _, c := range docbook.Cells(row) {
			if IsUsage(Text(c)) {
				usage, condition = ExtractUsage(c)
				break
			}
		}

		m, err := r.FetchModule(ctx, sectionID)
		if err != nil {
			return nil, err
		}
		usages = append(usages, ModuleElement{Module: m, Usage: usage, Condition: condition})
	}

	if len(usages) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyIOD, "no modules found in table %s", tableID)
	}
	return usages, nil
}
