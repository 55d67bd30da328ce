package dictionary

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/dcmdict/pkg/docbook"
	"github.com/matzehuels/dcmdict/pkg/errors"
	"github.com/matzehuels/dcmdict/pkg/observability"
)

// wildcardAttribute backs [WildcardTag].
var wildcardAttribute = Attribute{
	Tag:     WildcardTag,
	Name:    "Any",
	Keyword: "Any",
	VR:      Undefined,
	VM:      Undefined,
}

// ParseAttributes builds the data dictionary from the configured attribute
// registries and installs it in the resolver.
//
// Rows are read as Tag | Name | Keyword | VR | VM | [Description]. A row
// whose sixth column starts with "RET" is retired; a retired tag stays out
// of the dictionary even if a later source lists it again. Otherwise later
// rows replace earlier ones for the same tag. The wildcard attribute is
// always present.
func (r *Resolver) ParseAttributes(ctx context.Context) (*AttributeTable, error) {
	start := time.Now()
	attributes := make(map[Tag]Attribute)
	retired := make(map[Tag]bool)
	vrs := make(map[string]bool)
	vms := make(map[string]bool)

	for _, src := range r.opts.AttributeSources {
		for _, id := range src.Tables {
			_, table, err := r.table(ctx, src.Part, id)
			if err != nil {
				return nil, err
			}
			for i, row := range docbook.Rows(table) {
				cells := docbook.Cells(row)
				if len(cells) < 5 {
					r.skipRow(ctx, id, i, "fewer than five columns")
					continue
				}

				tag, err := ExtractTag(cells[0])
				if err != nil {
					return nil, errors.Wrap(errors.ErrCodeMalformedTag, err, "%s row %d", id, i)
				}

				description := ""
				if len(cells) > 5 {
					description = Text(cells[5])
					if strings.EqualFold(prefix(description, 3), "RET") {
						retired[tag] = true
						continue
					}
				}

				attr := Attribute{
					Tag:         tag,
					Name:        Text(cells[1]),
					Keyword:     Text(cells[2]),
					VR:          ExtractVR(cells[3]),
					VM:          ExtractVM(cells[4]),
					Description: description,
				}
				attributes[tag] = attr

				if attr.VR != Invalid {
					vrs[attr.VR] = true
				}
				if attr.VM != Invalid {
					vms[attr.VM] = true
				}
			}
		}
	}

	for tag := range retired {
		delete(attributes, tag)
	}
	attributes[WildcardTag] = wildcardAttribute

	r.attributes = &AttributeTable{
		Attributes: attributes,
		VRs:        sortedKeys(vrs),
		VMs:        sortedKeys(vms),
	}
	r.logger.Info("parsed attributes",
		"attributes", len(attributes),
		"retired", len(retired),
		"vrs", len(vrs),
		"vms", len(vms),
		"duration", time.Since(start))
	return r.attributes, nil
}

// ParseUids builds the UID registry and installs it in the resolver.
// Rows are read as Value | Name | Keyword | Type; rows whose name mentions
// "retired" are dropped.
func (r *Resolver) ParseUids(ctx context.Context) (*UidTable, error) {
	start := time.Now()
	_, table, err := r.table(ctx, r.opts.RegistryPart, r.opts.UidTable)
	if err != nil {
		return nil, err
	}

	uids := make(map[string]Uid)
	types := make(map[string]bool)
	for i, row := range docbook.Rows(table) {
		cells := docbook.Cells(row)
		if len(cells) < 4 {
			r.skipRow(ctx, r.opts.UidTable, i, "fewer than four columns")
			continue
		}

		name := Text(cells[1])
		if strings.Contains(strings.ToLower(name), "retired") {
			continue
		}

		uidType := Text(cells[3])
		types[uidType] = true

		value, err := ExtractUID(cells[0])
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidUID, err, "%s row %d", r.opts.UidTable, i)
		}
		uids[value] = Uid{
			Value:   value,
			Name:    name,
			Keyword: Text(cells[2]),
			Type:    uidType,
		}
	}

	r.uids = &UidTable{Uids: uids, Types: sortedKeys(types)}
	r.logger.Info("parsed UIDs",
		"uids", len(uids),
		"types", len(types),
		"duration", time.Since(start))
	return r.uids, nil
}

// skipRow logs a tolerated irregularity.
func (r *Resolver) skipRow(ctx context.Context, table string, row int, reason string) {
	r.logger.Warn("skipping row", "table", table, "row", row, "reason", reason)
	observability.Resolve().OnRowSkipped(ctx, table, reason)
}

func prefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
