package dictionary

import (
	"context"
	"time"

	"github.com/antchfx/xmlquery"

	"github.com/matzehuels/dcmdict/pkg/docbook"
	"github.com/matzehuels/dcmdict/pkg/errors"
)

// ParseSopClasses reads the SOP class tables. Each row is read as
// Name | UID | IOD reference; the UID must be in the registry and the IOD
// reference is an olink into the modules part. Rows are dropped when the
// UID matches no SOP pattern or the IOD reaches no mandatory tag. The
// result holds one Sop per UID in first-seen order.
func (r *Resolver) ParseSopClasses(ctx context.Context) ([]Sop, error) {
	if r.uids == nil {
		return nil, errors.New(errors.ErrCodeInternal, "UIDs must be parsed before SOP classes")
	}
	start := time.Now()

	var sops []Sop
	index := make(map[string]int)

	for _, id := range r.opts.SopTables {
		_, table, err := r.table(ctx, r.opts.SopsPart, id)
		if err != nil {
			return nil, err
		}

		for i, row := range docbook.Rows(table) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			cells := docbook.Cells(row)
			if len(cells) < 3 {
				continue
			}

			value := Text(cells[1])
			uid, ok := r.uids.Uids[value]
			if !ok {
				r.skipRow(ctx, id, i, "UID "+value+" not in registry")
				continue
			}
			if !r.MatchesSopPatterns(uid.Value) {
				r.logger.Debug("SOP class filtered by pattern", "uid", uid.Value)
				continue
			}

			target, found := iodReference(row, cells[2])
			if !found || target == "" {
				return nil, errors.New(errors.ErrCodeBrokenReference, "%s row %d has no IOD reference", id, i)
			}

			iod, err := r.FetchIod(ctx, target)
			if err != nil {
				return nil, errors.Wrap(errors.GetCode(err), err, "SOP class %s", uid.Name)
			}

			sop := Sop{Uid: uid, Iod: iod}
			if !r.CheckMandatoryTags(sop) {
				r.logger.Debug("SOP class filtered by mandatory tags", "uid", uid.Value)
				continue
			}

			r.logger.Debug("adding SOP class", "uid", uid.Value, "name", uid.Name)
			if at, dup := index[uid.Value]; dup {
				sops[at] = sop
				continue
			}
			index[uid.Value] = len(sops)
			sops = append(sops, sop)
		}
	}

	r.logger.Info("parsed SOP classes",
		"sops", len(sops),
		"iods", len(r.iods),
		"modules", len(r.modules),
		"tables", len(r.elements),
		"duration", time.Since(start))
	return sops, nil
}

// iodReference returns the olink target in the IOD paragraph of a SOP
// class row. Some rows carry the olink directly inside a td instead; the
// fallback reads only that level, never links inside paragraph text.
func iodReference(row, para *xmlquery.Node) (string, bool) {
	if olink := docbook.Child(para, "olink"); olink != nil {
		return docbook.Attr(olink, "targetptr"), true
	}
	for _, td := range docbook.Children(row, "td") {
		if olink := docbook.Child(td, "olink"); olink != nil {
			return docbook.Attr(olink, "targetptr"), true
		}
	}
	return "", false
}

// MatchesSopPatterns reports whether uid passes the SOP pattern allowlist.
// Without patterns every UID passes.
func (r *Resolver) MatchesSopPatterns(uid string) bool {
	if len(r.patterns) == 0 {
		return true
	}
	for _, g := range r.patterns {
		if g.Match(uid) {
			return true
		}
	}
	return false
}

// CheckMandatoryTags reports whether any element reachable from the
// modules or functional groups of the SOP's IOD carries a mandatory tag.
// Without mandatory tags every SOP passes.
func (r *Resolver) CheckMandatoryTags(sop Sop) bool {
	if len(r.mandatory) == 0 {
		return true
	}
	if sop.Iod == nil {
		return false
	}
	found := false
	WalkIod(sop.Iod, func(_ ModuleElement, e *AttributeElement, _ Trail) bool {
		found = r.mandatory[e.Attribute.Tag]
		return !found
	})
	return found
}
