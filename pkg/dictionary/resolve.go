package dictionary

import (
	"context"
	"time"
)

// Result is the outcome of a complete resolution.
type Result struct {
	Attributes *AttributeTable
	Uids       *UidTable
	Sops       []Sop
	Filtered   *Filtered
	Duration   time.Duration
}

// Resolve runs a complete resolution: attribute registries, UID registry,
// SOP classes with their IODs, modules and tables, then the reachability
// filter.
func (r *Resolver) Resolve(ctx context.Context) (*Result, error) {
	start := time.Now()

	attributes, err := r.ParseAttributes(ctx)
	if err != nil {
		return nil, err
	}
	uids, err := r.ParseUids(ctx)
	if err != nil {
		return nil, err
	}
	sops, err := r.ParseSopClasses(ctx)
	if err != nil {
		return nil, err
	}

	filtered := Filter(sops)
	r.logger.Info("filtered dictionary",
		"sops", len(filtered.Sops),
		"iods", len(filtered.Iods),
		"modules", len(filtered.Modules),
		"attributes", len(filtered.Attributes))

	return &Result{
		Attributes: attributes,
		Uids:       uids,
		Sops:       sops,
		Filtered:   filtered,
		Duration:   time.Since(start),
	}, nil
}
