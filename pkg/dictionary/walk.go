package dictionary

import "slices"

// Trail is the path from a tree root down to the element being visited:
// the elements entered so far and the tables they came from. The zero
// value is the empty trail at a root list.
type Trail struct {
	origins []string
	open    []*AttributeElement
}

// Allows reports whether e may be visited below the trail. Nesting inside
// the same table is always allowed; entering a table that is already on
// the trail, or an element that is already open, is not.
func (t Trail) Allows(e *AttributeElement) bool {
	if slices.Contains(t.open, e) {
		return false
	}
	if n := len(t.open); n > 0 && t.open[n-1].Origin == e.Origin {
		return true
	}
	return !slices.Contains(t.origins, e.Origin)
}

// Enter returns the trail below e.
func (t Trail) Enter(e *AttributeElement) Trail {
	return Trail{
		origins: append(slices.Clip(t.origins), e.Origin),
		open:    append(slices.Clip(t.open), e),
	}
}

// Depth returns the number of elements entered.
func (t Trail) Depth() int { return len(t.open) }

// Walk visits elements depth-first in document order, children after their
// parent. fn returns false to stop the walk; Walk then returns false.
func Walk(elements []*AttributeElement, fn func(e *AttributeElement, t Trail) bool) bool {
	return walk(elements, Trail{}, fn)
}

func walk(elements []*AttributeElement, t Trail, fn func(*AttributeElement, Trail) bool) bool {
	for _, e := range elements {
		if !t.Allows(e) {
			continue
		}
		if !fn(e, t) {
			return false
		}
		if len(e.Children) > 0 {
			if !walk(e.Children, t.Enter(e), fn) {
				return false
			}
		}
	}
	return true
}

// WalkIod visits the elements of every module and functional group of iod.
// Each module is walked from an empty trail.
func WalkIod(iod *Iod, fn func(m ModuleElement, e *AttributeElement, t Trail) bool) bool {
	for _, group := range [][]ModuleElement{iod.Modules, iod.FunctionalGroups} {
		for _, me := range group {
			if me.Module == nil {
				continue
			}
			ok := Walk(me.Module.Elements, func(e *AttributeElement, t Trail) bool {
				return fn(me, e, t)
			})
			if !ok {
				return false
			}
		}
	}
	return true
}
