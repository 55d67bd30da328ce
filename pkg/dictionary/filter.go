package dictionary

import "slices"

// Filtered is the part of the dictionary reachable from a set of SOP
// classes. IODs and modules are keyed by keyword and attributes by tag;
// each list keeps first-seen order, and a later entry with the same key
// replaces the earlier one in place.
type Filtered struct {
	Sops       []Sop
	Iods       []*Iod
	Modules    []*Module
	Attributes []Attribute
	Types      []string // attribute element types, sorted

	iodIndex       map[string]int
	moduleIndex    map[string]int
	attributeIndex map[Tag]int
}

// Filter computes the reachability closure of sops. It only reads the
// resolved model and may be called any number of times.
func Filter(sops []Sop) *Filtered {
	f := &Filtered{
		Sops:           slices.Clone(sops),
		iodIndex:       make(map[string]int),
		moduleIndex:    make(map[string]int),
		attributeIndex: make(map[Tag]int),
	}
	types := make(map[string]bool)

	for _, sop := range sops {
		if sop.Iod == nil {
			continue
		}
		f.addIod(sop.Iod)
		for _, group := range [][]ModuleElement{sop.Iod.Modules, sop.Iod.FunctionalGroups} {
			for _, me := range group {
				if me.Module != nil {
					f.addModule(me.Module)
				}
			}
		}
		WalkIod(sop.Iod, func(_ ModuleElement, e *AttributeElement, _ Trail) bool {
			f.addAttribute(e.Attribute)
			types[e.Type] = true
			return true
		})
	}

	f.Types = sortedKeys(types)
	return f
}

func (f *Filtered) addIod(iod *Iod) {
	if i, ok := f.iodIndex[iod.Keyword]; ok {
		f.Iods[i] = iod
		return
	}
	f.iodIndex[iod.Keyword] = len(f.Iods)
	f.Iods = append(f.Iods, iod)
}

func (f *Filtered) addModule(m *Module) {
	if i, ok := f.moduleIndex[m.Keyword]; ok {
		f.Modules[i] = m
		return
	}
	f.moduleIndex[m.Keyword] = len(f.Modules)
	f.Modules = append(f.Modules, m)
}

func (f *Filtered) addAttribute(a Attribute) {
	if i, ok := f.attributeIndex[a.Tag]; ok {
		f.Attributes[i] = a
		return
	}
	f.attributeIndex[a.Tag] = len(f.Attributes)
	f.Attributes = append(f.Attributes, a)
}

// Iod returns the filtered IOD with the given keyword.
func (f *Filtered) Iod(keyword string) (*Iod, bool) {
	i, ok := f.iodIndex[keyword]
	if !ok {
		return nil, false
	}
	return f.Iods[i], true
}

// Module returns the filtered module with the given keyword.
func (f *Filtered) Module(keyword string) (*Module, bool) {
	i, ok := f.moduleIndex[keyword]
	if !ok {
		return nil, false
	}
	return f.Modules[i], true
}

// Attribute returns the filtered attribute with the given tag.
func (f *Filtered) Attribute(tag Tag) (Attribute, bool) {
	i, ok := f.attributeIndex[tag]
	if !ok {
		return Attribute{}, false
	}
	return f.Attributes[i], true
}

// Sop returns the filtered SOP class with the given UID value.
func (f *Filtered) Sop(uid string) (Sop, bool) {
	for _, s := range f.Sops {
		if s.Uid.Value == uid {
			return s, true
		}
	}
	return Sop{}, false
}
