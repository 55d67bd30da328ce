package dictionary

import "cmp"

// Sentinel values for fields the documentation leaves empty or ambiguous.
const (
	Invalid   = "INVALID"
	Undefined = "UNDEFINED"
)

// Tag identifies a standard attribute by its group and element.
// Both halves are four hex digits as written in the standard, with the
// repeating-group placeholder x mapped to 0.
type Tag struct {
	Group   string `json:"group"`
	Element string `json:"element"`
}

// Well-known tags.
var (
	// WildcardTag stands for "any attribute" in containers accepting
	// arbitrary content.
	WildcardTag = Tag{Group: "xxxx", Element: "xxxx"}

	SharedFunctionalGroupsSequence   = Tag{Group: "5200", Element: "9229"}
	PerFrameFunctionalGroupsSequence = Tag{Group: "5200", Element: "9230"}
)

// String renders the tag as (gggg,eeee).
func (t Tag) String() string {
	return "(" + t.Group + "," + t.Element + ")"
}

// Compare orders tags by group, then element.
func (t Tag) Compare(o Tag) int {
	if c := cmp.Compare(t.Group, o.Group); c != 0 {
		return c
	}
	return cmp.Compare(t.Element, o.Element)
}

// IsFunctionalGroupSequence reports whether t is one of the two sequences
// holding functional group macros.
func (t Tag) IsFunctionalGroupSequence() bool {
	return t == SharedFunctionalGroupsSequence || t == PerFrameFunctionalGroupsSequence
}

// Attribute is one entry of the data dictionary.
type Attribute struct {
	Tag         Tag    `json:"tag"`
	Name        string `json:"name"`
	Keyword     string `json:"keyword"`
	VR          string `json:"vr"`
	VM          string `json:"vm"`
	Description string `json:"description,omitempty"`
}

// ElementTypes is the set of attribute requirement types.
var ElementTypes = map[string]bool{
	"1":  true,
	"1C": true,
	"2":  true,
	"2C": true,
	"3":  true,
}

// AttributeElement is one row of a module or macro table.
// Origin is the id of the table the row was read from.
type AttributeElement struct {
	Attribute   Attribute           `json:"attribute"`
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Children    []*AttributeElement `json:"children,omitempty"`
	Origin      string              `json:"origin"`
}

// Module is a resolved module or macro section. Modules are shared by
// reference between every IOD that includes them.
type Module struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Keyword  string              `json:"keyword"`
	Elements []*AttributeElement `json:"elements"`
}

// Usage is the requirement of a module within an IOD.
type Usage string

const (
	UsageMandatory    Usage = "M"
	UsageUserOptional Usage = "U"
	UsageConditional  Usage = "C"
)

// ModuleElement is a module included by an IOD.
type ModuleElement struct {
	Module    *Module `json:"module"`
	Usage     Usage   `json:"usage"`
	Condition string  `json:"condition,omitempty"`
}

// Iod is a resolved information object definition. Modules and
// FunctionalGroups are disjoint: the latter apply per frame or per item.
type Iod struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Keyword          string          `json:"keyword"`
	Modules          []ModuleElement `json:"modules"`
	FunctionalGroups []ModuleElement `json:"functional_groups,omitempty"`
}

// Uid is a registered, non-retired unique identifier.
type Uid struct {
	Value   string `json:"value"`
	Name    string `json:"name"`
	Keyword string `json:"keyword"`
	Type    string `json:"type"`
}

// Sop is a SOP class linked to its IOD.
type Sop struct {
	Uid Uid  `json:"uid"`
	Iod *Iod `json:"iod"`
}

// AttributeTable is the parsed data dictionary.
type AttributeTable struct {
	Attributes map[Tag]Attribute
	VRs        []string // distinct valid VR codes, sorted
	VMs        []string // distinct valid VM codes, sorted
}

// UidTable is the parsed UID registry.
type UidTable struct {
	Uids  map[string]Uid
	Types []string // distinct UID types, sorted
}
