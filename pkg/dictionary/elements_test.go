package dictionary

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/dcmdict/pkg/errors"
)

func names(elements []*AttributeElement) []string {
	out := make([]string, len(elements))
	for i, e := range elements {
		out[i] = e.Attribute.Name
	}
	return out
}

func TestFetchAttributesNesting(t *testing.T) {
	r := newParsedResolver(t, nil)
	elements, err := r.FetchAttributes(context.Background(), "table_C.2-1")
	if err != nil {
		t.Fatalf("FetchAttributes: %v", err)
	}

	if len(elements) != 3 {
		t.Fatalf("root elements = %v, want 3", names(elements))
	}
	name, seq, wildcard := elements[0], elements[1], elements[2]

	if name.Attribute.Tag != tagPatientName || name.Type != "2" || name.Description != "Patient's full name." || name.Origin != "table_C.2-1" {
		t.Errorf("first element = %+v", name)
	}
	if wildcard.Attribute.Tag != WildcardTag || wildcard.Type != "3" {
		t.Errorf("any-attribute row = %+v, want wildcard of type 3", wildcard)
	}

	if len(seq.Children) != 1 {
		t.Fatalf("sequence children = %v, want the spliced macro", names(seq.Children))
	}
	uid := seq.Children[0]
	if uid.Attribute.Tag != tagSeriesInstanceUID || uid.Origin != "table_C.3-1" {
		t.Errorf("spliced element = %+v", uid)
	}
	if len(uid.Children) != 1 || uid.Children[0].Attribute.Tag != tagSliceThickness || uid.Children[0].Type != "1C" {
		t.Errorf("macro nesting lost: %v", names(uid.Children))
	}
	if maxDepth(elements) != 3 {
		t.Errorf("max depth = %d, want 3", maxDepth(elements))
	}
}

func TestFetchAttributesCaches(t *testing.T) {
	r := newParsedResolver(t, nil)
	ctx := context.Background()

	first, err := r.FetchAttributes(ctx, "table_C.3-1")
	if err != nil {
		t.Fatalf("FetchAttributes: %v", err)
	}
	second, err := r.FetchAttributes(ctx, "table_C.3-1")
	if err != nil {
		t.Fatalf("FetchAttributes: %v", err)
	}
	if len(first) == 0 || &first[0] != &second[0] {
		t.Error("second fetch should return the cached slice")
	}
}

func TestFetchAttributesCycles(t *testing.T) {
	tests := []struct {
		name      string
		table     string
		wantRoots []string
		wantDepth int
	}{
		{"self including macro", "table_C.4-1", []string{"Value Type"}, 1},
		{"two table chain", "table_C.5-1", []string{"Value Type"}, 2},
		{"chain from the other end", "table_C.6-1", []string{"Series Instance UID"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newParsedResolver(t, nil)
			elements, err := r.FetchAttributes(context.Background(), tt.table)
			if err != nil {
				t.Fatalf("FetchAttributes: %v", err)
			}
			if got := names(elements); len(got) != len(tt.wantRoots) || got[0] != tt.wantRoots[0] {
				t.Errorf("roots = %v, want %v", got, tt.wantRoots)
			}
			if got := maxDepth(elements); got != tt.wantDepth {
				t.Errorf("depth = %d, want %d", got, tt.wantDepth)
			}
			if len(r.active) != 0 {
				t.Errorf("active tables left behind: %v", r.active)
			}
		})
	}
}

// outline lists every element of a tree, indented by depth.
func outline(elements []*AttributeElement) []string {
	var out []string
	var visit func([]*AttributeElement, int)
	visit = func(list []*AttributeElement, depth int) {
		for _, e := range list {
			out = append(out, strings.Repeat("  ", depth)+e.Attribute.Tag.String())
			visit(e.Children, depth+1)
		}
	}
	visit(elements, 0)
	return out
}

func TestFetchAttributesCycleOrder(t *testing.T) {
	tests := []struct {
		name   string
		before []string
		table  string
	}{
		{"chain end after chain start", []string{"table_C.5-1"}, "table_C.6-1"},
		{"chain start after chain end", []string{"table_C.6-1"}, "table_C.5-1"},
		{"self including after chain", []string{"table_C.5-1", "table_C.6-1"}, "table_C.4-1"},
		{"repeated fetch", []string{"table_C.5-1"}, "table_C.5-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			fresh, err := newParsedResolver(t, nil).FetchAttributes(ctx, tt.table)
			if err != nil {
				t.Fatalf("FetchAttributes: %v", err)
			}

			r := newParsedResolver(t, nil)
			for _, id := range tt.before {
				if _, err := r.FetchAttributes(ctx, id); err != nil {
					t.Fatalf("FetchAttributes(%s): %v", id, err)
				}
			}
			got, err := r.FetchAttributes(ctx, tt.table)
			if err != nil {
				t.Fatalf("FetchAttributes: %v", err)
			}

			if want := outline(fresh); !slices.Equal(outline(got), want) {
				t.Errorf("%s after %v =\n%s\nwant\n%s", tt.table, tt.before,
					strings.Join(outline(got), "\n"), strings.Join(want, "\n"))
			}
		})
	}
}

func TestFetchAttributesCachesCutTableAtTop(t *testing.T) {
	r := newParsedResolver(t, nil)
	ctx := context.Background()

	first, err := r.FetchAttributes(ctx, "table_C.5-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.elements["table_C.6-1"]; ok {
		t.Error("table cut below the top of the path should not be cached")
	}
	if !r.cut["table_C.5-1"] {
		t.Error("table_C.5-1 should be marked as cut")
	}

	second, err := r.FetchAttributes(ctx, "table_C.5-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(first) == 0 || &first[0] != &second[0] {
		t.Error("top level fetch should reuse the cached tree")
	}
	if got := outline(second); len(got) != 2 || got[1] != "  "+tagSeriesInstanceUID.String() {
		t.Errorf("outline = %v, want Value Type with Series Instance UID below", got)
	}
}

func TestFetchAttributesCopiesSplicedParents(t *testing.T) {
	r := newParsedResolver(t, nil)
	ctx := context.Background()

	macro, err := r.FetchAttributes(ctx, "table_C.3-1")
	if err != nil {
		t.Fatalf("FetchAttributes: %v", err)
	}
	spliced, err := r.FetchAttributes(ctx, "table_C.9-1")
	if err != nil {
		t.Fatalf("FetchAttributes: %v", err)
	}

	if len(macro[0].Children) != 1 {
		t.Errorf("cached macro element mutated: %v", names(macro[0].Children))
	}
	if len(spliced) != 1 || spliced[0] == macro[0] {
		t.Fatalf("spliced parent should be a copy")
	}
	got := names(spliced[0].Children)
	if len(got) != 2 || got[0] != "Slice Thickness" || got[1] != "Patient's Name" {
		t.Errorf("copy children = %v", got)
	}

	visited := 0
	Walk(spliced, func(*AttributeElement, Trail) bool {
		visited++
		return true
	})
	if visited != 3 {
		t.Errorf("walk visited %d elements, want 3", visited)
	}
}

func TestFetchAttributesSkippedRows(t *testing.T) {
	hooks := recordHooks(t)
	r := newParsedResolver(t, nil)
	ctx := context.Background()

	elements, err := r.FetchAttributes(ctx, "table_C.10-1")
	if err != nil {
		t.Fatalf("FetchAttributes: %v", err)
	}
	if len(elements) != 1 {
		t.Errorf("elements = %v, want only Value Type", names(elements))
	}
	if hooks.skipped["table_C.10-1"] != 2 {
		t.Errorf("skipped = %d, want 2 (missing reference and unrecognized row)", hooks.skipped["table_C.10-1"])
	}

	for _, id := range []string{"table_C.2-1", "table_C.7-1"} {
		if _, err := r.FetchAttributes(ctx, id); err != nil {
			t.Fatalf("FetchAttributes(%s): %v", id, err)
		}
		if hooks.skipped[id] != 0 {
			t.Errorf("%s: caption and functional group rows should be skipped silently", id)
		}
	}
}

func TestFetchAttributesErrors(t *testing.T) {
	tests := []struct {
		name  string
		table string
		parse bool
		want  errors.Code
	}{
		{"unknown attribute", "table_C.11-1", true, errors.ErrCodeUnknownAttribute},
		{"missing table", "table_X-1", true, errors.ErrCodeMissingElement},
		{"attributes not parsed", "table_C.1-1", false, errors.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r *Resolver
			if tt.parse {
				r = newParsedResolver(t, nil)
			} else {
				r = newTestResolver(t, corpus(), nil)
			}
			_, err := r.FetchAttributes(context.Background(), tt.table)
			if !errors.Is(err, tt.want) {
				t.Errorf("FetchAttributes() error = %v, want %s", err, tt.want)
			}
		})
	}
}
