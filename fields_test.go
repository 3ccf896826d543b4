package rimepatch

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-rimepatch/tree"
)

func TestDescribeListsLeaves(t *testing.T) {
	base := tree.NewMapping()
	base.Put("style", tree.MappingFromAny(map[string]any{
		"back_color": "0xFF8800",
		"font_point": 14,
		"inline":     map[string]any{},
	}))
	base.Put("schema_list", tree.FromAny([]any{map[string]any{"schema": "luna_pinyin"}}))
	patch := tree.MappingFromAny(map[string]any{"style/font_point": 16})

	want := []FieldDescriptor{
		{Path: "style/back_color", Type: "string", Color: true},
		{Path: "style/font_point", Type: "int", Overridden: true},
		{Path: "style/inline", Type: "mapping"},
		{Path: "schema_list", Type: "[]mapping"},
	}
	if diff := cmp.Diff(want, Describe(base, patch)); diff != "" {
		t.Fatalf("unexpected descriptors (-want +got):\n%s", diff)
	}
}

func TestDescribeEmpty(t *testing.T) {
	if got := Describe(nil, nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty, non-nil slice, got %#v", got)
	}
}
