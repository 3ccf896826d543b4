package tree

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleTree() *Mapping {
	return MappingFromAny(map[string]any{
		"menu": map[string]any{
			"page_size": 5,
			"auto_page": true,
		},
		"schema_list": []any{
			map[string]any{"schema": "luna_pinyin"},
		},
		"style": map[string]any{
			"font_face": "PingFang SC",
		},
	})
}

func TestGetWalksNestedMappings(t *testing.T) {
	root := sampleTree()

	got, ok := Get(root, "menu/page_size")
	if !ok {
		t.Fatalf("expected menu/page_size to resolve")
	}
	if !Equal(got, Int(5)) {
		t.Fatalf("expected 5, got %v", ToAny(got))
	}

	if _, ok := Get(root, "menu"); !ok {
		t.Fatalf("expected single segment path to resolve")
	}
}

func TestGetReportsAbsent(t *testing.T) {
	root := sampleTree()
	cases := []string{
		"missing",
		"menu/missing",
		"menu/page_size/deeper",
		"schema_list/0/schema",
	}
	for _, path := range cases {
		if v, ok := Get(root, path); ok {
			t.Fatalf("expected %q to be absent, got %v", path, ToAny(v))
		}
	}
	if _, ok := Get(nil, "menu"); ok {
		t.Fatalf("expected nil root to resolve nothing")
	}
}

func TestSetCreatesIntermediateMappings(t *testing.T) {
	root := NewMapping()
	Set(root, "ascii_composer/switch_key/Shift_L", String("commit_code"))

	want := map[string]any{
		"ascii_composer": map[string]any{
			"switch_key": map[string]any{"Shift_L": "commit_code"},
		},
	}
	if diff := cmp.Diff(want, ToAny(root)); diff != "" {
		t.Fatalf("unexpected tree (-want +got):\n%s", diff)
	}
}

func TestSetOverwritesStaleScalarWithMapping(t *testing.T) {
	root := MappingFromAny(map[string]any{"style": "plain"})
	Set(root, "style/font_point", Int(16))

	want := map[string]any{"style": map[string]any{"font_point": int64(16)}}
	if diff := cmp.Diff(want, ToAny(root)); diff != "" {
		t.Fatalf("stale scalar should be replaced by a mapping (-want +got):\n%s", diff)
	}
}

func TestSetOverwritesSequenceAtIntermediateSegment(t *testing.T) {
	root := sampleTree()
	Set(root, "schema_list/0", String("rime_ice"))

	got, ok := Get(root, "schema_list")
	if !ok || got.Kind() != KindMapping {
		t.Fatalf("expected sequence to be coerced into a mapping, got %v", ToAny(got))
	}
	if v, _ := Get(root, "schema_list/0"); !Equal(v, String("rime_ice")) {
		t.Fatalf("expected value written under coerced mapping, got %v", ToAny(v))
	}
}

func TestSetReplacesMappingWholesaleAtFinalSegment(t *testing.T) {
	root := sampleTree()
	Set(root, "menu", MappingFromAny(map[string]any{"page_size": 9}))

	want := map[string]any{"page_size": int64(9)}
	got, _ := Get(root, "menu")
	if diff := cmp.Diff(want, ToAny(got)); diff != "" {
		t.Fatalf("mapping should be replaced, not merged (-want +got):\n%s", diff)
	}
}

func TestSetPreservesKeyPosition(t *testing.T) {
	root := sampleTree()
	before := root.Keys()
	Set(root, "menu/page_size", Int(7))
	if diff := cmp.Diff(before, root.Keys()); diff != "" {
		t.Fatalf("top-level key order changed (-want +got):\n%s", diff)
	}
}

func TestDeleteRemovesLeaf(t *testing.T) {
	root := sampleTree()
	if !Delete(root, "menu/auto_page") {
		t.Fatalf("expected delete to report removal")
	}
	if _, ok := Get(root, "menu/auto_page"); ok {
		t.Fatalf("expected leaf removed")
	}
	if Delete(root, "menu/auto_page") {
		t.Fatalf("second delete should report nothing removed")
	}
	if Delete(root, "style/font_face/x") {
		t.Fatalf("delete through scalar should report nothing removed")
	}
}

func TestFlattenStopsAtSequences(t *testing.T) {
	flat := Flatten(sampleTree(), "")

	want := map[string]any{
		"menu/page_size":  int64(5),
		"menu/auto_page":  true,
		"schema_list":     []any{map[string]any{"schema": "luna_pinyin"}},
		"style/font_face": "PingFang SC",
	}
	if diff := cmp.Diff(want, ToAny(flat)); diff != "" {
		t.Fatalf("unexpected flat mapping (-want +got):\n%s", diff)
	}
}

func TestFlattenWithPrefix(t *testing.T) {
	flat := Flatten(MappingFromAny(map[string]any{"a": map[string]any{"b": 1}}), "root")
	if _, ok := flat.Get("root/a/b"); !ok {
		t.Fatalf("expected prefixed key, got %v", flat.Keys())
	}
}

func TestUnflattenInvertsFlatten(t *testing.T) {
	original := sampleTree()
	rebuilt := Unflatten(Flatten(original, ""))
	if !Equal(original, rebuilt) {
		t.Fatalf("unflatten(flatten(x)) != x:\nwant %v\n got %v", ToAny(original), ToAny(rebuilt))
	}
}

func TestLastSegment(t *testing.T) {
	cases := map[string]string{
		"back_color":                           "back_color",
		"preset_color_schemes/aqua/back_color": "back_color",
		"style/":                               "",
	}
	for in, want := range cases {
		if got := LastSegment(in); got != want {
			t.Fatalf("LastSegment(%q) = %q, want %q", in, got, want)
		}
	}
}
