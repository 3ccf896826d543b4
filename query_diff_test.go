package rimepatch

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-rimepatch/tree"
)

func TestQuerySelectsValues(t *testing.T) {
	doc := tree.MappingFromAny(map[string]any{
		"schema_list": []any{
			map[string]any{"schema": "luna_pinyin"},
			map[string]any{"schema": "rime_ice"},
		},
		"menu": map[string]any{"page_size": 5},
	})

	got, err := Query(doc, "$.schema_list[*].schema")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if diff := cmp.Diff([]any{"luna_pinyin", "rime_ice"}, got); diff != "" {
		t.Fatalf("unexpected matches (-want +got):\n%s", diff)
	}

	none, err := Query(doc, "$.missing")
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no matches, got %v %v", none, err)
	}
	if _, err := Query(doc, "$[?("); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDiffPreview(t *testing.T) {
	if d := DiffPreview("x", "same\n", "same\n"); d.Changed() || d.Text != "" {
		t.Fatalf("identical inputs should not differ: %+v", d)
	}

	before := "patch:\n  menu/page_size: 5\n"
	after := "patch:\n  menu/page_size: 9\n  style/font_face: Hei\n"
	d := DiffPreview("", before, after)
	if d.Additions != 2 || d.Deletions != 1 {
		t.Fatalf("unexpected counts %+v", d)
	}
	want := " patch:\n-  menu/page_size: 5\n+  menu/page_size: 9\n+  style/font_face: Hei\n"
	if d.Text != want {
		t.Fatalf("unexpected diff text:\n%s", d.Text)
	}
}
