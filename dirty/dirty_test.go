package dirty

import (
	"testing"

	"github.com/goliatone/go-rimepatch/layering"
	"github.com/goliatone/go-rimepatch/tree"
)

func TestIsDirtyIdempotent(t *testing.T) {
	patch := tree.MappingFromAny(map[string]any{
		"menu/page_size":   9,
		"switcher/hotkeys": []any{"F4"},
	})
	if IsDirty(patch, patch) {
		t.Fatalf("a patch must never be dirty against itself")
	}
	if IsDirty(patch, tree.CloneMapping(patch)) {
		t.Fatalf("a patch must never be dirty against its clone")
	}
}

func TestIsDirtyDetectsChanges(t *testing.T) {
	saved := tree.MappingFromAny(map[string]any{"menu/page_size": 5})
	cases := map[string]*tree.Mapping{
		"value":     tree.MappingFromAny(map[string]any{"menu/page_size": 6}),
		"added key": tree.MappingFromAny(map[string]any{"menu/page_size": 5, "style/font_point": 14}),
		"empty":     tree.NewMapping(),
		"kind":      tree.MappingFromAny(map[string]any{"menu/page_size": "5"}),
	}
	for name, current := range cases {
		if !IsDirty(current, saved) {
			t.Fatalf("%s: expected dirty", name)
		}
	}
}

func TestRemoveAndReAddIsClean(t *testing.T) {
	base := tree.MappingFromAny(map[string]any{"style": map[string]any{"font_face": "A"}})
	saved := tree.MappingFromAny(map[string]any{"style/font_face": "B"})
	tracker := NewTracker(saved)

	current := tree.CloneMapping(saved)
	current.Delete("style/font_face")
	if !tracker.IsDirty(current) {
		t.Fatalf("expected removal to be dirty")
	}
	effective := layering.Merge(base, current)
	if v, _ := tree.Get(effective, "style/font_face"); !tree.Equal(v, tree.String("A")) {
		t.Fatalf("expected base value after removal, got %v", v)
	}

	current.Put("style/font_face", tree.String("B"))
	if tracker.IsDirty(current) {
		t.Fatalf("re-adding the saved value must be clean")
	}
}

func TestTrackerMark(t *testing.T) {
	tracker := NewTracker(nil)
	if tracker.IsDirty(tree.NewMapping()) {
		t.Fatalf("empty patch should be clean against nothing saved")
	}
	current := tree.MappingFromAny(map[string]any{"menu/page_size": 9})
	if !tracker.IsDirty(current) {
		t.Fatalf("expected dirty before mark")
	}
	tracker.Mark(current)
	if tracker.IsDirty(current) {
		t.Fatalf("expected clean after mark")
	}
	current.Put("menu/page_size", tree.Int(10))
	if !tracker.IsDirty(current) {
		t.Fatalf("mark must snapshot, not alias")
	}
	if v, _ := tracker.Saved().Get("menu/page_size"); !tree.Equal(v, tree.Int(9)) {
		t.Fatalf("unexpected saved value %v", v)
	}
}

type phrase struct {
	Text string
	Code string
}

func TestRecordsEqual(t *testing.T) {
	eq := func(a, b phrase) bool { return a == b }
	a := []phrase{{"你好", "nihao"}, {"再见", "zaijian"}}

	if !RecordsEqual(a, []phrase{{"你好", "nihao"}, {"再见", "zaijian"}}, eq) {
		t.Fatalf("expected equal lists")
	}
	if RecordsEqual(a, []phrase{{"再见", "zaijian"}, {"你好", "nihao"}}, eq) {
		t.Fatalf("reordering must count as a change")
	}
	if RecordsEqual(a, a[:1], eq) {
		t.Fatalf("different lengths must be unequal")
	}
	if !RecordsEqual[phrase](nil, []phrase{}, eq) {
		t.Fatalf("nil and empty lists should be equal")
	}
}
