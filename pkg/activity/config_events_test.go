package activity

import "testing"

func TestBuildOverrideSetEventCarriesValues(t *testing.T) {
	evt := BuildOverrideSetEvent(ConfigEventInput{
		Document: " default ",
		Path:     "menu/page_size",
		OldValue: int64(5),
		NewValue: int64(9),
		Metadata: map[string]any{"source": "cli"},
	})

	if evt.Verb != VerbOverrideSet || evt.ObjectType != ObjectConfig || evt.ObjectID != "default" {
		t.Fatalf("unexpected event identity: %+v", evt)
	}
	if evt.Path != "menu/page_size" {
		t.Fatalf("expected path, got %q", evt.Path)
	}
	if evt.Metadata["old_value"] != int64(5) || evt.Metadata["new_value"] != int64(9) || evt.Metadata["source"] != "cli" {
		t.Fatalf("unexpected metadata: %+v", evt.Metadata)
	}
}

func TestBuildEventsDoNotMutateInputMetadata(t *testing.T) {
	meta := map[string]any{"etag": "v1"}
	evt := BuildPatchSavedEvent(ConfigEventInput{Document: "squirrel", NewValue: "patch: {}\n", Metadata: meta})
	if _, ok := meta["new_value"]; ok {
		t.Fatalf("input metadata was mutated: %+v", meta)
	}
	if evt.Metadata["etag"] != "v1" {
		t.Fatalf("expected metadata copied, got %+v", evt.Metadata)
	}
}

func TestBuildEventVerbs(t *testing.T) {
	input := ConfigEventInput{Document: "weasel"}
	cases := []struct {
		evt  Event
		verb string
	}{
		{BuildOverrideRemovedEvent(input), VerbOverrideRemoved},
		{BuildPatchReplacedEvent(input), VerbPatchReplaced},
		{BuildPatchDiscardedEvent(input), VerbPatchDiscarded},
		{BuildPatchSavedEvent(input), VerbPatchSaved},
		{BuildConfigDeployedEvent(input), VerbConfigDeployed},
	}
	for _, tc := range cases {
		if tc.evt.Verb != tc.verb {
			t.Fatalf("expected verb %s, got %s", tc.verb, tc.evt.Verb)
		}
		if tc.evt.Metadata != nil {
			t.Fatalf("expected no metadata for bare input, got %+v", tc.evt.Metadata)
		}
	}
}

func TestBuildPhrasesSavedEventDefaultsObjectID(t *testing.T) {
	evt := BuildPhrasesSavedEvent(ConfigEventInput{})
	if evt.ObjectType != ObjectPhrases || evt.ObjectID != ObjectPhrases {
		t.Fatalf("unexpected phrases event: %+v", evt)
	}
}
