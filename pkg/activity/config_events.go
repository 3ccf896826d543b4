package activity

import (
	"strings"
	"time"
)

// Object types.
const (
	ObjectConfig  = "config"
	ObjectPhrases = "phrases"
)

// Verbs emitted by editing sessions.
const (
	VerbOverrideSet     = "override.set"
	VerbOverrideRemoved = "override.removed"
	VerbPatchReplaced   = "patch.replaced"
	VerbPatchDiscarded  = "patch.discarded"
	VerbPatchSaved      = "patch.saved"
	VerbConfigDeployed  = "config.deployed"
	VerbPhrasesSaved    = "phrases.saved"
)

// ConfigEventInput describes the common fields of document lifecycle events.
type ConfigEventInput struct {
	Document   string
	Channel    string
	Path       string
	OldValue   any
	NewValue   any
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildOverrideSetEvent records a value written at a patch path.
func BuildOverrideSetEvent(input ConfigEventInput) Event {
	return buildConfigEvent(VerbOverrideSet, ObjectConfig, input)
}

// BuildOverrideRemovedEvent records a patch path being removed.
func BuildOverrideRemovedEvent(input ConfigEventInput) Event {
	return buildConfigEvent(VerbOverrideRemoved, ObjectConfig, input)
}

// BuildPatchReplacedEvent records the whole patch being swapped.
func BuildPatchReplacedEvent(input ConfigEventInput) Event {
	return buildConfigEvent(VerbPatchReplaced, ObjectConfig, input)
}

// BuildPatchDiscardedEvent records unsaved edits being dropped.
func BuildPatchDiscardedEvent(input ConfigEventInput) Event {
	return buildConfigEvent(VerbPatchDiscarded, ObjectConfig, input)
}

// BuildPatchSavedEvent records a patch reaching storage.
func BuildPatchSavedEvent(input ConfigEventInput) Event {
	return buildConfigEvent(VerbPatchSaved, ObjectConfig, input)
}

// BuildConfigDeployedEvent records a deploy attempt and its outcome.
func BuildConfigDeployedEvent(input ConfigEventInput) Event {
	return buildConfigEvent(VerbConfigDeployed, ObjectConfig, input)
}

// BuildPhrasesSavedEvent records the phrase table being written.
func BuildPhrasesSavedEvent(input ConfigEventInput) Event {
	return buildConfigEvent(VerbPhrasesSaved, ObjectPhrases, input)
}

func buildConfigEvent(verb, objectType string, input ConfigEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.OldValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["old_value"] = input.OldValue
	}
	if input.NewValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["new_value"] = input.NewValue
	}

	objectID := strings.TrimSpace(input.Document)
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Path:       strings.TrimSpace(input.Path),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
