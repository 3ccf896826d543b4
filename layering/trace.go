package layering

import (
	"encoding/json"
	"strings"

	"github.com/goliatone/go-rimepatch/tree"
)

// Source names the layer that supplied an effective value.
type Source string

const (
	// SourceNone means the path resolves in neither layer.
	SourceNone Source = "none"
	// SourceBase means the value comes from the base document untouched.
	SourceBase Source = "base"
	// SourcePatch means an override at the path, or at one of its ancestors,
	// supplied the value.
	SourcePatch Source = "patch"
	// SourceMixed means the path holds a base mapping with overrides applied
	// somewhere below it.
	SourceMixed Source = "mixed"
)

// ParseSource converts a string into a Source. Unrecognised values map to
// SourceNone.
func ParseSource(value string) Source {
	switch Source(strings.ToLower(strings.TrimSpace(value))) {
	case SourceBase:
		return SourceBase
	case SourcePatch:
		return SourcePatch
	case SourceMixed:
		return SourceMixed
	default:
		return SourceNone
	}
}

// Trace captures provenance information for a path lookup across the base
// document and the override patch that produced the effective value.
type Trace struct {
	Path      string       `json:"path"`
	Found     bool         `json:"found"`
	Effective any          `json:"effective,omitempty"`
	Source    Source       `json:"source"`
	Layers    []Provenance `json:"layers"`
}

// Provenance details how one layer contributed to a traced path. PatchKey is
// the override entry that covers the path, if any.
type Provenance struct {
	Source   Source `json:"source"`
	PatchKey string `json:"patch_key,omitempty"`
	Value    any    `json:"value,omitempty"`
	Found    bool   `json:"found"`
}

// TraceFor resolves path against base and patch, reporting both layers.
// Layers are ordered strongest first (patch, then base).
func TraceFor(base, patch *tree.Mapping, path string) Trace {
	trace := Trace{Path: path, Source: SourceNone}

	patchLayer := Provenance{Source: SourcePatch}
	if key, value, ok := coveringOverride(patch, path); ok {
		patchLayer.Found = true
		patchLayer.PatchKey = key
		patchLayer.Value = tree.ToAny(value)
	}

	baseLayer := Provenance{Source: SourceBase}
	if value, ok := tree.Get(base, path); ok {
		baseLayer.Found = true
		baseLayer.Value = tree.ToAny(value)
	}
	trace.Layers = []Provenance{patchLayer, baseLayer}

	effective, ok := tree.Get(Merge(base, patch), path)
	if !ok {
		return trace
	}
	trace.Found = true
	trace.Effective = tree.ToAny(effective)

	switch {
	case patchLayer.Found:
		trace.Source = SourcePatch
	case hasOverrideBelow(patch, path):
		trace.Source = SourceMixed
	default:
		trace.Source = SourceBase
	}
	return trace
}

// Overridden reports whether an override covers path, either exactly or
// through one of its ancestors.
func Overridden(patch *tree.Mapping, path string) bool {
	_, _, ok := coveringOverride(patch, path)
	return ok
}

// coveringOverride finds the patch entry that determines the value at path:
// the exact key, or the longest key that is an ancestor of path and whose
// value contains the remainder.
func coveringOverride(patch *tree.Mapping, path string) (string, tree.Value, bool) {
	if value, ok := patch.Get(path); ok {
		return path, value, true
	}
	var (
		bestKey   string
		bestValue tree.Value
		found     bool
	)
	patch.Range(func(key string, value tree.Value) bool {
		prefix := key + tree.Separator
		if !strings.HasPrefix(path, prefix) || len(key) <= len(bestKey) {
			return true
		}
		rest := strings.TrimPrefix(path, prefix)
		holder := tree.NewMapping()
		holder.Put("v", value)
		resolved, ok := tree.Get(holder, "v"+tree.Separator+rest)
		if !ok {
			return true
		}
		bestKey, bestValue, found = key, resolved, true
		return true
	})
	return bestKey, bestValue, found
}

func hasOverrideBelow(patch *tree.Mapping, path string) bool {
	prefix := path + tree.Separator
	below := false
	patch.Range(func(key string, _ tree.Value) bool {
		if strings.HasPrefix(key, prefix) {
			below = true
			return false
		}
		return true
	})
	return below
}

// ToJSON serialises the trace for logging or transport.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a payload produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
