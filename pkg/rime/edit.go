package rime

import (
	"github.com/goliatone/go-rimepatch/tree"
)

// Strings returns the string elements of a sequence, skipping anything else.
func Strings(v tree.Value) []string {
	seq, ok := v.(tree.Sequence)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(seq))
	for _, item := range seq {
		if s, ok := item.(tree.Scalar); ok {
			if text, ok := s.AsString(); ok {
				out = append(out, text)
			}
		}
	}
	return out
}

// StringSequence converts a string slice into a sequence.
func StringSequence(values []string) tree.Sequence {
	seq := make(tree.Sequence, len(values))
	for i, value := range values {
		seq[i] = tree.String(value)
	}
	return seq
}

// Algebra returns the spelling algebra a schema currently uses: the patched
// list when the patch overrides it, else the base list.
func Algebra(base, patch *tree.Mapping) []string {
	if v, ok := patch.Get(AlgebraPath); ok {
		return Strings(v)
	}
	v, _ := tree.Get(base, AlgebraPath)
	return Strings(v)
}

// SwitchResets reports the reset value of every switch the patch overrides.
func SwitchResets(patch *tree.Mapping) map[string]int64 {
	out := make(map[string]int64)
	v, _ := patch.Get(SwitchesPath)
	seq, _ := v.(tree.Sequence)
	for _, item := range seq {
		entry, ok := item.(*tree.Mapping)
		if !ok {
			continue
		}
		name, _ := scalarString(entry, "name")
		reset, ok := entry.Get("reset")
		if name == "" || !ok {
			continue
		}
		if s, ok := reset.(tree.Scalar); ok {
			if n, ok := s.AsInt(); ok {
				out[name] = n
			}
		}
	}
	return out
}

// SetSwitchReset returns switches with the reset of the named switch set.
// A switch that is missing is appended with just a name and reset. Other
// fields on existing switches are kept.
func SetSwitchReset(switches tree.Sequence, name string, reset int64) tree.Sequence {
	out := tree.Clone(switches).(tree.Sequence)
	for _, item := range out {
		entry, ok := item.(*tree.Mapping)
		if !ok {
			continue
		}
		if n, _ := scalarString(entry, "name"); n == name {
			entry.Put("reset", tree.Int(reset))
			return out
		}
	}
	added := tree.NewMapping()
	added.Put("name", tree.String(name))
	added.Put("reset", tree.Int(reset))
	return append(out, added)
}

// CurrentSwitches returns the switch list edits should start from: the
// patched list when present, else the base list.
func CurrentSwitches(base, patch *tree.Mapping) tree.Sequence {
	if v, ok := patch.Get(SwitchesPath); ok {
		if seq, ok := v.(tree.Sequence); ok {
			return seq
		}
	}
	v, _ := tree.Get(base, SwitchesPath)
	seq, _ := v.(tree.Sequence)
	return seq
}

// SchemaIDs lists the schema ids of a schema_list sequence.
func SchemaIDs(list tree.Value) []string {
	seq, _ := list.(tree.Sequence)
	out := make([]string, 0, len(seq))
	for _, item := range seq {
		if entry, ok := item.(*tree.Mapping); ok {
			if id, ok := scalarString(entry, "schema"); ok {
				out = append(out, id)
			}
		}
	}
	return out
}

// ToggleSchema removes schemaID from list when present, otherwise appends
// it.
func ToggleSchema(list tree.Sequence, schemaID string) tree.Sequence {
	out := make(tree.Sequence, 0, len(list)+1)
	found := false
	for _, item := range list {
		if entry, ok := item.(*tree.Mapping); ok {
			if id, _ := scalarString(entry, "schema"); id == schemaID {
				found = true
				continue
			}
		}
		out = append(out, tree.Clone(item))
	}
	if !found {
		entry := tree.NewMapping()
		entry.Put("schema", tree.String(schemaID))
		out = append(out, entry)
	}
	return out
}

// MoveSchema swaps the entry at index with its neighbour in direction delta
// (-1 up, +1 down). Moves past either end leave the list unchanged and
// report false.
func MoveSchema(list tree.Sequence, index, delta int) (tree.Sequence, bool) {
	out := tree.Clone(list).(tree.Sequence)
	target := index + delta
	if delta == 0 || index < 0 || index >= len(out) || target < 0 || target >= len(out) {
		return out, false
	}
	out[index], out[target] = out[target], out[index]
	return out, true
}

// ToggleHotkey removes hotkey when present, otherwise appends it.
func ToggleHotkey(hotkeys []string, hotkey string) []string {
	out := make([]string, 0, len(hotkeys)+1)
	found := false
	for _, h := range hotkeys {
		if h == hotkey {
			found = true
			continue
		}
		out = append(out, h)
	}
	if !found {
		out = append(out, hotkey)
	}
	return out
}

// SetAppASCIIMode returns app options with bundleID set to the given ascii
// mode. The entry is replaced, so other per-app fields are dropped.
func SetAppASCIIMode(options *tree.Mapping, bundleID string, ascii bool) *tree.Mapping {
	out := tree.CloneMapping(options)
	entry := tree.NewMapping()
	entry.Put("ascii_mode", tree.Bool(ascii))
	out.Put(bundleID, entry)
	return out
}

// RemoveAppOption returns app options without bundleID.
func RemoveAppOption(options *tree.Mapping, bundleID string) *tree.Mapping {
	out := tree.CloneMapping(options)
	out.Delete(bundleID)
	return out
}

func scalarString(m *tree.Mapping, key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(tree.Scalar)
	if !ok {
		return "", false
	}
	return s.AsString()
}
