package tree

import "strings"

// Separator joins path segments.
const Separator = "/"

// SplitPath splits a slash path into its segments. The empty path is not a
// valid address; it yields a single empty segment.
func SplitPath(path string) []string {
	return strings.Split(path, Separator)
}

// JoinPath joins segments with the separator.
func JoinPath(segments ...string) string {
	return strings.Join(segments, Separator)
}

// LastSegment returns the final segment of path.
func LastSegment(path string) string {
	if idx := strings.LastIndex(path, Separator); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

// Get walks root segment by segment. It reports false, rather than failing,
// when an intermediate segment is missing or is not a mapping.
func Get(root *Mapping, path string) (Value, bool) {
	if root == nil {
		return nil, false
	}
	var current Value = root
	for _, segment := range SplitPath(path) {
		m, ok := current.(*Mapping)
		if !ok || m == nil {
			return nil, false
		}
		next, ok := m.Get(segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Set assigns v at path, creating intermediate mappings as needed. An existing
// non-mapping value at an intermediate segment is replaced by an empty mapping:
// structure wins over a stale scalar. A mapping already stored at the final
// segment is replaced wholesale, never merged. root is mutated in place.
func Set(root *Mapping, path string, v Value) {
	segments := SplitPath(path)
	current := root
	for _, segment := range segments[:len(segments)-1] {
		existing, ok := current.Get(segment)
		next, isMapping := existing.(*Mapping)
		if !ok || !isMapping || next == nil {
			next = NewMapping()
			current.Put(segment, next)
		}
		current = next
	}
	current.Put(segments[len(segments)-1], v)
}

// Delete removes the value at path, reporting whether anything was removed.
// Intermediate mappings left empty are kept.
func Delete(root *Mapping, path string) bool {
	segments := SplitPath(path)
	current := root
	for _, segment := range segments[:len(segments)-1] {
		existing, ok := current.Get(segment)
		next, isMapping := existing.(*Mapping)
		if !ok || !isMapping {
			return false
		}
		current = next
	}
	return current.Delete(segments[len(segments)-1])
}

// Flatten converts a nested mapping into a flat mapping of slash paths to
// leaves. Only mappings are descended into; scalars and sequences are leaves.
// An empty nested mapping contributes no entries.
func Flatten(m *Mapping, prefix string) *Mapping {
	out := NewMapping()
	flattenInto(out, m, prefix)
	return out
}

func flattenInto(out, m *Mapping, prefix string) {
	m.Range(func(key string, v Value) bool {
		full := key
		if prefix != "" {
			full = prefix + Separator + key
		}
		if nested, ok := v.(*Mapping); ok {
			flattenInto(out, nested, full)
			return true
		}
		out.Put(full, Clone(v))
		return true
	})
}

// Unflatten rebuilds a nested mapping from a flat one by calling Set for each
// entry in iteration order.
func Unflatten(flat *Mapping) *Mapping {
	out := NewMapping()
	flat.Range(func(path string, v Value) bool {
		Set(out, path, Clone(v))
		return true
	})
	return out
}
