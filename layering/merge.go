// Package layering applies slash-path override patches onto base documents.
package layering

import (
	"strings"

	"github.com/goliatone/go-rimepatch/tree"
)

// Merge returns the effective document: a deep clone of base with every entry
// of patch applied in the patch's own order. base and patch are never
// mutated. Merge does not fail; non-mapping values found on the way to a
// patched path are replaced by mappings.
func Merge(base, patch *tree.Mapping) *tree.Mapping {
	merged := tree.CloneMapping(base)
	apply(merged, patch)
	return merged
}

// MergeAll applies patches in order, later patches winning on shared paths.
func MergeAll(base *tree.Mapping, patches ...*tree.Mapping) *tree.Mapping {
	merged := tree.CloneMapping(base)
	for _, patch := range patches {
		apply(merged, patch)
	}
	return merged
}

func apply(target, patch *tree.Mapping) {
	patch.Range(func(path string, value tree.Value) bool {
		value = tree.Clone(value)
		if !strings.Contains(path, tree.Separator) {
			// a single segment is the whole key
			target.Put(path, value)
			return true
		}
		tree.Set(target, path, value)
		return true
	})
}
