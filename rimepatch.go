// Package rimepatch edits Rime input method configuration through sparse
// override patches. A base document (default.yaml, squirrel.yaml, ...) is
// never written; edits are slash-path overrides stored under the patch key of
// the matching .custom.yaml file and merged onto the base to produce the
// effective configuration Rime will see after deploy.
//
// The package offers pure functions over trees and a Session that owns one
// open document's base, patch and saved snapshot.
package rimepatch

import (
	"github.com/goliatone/go-rimepatch/dirty"
	"github.com/goliatone/go-rimepatch/document"
	"github.com/goliatone/go-rimepatch/layering"
	"github.com/goliatone/go-rimepatch/tree"
)

// Effective merges patch onto a clone of base.
func Effective(base, patch *tree.Mapping) *tree.Mapping {
	return layering.Merge(base, patch)
}

// GetEffective resolves path in the effective document. Missing paths, and
// paths running through a non-mapping, report false.
func GetEffective(base, patch *tree.Mapping, path string) (tree.Value, bool) {
	return tree.Get(layering.Merge(base, patch), path)
}

// SetOverride returns a copy of patch with path set to value. The value is
// stored as a single entry; mappings are not flattened further.
func SetOverride(patch *tree.Mapping, path string, value tree.Value) *tree.Mapping {
	next := tree.CloneMapping(patch)
	next.Put(path, tree.Clone(value))
	return next
}

// RemoveOverride returns a copy of patch without path. Removing an absent
// path returns an unchanged copy.
func RemoveOverride(patch *tree.Mapping, path string) *tree.Mapping {
	next := tree.CloneMapping(patch)
	next.Delete(path)
	return next
}

// SerializePreview renders patch as .custom.yaml text. The result is never
// empty: an empty patch renders as document.EmptyText.
func SerializePreview(patch *tree.Mapping) (string, error) {
	return document.Serialize(patch)
}

// IsDirty reports whether patch differs from the last saved patch.
func IsDirty(patch, saved *tree.Mapping) bool {
	return dirty.IsDirty(nilAsEmpty(patch), nilAsEmpty(saved))
}

func nilAsEmpty(m *tree.Mapping) *tree.Mapping {
	if m == nil {
		return tree.NewMapping()
	}
	return m
}
