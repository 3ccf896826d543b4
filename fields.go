package rimepatch

import (
	"github.com/goliatone/go-rimepatch/color"
	"github.com/goliatone/go-rimepatch/layering"
	"github.com/goliatone/go-rimepatch/tree"
)

// FieldDescriptor describes one leaf of an effective document so editing
// surfaces can pick a control for it.
type FieldDescriptor struct {
	Path       string `json:"path"`
	Type       string `json:"type"`
	Color      bool   `json:"color,omitempty"`
	Overridden bool   `json:"overridden,omitempty"`
}

// Describe lists the leaves of base with patch applied, in document order.
// Sequences are leaves with an element type ("[]string"); an empty mapping
// is reported as a leaf of type "mapping".
func Describe(base, patch *tree.Mapping) []FieldDescriptor {
	fields := describeMapping(layering.Merge(base, patch), "")
	for i := range fields {
		fields[i].Overridden = layering.Overridden(patch, fields[i].Path)
	}
	if fields == nil {
		fields = []FieldDescriptor{}
	}
	return fields
}

func describeMapping(m *tree.Mapping, prefix string) []FieldDescriptor {
	var fields []FieldDescriptor
	m.Range(func(key string, value tree.Value) bool {
		path := key
		if prefix != "" {
			path = tree.JoinPath(prefix, key)
		}
		if nested, ok := value.(*tree.Mapping); ok && nested.Len() > 0 {
			fields = append(fields, describeMapping(nested, path)...)
			return true
		}
		fields = append(fields, FieldDescriptor{
			Path:  path,
			Type:  typeName(value),
			Color: color.IsColorKey(key) && isColorValue(value),
		})
		return true
	})
	return fields
}

func typeName(value tree.Value) string {
	switch typed := value.(type) {
	case tree.Scalar:
		return typed.ScalarKind().String()
	case tree.Sequence:
		if len(typed) == 0 {
			return "[]any"
		}
		return "[]" + typeName(typed[0])
	case *tree.Mapping:
		return "mapping"
	default:
		return "null"
	}
}

func isColorValue(value tree.Value) bool {
	scalar, ok := value.(tree.Scalar)
	if !ok {
		return false
	}
	_, err := color.Decode(scalar.Interface())
	return err == nil
}
