package document

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-rimepatch/color"
	"github.com/goliatone/go-rimepatch/tree"
)

const maxAliasDepth = 64

// Parse decodes YAML text into a mapping. Integers stay int64 and floats
// float64. Empty text and documents whose root is not a mapping yield an
// empty mapping; only malformed YAML is an error.
func Parse(text string) (*tree.Mapping, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("document: parse: %w", err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return tree.NewMapping(), nil
		}
		root = root.Content[0]
	}
	v, err := decodeNode(root, 0)
	if err != nil {
		return nil, err
	}
	if m, ok := v.(*tree.Mapping); ok {
		return m, nil
	}
	return tree.NewMapping(), nil
}

// ParsePatch decodes a .custom.yaml body and returns the mapping stored under
// its patch key, with color literals restored. A document without a patch
// mapping yields an empty patch.
func ParsePatch(text string) (*tree.Mapping, error) {
	doc, err := Parse(text)
	if err != nil {
		return nil, err
	}
	v, ok := doc.Get(PatchKey)
	if !ok {
		return tree.NewMapping(), nil
	}
	patch, ok := RestoreColorLiterals(v).(*tree.Mapping)
	if !ok {
		return tree.NewMapping(), nil
	}
	return patch, nil
}

// ParseValue decodes a single YAML value, as typed on a command line, to be
// stored under key. Empty text is null. An integer stored under a color key
// is restored to its literal form.
func ParseValue(key, text string) (tree.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("document: parse value: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return tree.Null(), nil
	}
	v, err := decodeNode(doc.Content[0], 0)
	if err != nil {
		return nil, err
	}
	if s, ok := v.(tree.Scalar); ok {
		return restoreScalar(key, s), nil
	}
	return v, nil
}

// ParseWithColors decodes text and restores color literals throughout.
func ParseWithColors(text string) (*tree.Mapping, error) {
	doc, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return RestoreColorLiterals(doc).(*tree.Mapping), nil
}

func decodeNode(node *yaml.Node, depth int) (tree.Value, error) {
	if depth > maxAliasDepth {
		return nil, fmt.Errorf("document: parse: nesting deeper than %d at line %d", maxAliasDepth, node.Line)
	}
	switch node.Kind {
	case yaml.AliasNode:
		return decodeNode(node.Alias, depth+1)
	case yaml.MappingNode:
		m := tree.NewMapping()
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			if key.ShortTag() == "!!merge" {
				if err := mergeInto(m, value, depth); err != nil {
					return nil, err
				}
				continue
			}
			v, err := decodeNode(value, depth+1)
			if err != nil {
				return nil, err
			}
			m.Put(key.Value, v)
		}
		return m, nil
	case yaml.SequenceNode:
		seq := make(tree.Sequence, 0, len(node.Content))
		for _, item := range node.Content {
			v, err := decodeNode(item, depth+1)
			if err != nil {
				return nil, err
			}
			seq = append(seq, v)
		}
		return seq, nil
	case yaml.ScalarNode:
		return decodeScalar(node)
	default:
		return tree.Null(), nil
	}
}

// mergeInto handles the YAML merge key (<<). Explicit keys win, so merged
// entries only fill gaps.
func mergeInto(m *tree.Mapping, value *yaml.Node, depth int) error {
	sources := []*yaml.Node{value}
	if value.Kind == yaml.SequenceNode {
		sources = value.Content
	}
	for _, source := range sources {
		v, err := decodeNode(source, depth+1)
		if err != nil {
			return err
		}
		merged, ok := v.(*tree.Mapping)
		if !ok {
			continue
		}
		merged.Range(func(key string, item tree.Value) bool {
			if !m.Has(key) {
				m.Put(key, item)
			}
			return true
		})
	}
	return nil
}

func decodeScalar(node *yaml.Node) (tree.Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return tree.Null(), nil
	case "!!str":
		return tree.String(node.Value), nil
	}
	var out any
	if err := node.Decode(&out); err != nil {
		return nil, fmt.Errorf("document: parse scalar %q at line %d: %w", node.Value, node.Line, err)
	}
	return tree.FromAny(out), nil
}

// RestoreColorLiterals rewrites integer values found under color keys back
// into 0x literals, since YAML reads 0xFF8800 as a number. The final slash
// segment of a key decides whether it is a color key. The width follows the
// magnitude: values above 24 bits get 8 digits. Only nested mappings are
// visited, never sequence elements, and values that do not decode as colors
// are left alone. The input is not mutated.
func RestoreColorLiterals(v tree.Value) tree.Value {
	m, ok := v.(*tree.Mapping)
	if !ok {
		return tree.Clone(v)
	}
	out := tree.NewMapping()
	m.Range(func(key string, item tree.Value) bool {
		switch typed := item.(type) {
		case *tree.Mapping:
			out.Put(key, RestoreColorLiterals(typed))
		case tree.Scalar:
			out.Put(key, restoreScalar(key, typed))
		default:
			out.Put(key, tree.Clone(item))
		}
		return true
	})
	return out
}

func restoreScalar(key string, s tree.Scalar) tree.Value {
	if !color.IsColorKey(tree.LastSegment(key)) {
		return s
	}
	n, ok := s.AsInt()
	if !ok {
		return s
	}
	literal, err := color.EncodeInt(n)
	if err != nil {
		return s
	}
	return tree.String(literal)
}
