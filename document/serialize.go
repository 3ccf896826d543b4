// Package document reads and writes Rime YAML documents. Patches are
// rendered under a top-level patch key in slash notation. BGR color literals
// are written as double quoted strings, digit for digit, so their width and
// alpha byte survive a reload.
package document

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-rimepatch/color"
	"github.com/goliatone/go-rimepatch/tree"
)

// PatchKey is the top-level key of a .custom.yaml document.
const PatchKey = "patch"

// EmptyText is the serialized form of an empty patch.
const EmptyText = "patch: {}\n"

const indent = 2

// Serialize renders patch as a Rime patch document. Keys keep the patch's
// own order. An empty or nil patch renders as EmptyText.
func Serialize(patch *tree.Mapping) (string, error) {
	if patch == nil || patch.Len() == 0 {
		return EmptyText, nil
	}
	root := &yaml.Node{Kind: yaml.MappingNode}
	root.Content = append(root.Content, keyNode(PatchKey), encodeMapping(patch))
	return render(root)
}

// SerializeNested flattens a nested mapping into slash notation before
// serializing it.
func SerializeNested(nested *tree.Mapping) (string, error) {
	if nested == nil {
		return EmptyText, nil
	}
	return Serialize(tree.Flatten(nested, ""))
}

// Encode renders any mapping as a YAML document without the patch wrapper.
// FileStore uses it for non-patch files.
func Encode(m *tree.Mapping) (string, error) {
	if m == nil {
		m = tree.NewMapping()
	}
	return render(encodeMapping(m))
}

func render(node *yaml.Node) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{node}}
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("document: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("document: encode: %w", err)
	}
	return buf.String(), nil
}

func encodeMapping(m *tree.Mapping) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	if m.Len() == 0 {
		node.Style = yaml.FlowStyle
	}
	m.Range(func(key string, v tree.Value) bool {
		node.Content = append(node.Content, keyNode(key), encodeValue(v, key))
		return true
	})
	return node
}

// encodeValue renders v. key is the mapping key v was found under, empty for
// sequence elements.
func encodeValue(v tree.Value, key string) *yaml.Node {
	switch typed := v.(type) {
	case *tree.Mapping:
		return encodeMapping(typed)
	case tree.Sequence:
		node := &yaml.Node{Kind: yaml.SequenceNode}
		if len(typed) == 0 {
			node.Style = yaml.FlowStyle
		}
		for _, item := range typed {
			node.Content = append(node.Content, encodeValue(item, ""))
		}
		return node
	case tree.Scalar:
		if key != "" && color.IsColorKey(tree.LastSegment(key)) {
			if literal, ok := colorLiteral(typed); ok {
				return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: literal, Style: yaml.DoubleQuotedStyle}
			}
		}
		return encodeScalar(typed)
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

// colorLiteral returns the text of a color literal as written. Casing and
// leading zeros are kept so a reload compares equal to the saved patch.
func colorLiteral(s tree.Scalar) (string, bool) {
	text, ok := s.AsString()
	if !ok || !color.IsLiteral(text) {
		return "", false
	}
	return text, true
}

func encodeScalar(s tree.Scalar) *yaml.Node {
	node := &yaml.Node{Kind: yaml.ScalarNode}
	switch s.ScalarKind() {
	case tree.ScalarBool:
		b, _ := s.AsBool()
		node.Tag, node.Value = "!!bool", strconv.FormatBool(b)
	case tree.ScalarInt:
		i, _ := s.AsInt()
		node.Tag, node.Value = "!!int", strconv.FormatInt(i, 10)
	case tree.ScalarFloat:
		f, _ := s.AsFloat()
		node.Tag, node.Value = "!!float", formatFloat(f)
	case tree.ScalarString:
		text, _ := s.AsString()
		// the encoder double quotes strings that would otherwise resolve to
		// another type
		node.Tag, node.Value = "!!str", text
	default:
		node.Tag, node.Value = "!!null", "null"
	}
	return node
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	text := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(text, ".eE") {
		text += ".0"
	}
	return text
}

func keyNode(key string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
}
