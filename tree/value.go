// Package tree models configuration documents as a tagged variant of scalars,
// sequences and ordered mappings, and provides the slash-path primitives used
// to read and write overrides into them.
package tree

import (
	"fmt"
	"math"
)

// Kind identifies the variant a Value holds.
type Kind int

const (
	KindScalar Kind = iota
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Value is implemented by Scalar, Sequence and *Mapping only.
type Value interface {
	Kind() Kind
	isValue()
}

// ScalarKind identifies the payload carried by a Scalar.
type ScalarKind int

const (
	ScalarNull ScalarKind = iota
	ScalarBool
	ScalarInt
	ScalarFloat
	ScalarString
)

func (k ScalarKind) String() string {
	switch k {
	case ScalarNull:
		return "null"
	case ScalarBool:
		return "bool"
	case ScalarInt:
		return "int"
	case ScalarFloat:
		return "float"
	case ScalarString:
		return "string"
	default:
		return "unknown"
	}
}

// Scalar is a leaf value. The zero Scalar is null.
type Scalar struct {
	kind ScalarKind
	b    bool
	i    int64
	f    float64
	s    string
}

func (Scalar) Kind() Kind { return KindScalar }
func (Scalar) isValue()   {}

// Null returns the null scalar.
func Null() Scalar { return Scalar{} }

// Bool wraps a boolean.
func Bool(v bool) Scalar { return Scalar{kind: ScalarBool, b: v} }

// Int wraps an integer.
func Int(v int64) Scalar { return Scalar{kind: ScalarInt, i: v} }

// Float wraps a floating point number.
func Float(v float64) Scalar { return Scalar{kind: ScalarFloat, f: v} }

// String wraps a string.
func String(v string) Scalar { return Scalar{kind: ScalarString, s: v} }

// ScalarKind reports which payload the scalar carries.
func (s Scalar) ScalarKind() ScalarKind { return s.kind }

// IsNull reports whether the scalar is null.
func (s Scalar) IsNull() bool { return s.kind == ScalarNull }

// AsBool returns the boolean payload.
func (s Scalar) AsBool() (bool, bool) { return s.b, s.kind == ScalarBool }

// AsInt returns the integer payload. Floats holding an integral value are
// accepted so callers do not need to care how a number was parsed.
func (s Scalar) AsInt() (int64, bool) {
	switch s.kind {
	case ScalarInt:
		return s.i, true
	case ScalarFloat:
		if s.f == math.Trunc(s.f) && !math.IsInf(s.f, 0) && math.Abs(s.f) < 1<<63 {
			return int64(s.f), true
		}
	}
	return 0, false
}

// AsFloat returns the numeric payload as a float64.
func (s Scalar) AsFloat() (float64, bool) {
	switch s.kind {
	case ScalarInt:
		return float64(s.i), true
	case ScalarFloat:
		return s.f, true
	}
	return 0, false
}

// AsString returns the string payload.
func (s Scalar) AsString() (string, bool) { return s.s, s.kind == ScalarString }

// Interface returns the payload as a plain Go value (nil, bool, int64,
// float64 or string).
func (s Scalar) Interface() any {
	switch s.kind {
	case ScalarBool:
		return s.b
	case ScalarInt:
		return s.i
	case ScalarFloat:
		return s.f
	case ScalarString:
		return s.s
	default:
		return nil
	}
}

func (s Scalar) String() string {
	if s.kind == ScalarNull {
		return "null"
	}
	return fmt.Sprint(s.Interface())
}

// Sequence is an ordered list of values. Sequences are atomic with respect to
// slash paths: they are never descended into.
type Sequence []Value

func (Sequence) Kind() Kind { return KindSequence }
func (Sequence) isValue()   {}

// Mapping is a string-keyed mapping with unique keys that remembers insertion
// order. The zero value is not usable; use NewMapping.
type Mapping struct {
	keys   []string
	values map[string]Value
}

func (*Mapping) Kind() Kind { return KindMapping }
func (*Mapping) isValue()   {}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{values: map[string]Value{}}
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns a copy of the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Mapping) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Put stores v under key. Existing keys keep their position. A nil v is
// stored as null.
func (m *Mapping) Put(key string, v Value) {
	if v == nil {
		v = Null()
	}
	if m.values == nil {
		m.values = map[string]Value{}
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Delete removes key, reporting whether it was present.
func (m *Mapping) Delete(key string) bool {
	if m == nil {
		return false
	}
	if _, ok := m.values[key]; !ok {
		return false
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// Range calls fn for each entry in insertion order until fn returns false.
func (m *Mapping) Range(fn func(key string, v Value) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}
