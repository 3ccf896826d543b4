package tree

import "math"

// Clone returns a deep copy of v. Mutating the clone never affects v.
func Clone(v Value) Value {
	switch typed := v.(type) {
	case nil:
		return nil
	case Scalar:
		return typed
	case Sequence:
		if typed == nil {
			return Sequence(nil)
		}
		out := make(Sequence, len(typed))
		for i, item := range typed {
			out[i] = Clone(item)
		}
		return out
	case *Mapping:
		return CloneMapping(typed)
	default:
		return v
	}
}

// CloneMapping deep copies m. A nil mapping clones to an empty one.
func CloneMapping(m *Mapping) *Mapping {
	out := NewMapping()
	if m == nil {
		return out
	}
	out.keys = make([]string, 0, len(m.keys))
	for _, key := range m.keys {
		out.keys = append(out.keys, key)
		out.values[key] = Clone(m.values[key])
	}
	return out
}

// Equal reports deep structural equality. Mapping key order is ignored,
// sequences compare element-wise, and integers and floats compare by numeric
// value. NaN is treated as equal to NaN so a document always equals itself.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch left := a.(type) {
	case Scalar:
		return scalarEqual(left, b.(Scalar))
	case Sequence:
		right := b.(Sequence)
		if len(left) != len(right) {
			return false
		}
		for i := range left {
			if !Equal(left[i], right[i]) {
				return false
			}
		}
		return true
	case *Mapping:
		right := b.(*Mapping)
		if left.Len() != right.Len() {
			return false
		}
		equal := true
		left.Range(func(key string, lv Value) bool {
			rv, ok := right.Get(key)
			if !ok || !Equal(lv, rv) {
				equal = false
				return false
			}
			return true
		})
		return equal
	default:
		return false
	}
}

func scalarEqual(a, b Scalar) bool {
	if isNumber(a) && isNumber(b) {
		if a.kind == ScalarInt && b.kind == ScalarInt {
			return a.i == b.i
		}
		af, _ := a.AsFloat()
		bf, _ := b.AsFloat()
		if math.IsNaN(af) && math.IsNaN(bf) {
			return true
		}
		return af == bf
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case ScalarNull:
		return true
	case ScalarBool:
		return a.b == b.b
	case ScalarString:
		return a.s == b.s
	default:
		return false
	}
}

func isNumber(s Scalar) bool {
	return s.kind == ScalarInt || s.kind == ScalarFloat
}
