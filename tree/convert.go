package tree

import (
	"fmt"
	"reflect"
	"sort"
)

// FromAny converts plain Go data into a Value. Maps with string keys become
// mappings (map iteration order is randomised, so keys are sorted), slices and
// arrays become sequences, and numbers, booleans, strings and nil become
// scalars. Values of any other type are stored as their fmt string form.
func FromAny(v any) Value {
	switch typed := v.(type) {
	case nil:
		return Null()
	case Value:
		return Clone(typed)
	case bool:
		return Bool(typed)
	case string:
		return String(typed)
	case int:
		return Int(int64(typed))
	case int8:
		return Int(int64(typed))
	case int16:
		return Int(int64(typed))
	case int32:
		return Int(int64(typed))
	case int64:
		return Int(typed)
	case uint:
		return Int(int64(typed))
	case uint8:
		return Int(int64(typed))
	case uint16:
		return Int(int64(typed))
	case uint32:
		return Int(int64(typed))
	case uint64:
		return Int(int64(typed))
	case float32:
		return Float(float64(typed))
	case float64:
		return Float(typed)
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for k := range typed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMapping()
		for _, k := range keys {
			m.Put(k, FromAny(typed[k]))
		}
		return m
	case []any:
		seq := make(Sequence, len(typed))
		for i, item := range typed {
			seq[i] = FromAny(item)
		}
		return seq
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null()
		}
		return FromAny(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		seq := make(Sequence, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			seq[i] = FromAny(rv.Index(i).Interface())
		}
		return seq
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		m := NewMapping()
		for _, k := range keys {
			m.Put(k, FromAny(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface()))
		}
		return m
	}
	return String(fmt.Sprint(v))
}

// MappingFromAny converts a map into a mapping. Anything that is not a
// mapping after conversion yields an empty mapping.
func MappingFromAny(v any) *Mapping {
	if m, ok := FromAny(v).(*Mapping); ok {
		return m
	}
	return NewMapping()
}

// ToAny converts a Value back into plain Go data: map[string]any, []any and
// scalar payloads.
func ToAny(v Value) any {
	switch typed := v.(type) {
	case nil:
		return nil
	case Scalar:
		return typed.Interface()
	case Sequence:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = ToAny(item)
		}
		return out
	case *Mapping:
		if typed == nil {
			return nil
		}
		out := make(map[string]any, typed.Len())
		typed.Range(func(key string, item Value) bool {
			out[key] = ToAny(item)
			return true
		})
		return out
	default:
		return nil
	}
}
