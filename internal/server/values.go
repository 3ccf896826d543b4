package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/goliatone/go-rimepatch/tree"
)

var errMissingValue = errors.New("missing value")

// decodeValue converts a JSON document into a tree value. Object key order
// is kept so patches serialize in the order the client sent them, and
// integral numbers stay integers.
func decodeValue(raw json.RawMessage) (tree.Value, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errMissingValue
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	v, err := decodeNext(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after value")
	}
	return v, nil
}

// decodeMapping is decodeValue for payloads that must be objects.
func decodeMapping(raw json.RawMessage) (*tree.Mapping, error) {
	v, err := decodeValue(raw)
	if err != nil {
		return nil, err
	}
	m, ok := v.(*tree.Mapping)
	if !ok {
		return nil, fmt.Errorf("expected an object, got %s", v.Kind())
	}
	return m, nil
}

func decodeNext(dec *json.Decoder) (tree.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := tree.NewMapping()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := keyTok.(string)
				v, err := decodeNext(dec)
				if err != nil {
					return nil, err
				}
				m.Put(key, v)
			}
			_, err := dec.Token()
			return m, err
		case '[':
			seq := tree.Sequence{}
			for dec.More() {
				v, err := decodeNext(dec)
				if err != nil {
					return nil, err
				}
				seq = append(seq, v)
			}
			_, err := dec.Token()
			return seq, err
		}
		return nil, fmt.Errorf("unexpected %v", t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return tree.Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return tree.Float(f), nil
	case string:
		return tree.String(t), nil
	case bool:
		return tree.Bool(t), nil
	case nil:
		return tree.Null(), nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}
