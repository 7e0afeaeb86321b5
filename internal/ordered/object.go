// Package ordered provides JSON values whose object keys keep insertion order.
//
// encoding/json sorts map keys alphabetically on marshal and loses key order on
// unmarshal. Both are unacceptable here: the raw data store must list rule
// results in declaration order, and projected output must keep the order the
// projector produced (for example month keys in chronological order).
package ordered

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Object is a JSON object that remembers the order keys were first set.
//
// Setting an existing key overwrites its value but keeps its original
// position. The zero value is not usable; call NewObject.
type Object struct {
	keys []string
	vals map[string]any
}

// NewObject returns an empty ordered object.
func NewObject() *Object {
	return &Object{vals: make(map[string]any)}
}

// Set stores v under key. New keys are appended; existing keys keep their slot.
func (o *Object) Set(key string, v any) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.vals[key]
	return ok
}

// Len returns the number of keys.
func (o *Object) Len() int { return len(o.keys) }

// Keys returns the keys in insertion order. The slice is a copy.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Clone returns a shallow copy: keys and the value map are copied, values are
// shared. Replacing a value in the clone does not affect the original.
func (o *Object) Clone() *Object {
	c := &Object{
		keys: make([]string, len(o.keys)),
		vals: make(map[string]any, len(o.vals)),
	}
	copy(c.keys, o.keys)
	for k, v := range o.vals {
		c.vals[k] = v
	}
	return c
}

// MarshalJSON writes the object with keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		b.Write(kb)
		b.WriteByte(':')
		vb, err := json.Marshal(o.vals[k])
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// UnmarshalJSON decodes data, which must be a JSON object, preserving key order.
func (o *Object) UnmarshalJSON(data []byte) error {
	v, err := Unmarshal(data)
	if err != nil {
		return err
	}
	obj, ok := v.(*Object)
	if !ok {
		return fmt.Errorf("ordered: expected JSON object, got %T", v)
	}
	*o = *obj
	return nil
}

// Unmarshal decodes arbitrary JSON into order-preserving values.
//
// Mapping:
//   - objects  -> *Object
//   - arrays   -> []any
//   - numbers  -> json.Number (no float round-trip loss)
//   - strings, bools, null -> string, bool, nil
func Unmarshal(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	// Reject trailing garbage after the first value.
	if _, err := dec.Token(); err == nil {
		return nil, fmt.Errorf("ordered: unexpected data after JSON value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObjectRest(dec)
		case '[':
			return decodeArrayRest(dec)
		default:
			return nil, fmt.Errorf("ordered: unexpected delimiter %q", t)
		}
	default:
		// string, json.Number, bool or nil.
		return tok, nil
	}
}

// decodeObjectRest consumes object members after the opening brace.
func decodeObjectRest(dec *json.Decoder) (*Object, error) {
	obj := NewObject()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("ordered: object key is %T, not string", keyTok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		obj.Set(key, v)
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return nil, err
	}
	return obj, nil
}

// decodeArrayRest consumes array elements after the opening bracket.
func decodeArrayRest(dec *json.Decoder) ([]any, error) {
	arr := []any{}
	for dec.More() {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	if _, err := dec.Token(); err != nil { // closing ']'
		return nil, err
	}
	return arr, nil
}
