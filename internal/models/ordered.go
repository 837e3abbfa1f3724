package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// orderedMap keeps values keyed by string in first-insertion order.
// Overwriting an existing key replaces the value but keeps its position.
type orderedMap[V any] struct {
	keys []string
	m    map[string]V
}

func newOrderedMap[V any]() orderedMap[V] {
	return orderedMap[V]{m: make(map[string]V)}
}

func (o *orderedMap[V]) set(key string, value V) {
	if o.m == nil {
		o.m = make(map[string]V)
	}
	if _, ok := o.m[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.m[key] = value
}

func (o *orderedMap[V]) get(key string) (V, bool) {
	v, ok := o.m[key]
	return v, ok
}

func (o *orderedMap[V]) len() int {
	return len(o.keys)
}

func (o *orderedMap[V]) each(fn func(key string, value V) bool) {
	for _, k := range o.keys {
		if !fn(k, o.m[k]) {
			return
		}
	}
}

func (o orderedMap[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.m[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o *orderedMap[V]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	fresh := newOrderedMap[V]()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var value V
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("failed to decode value for %q: %w", key, err)
		}
		fresh.set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*o = fresh
	return nil
}
