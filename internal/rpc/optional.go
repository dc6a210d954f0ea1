package rpc

import (
	"bytes"
	"encoding/json"
)

// Optional is a patch field that remembers whether it was present in the
// input and whether it was an explicit null.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Some returns a present, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Present reports whether the field carries a non-null value.
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}

// Put writes the field into row under column when it was present in the
// input. An explicit null is written as nil; an absent field is skipped.
func (o Optional[T]) Put(row map[string]any, column string) {
	if !o.Set {
		return
	}
	if o.Null {
		row[column] = nil
		return
	}
	row[column] = o.Value
}

// validationValue exposes the wrapped value to the validator; absent and
// null fields are reported as nil so omitempty rules skip them.
func (o Optional[T]) validationValue() any {
	if !o.Present() {
		return nil
	}
	return o.Value
}
