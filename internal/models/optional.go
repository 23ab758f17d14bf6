package models

import (
	"bytes"
	"encoding/json"
)

// Optional is a tri-state patch field: absent, explicit null, or a value.
// Absent fields leave the stored value untouched; explicit null clears it.
// Stored entities never hold Optional, only patch request structs do, so
// explicit nulls are normalized away before anything is persisted.
type Optional[T any] struct {
	Set   bool // field was present in the payload
	Valid bool // field carried a non-null value
	Value T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Valid = false
		var zero T
		o.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Ptr returns the carried value as a pointer, or nil when the field was
// absent or explicitly null. This is the internal "absent" representation.
func (o Optional[T]) Ptr() *T {
	if !o.Set || !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}
