package common

import (
	"bytes"
	"encoding/json"
)

// Optional tracks presence and value for JSON merge-patch semantics. A plain
// pointer cannot distinguish "field absent" from "field set to null":
//   - Present=false: field absent from the JSON (leave unchanged)
//   - Present=true, Value=nil: field was JSON null (clear)
//   - Present=true, Value=&v: field carries a value
type Optional[T any] struct {
	Present bool
	Value   *T
}

// UnmarshalJSON is only invoked when the field appears in the payload.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Get returns the carried value, or T's zero value when absent or null.
func (o Optional[T]) Get() T {
	if o.Value == nil {
		var zero T
		return zero
	}
	return *o.Value
}

// Set returns an Optional carrying v. Mostly useful in tests.
func Set[T any](v T) Optional[T] {
	return Optional[T]{Present: true, Value: &v}
}
