package model

import (
	"bytes"
	"encoding/json"
)

// OptionalInt64 tracks presence and value for JSON PATCH semantics.
// A plain *int64 cannot tell "field absent" from "field is null":
//   - Present=false: field absent from JSON (don't change)
//   - Present=true, Value=nil: field is JSON null (clear the reference)
//   - Present=true, Value=&n: field has a value
type OptionalInt64 struct {
	Present bool
	Value   *int64
}

// Int64 returns a present OptionalInt64 holding v.
func Int64(v int64) OptionalInt64 {
	return OptionalInt64{Present: true, Value: &v}
}

// Null returns a present OptionalInt64 holding JSON null.
func Null() OptionalInt64 {
	return OptionalInt64{Present: true}
}

// UnmarshalJSON implements json.Unmarshaler. encoding/json only calls it
// when the key exists in the object, which is what makes Present reliable.
func (o *OptionalInt64) UnmarshalJSON(data []byte) error {
	o.Present = true

	if string(bytes.TrimSpace(data)) == "null" {
		o.Value = nil
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	o.Value = &n
	return nil
}

// MarshalJSON writes the value or null. An absent optional also encodes as
// null; use omitempty-free structs only where that is acceptable.
func (o OptionalInt64) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}
