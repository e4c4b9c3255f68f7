package types

import (
	"encoding/json"
	"strings"
)

// FlexList is a slice that can be unmarshaled from a JSON array, a single JSON
// value, or a comma separated string (as sent by tag and label inputs).
type FlexList[T any] []T

// UnmarshalJSON implements the json.Unmarshaler interface.
func (f *FlexList[T]) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	if data[0] == '[' {
		var slice []T
		if err := json.Unmarshal(data, &slice); err != nil {
			return err
		}
		*f = FlexList[T](slice)
		return nil
	}

	// Comma separated strings only split when T is itself a string
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if _, ok := any(*new(T)).(string); ok && strings.Contains(s, ",") {
			out := make(FlexList[T], 0)
			for _, part := range strings.Split(s, ",") {
				part = strings.TrimSpace(part)
				if part == "" {
					continue
				}
				out = append(out, any(part).(T))
			}
			*f = out
			return nil
		}
	}

	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	*f = FlexList[T]{item}
	return nil
}

// Slice converts FlexList[T] back to []T.
func (f FlexList[T]) Slice() []T {
	return []T(f)
}
