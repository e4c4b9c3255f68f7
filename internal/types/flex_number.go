package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexInt is an int that can be unmarshaled from a JSON number, a numeric
// string, or a percentage string such as "85%".
type FlexInt int

// UnmarshalJSON implements the json.Unmarshaler interface.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexInt(int(n))
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		val, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("FlexInt: invalid integer string %q: %w", s, err)
		}
		*f = FlexInt(val)
		return nil
	}

	return fmt.Errorf("FlexInt: unexpected type, expected number or string")
}

// Int converts FlexInt back to int.
func (f FlexInt) Int() int {
	return int(f)
}
