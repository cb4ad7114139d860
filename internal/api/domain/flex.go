package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Flex holds a JSON value that callers may send either as a number or as a string,
// such as a salary written as 120000 or "₹1,20,000"
type Flex struct {
	set     bool
	numeric bool
	number  float64
	raw     string
}

// FlexInt returns a numeric Flex
func FlexInt(v int64) Flex {
	return Flex{set: true, numeric: true, number: float64(v), raw: strconv.FormatInt(v, 10)}
}

// FlexString returns a string Flex
func FlexString(s string) Flex {
	return Flex{set: true, raw: s}
}

// Present reports whether a non-blank value was supplied
func (f Flex) Present() bool {
	if !f.set {
		return false
	}
	return f.numeric || strings.TrimSpace(f.raw) != ""
}

// Number returns the numeric value and whether the JSON value was a number
func (f Flex) Number() (float64, bool) {
	return f.number, f.set && f.numeric
}

// String returns the value as it was written by the caller
func (f Flex) String() string {
	return f.raw
}

// UnmarshalJSON accepts null, numbers and strings
func (f *Flex) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = Flex{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}

	n, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("expected number or string, got %s", string(data))
	}
	*f = Flex{set: true, numeric: true, number: n, raw: string(data)}
	return nil
}

// MarshalJSON writes numbers as numbers and everything else as strings
func (f Flex) MarshalJSON() ([]byte, error) {
	switch {
	case !f.set:
		return []byte("null"), nil
	case f.numeric:
		return []byte(f.raw), nil
	default:
		return json.Marshal(f.raw)
	}
}
