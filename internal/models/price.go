package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParsePrice converts a raw JSON price into a number. Numbers and numeric strings are
// accepted; a blank string reads as 0. The result must be finite and not negative.
func ParsePrice(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}

	var n float64
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		v, ok := parseNumericString(s)
		if !ok {
			return 0, false
		}
		n = v
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, false
		}
	default:
		// null, booleans, objects and arrays
		return 0, false
	}

	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0, false
	}
	if n == 0 {
		// -0
		n = 0
	}
	return n, true
}

// parseNumericString reads a string the way a JavaScript Number() conversion does:
// unsigned 0x/0o/0b integers or a plain decimal with optional exponent. Hex floats,
// underscores and the Inf/NaN spellings strconv also understands are rejected.
func parseNumericString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}

	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			v, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return 0, false
			}
			return float64(v), true
		}
	}

	for _, c := range s {
		if !strings.ContainsRune("0123456789.eE+-", c) {
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// priceTruthy reports whether a supplied price counts as present for partial updates:
// non-zero numbers and non-empty strings do, absent, null, 0, "" and false do not.
func priceTruthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case 'n', 'f':
		return false
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return true
		}
		return s != ""
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return true
		}
		return n != 0
	}
	return true
}
