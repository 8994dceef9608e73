package query

import (
	"strconv"
	"strings"
)

// CoerceLiteral converts a raw clause value into its typed filter value.
// Coercion is purely syntactic and ignores the column's inferred type:
// "true"/"false" in any casing become bool, a literal without a dot is tried
// as int64, one with a dot as float64, and anything that fails to parse stays
// a string. A numeric-looking literal therefore coerces to a number even when
// the stored cells are raw strings, which makes such comparisons
// false-negative by design.
func CoerceLiteral(value string) FilterValue {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	if strings.Contains(value, ".") {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	} else if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	return value
}

// toNumber converts a value of a numeric dynamic type to float64. Strings are
// deliberately excluded: raw stored cells must not silently promote to
// numbers during comparison.
func toNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	default:
		return 0, false
	}
}
