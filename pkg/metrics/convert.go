package metrics

import (
	"fmt"
	"strconv"
	"strings"
)

// ToFloat64Ok converts a numeric or boolean value to float64, returning
// success status. Booleans map to 0 and 1.
func ToFloat64Ok(v interface{}) (float64, bool) {
	if v == nil {
		return 0, false
	}

	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// Truthy reports whether v is worth showing on the console: true booleans,
// nonzero numbers and non-empty strings.
func Truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	default:
		f, ok := ToFloat64Ok(val)
		return ok && f != 0
	}
}

// FormatValue converts a field value to its CSV cell text. nil is empty.
func FormatValue(v interface{}) string {
	if v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ParseValue converts CSV cell text back into a value of the column's
// declared kind. Empty cells and unknown columns report ok=false.
func ParseValue(field, cell string) (interface{}, bool) {
	if cell == "" {
		return nil, false
	}
	kind, known := kinds[field]
	if !known {
		return nil, false
	}

	switch kind {
	case KindFloat:
		f, err := strconv.ParseFloat(cell, 64)
		return f, err == nil
	case KindInt:
		i, err := strconv.ParseInt(cell, 10, 64)
		return i, err == nil
	case KindBool:
		switch {
		case strings.EqualFold(cell, "true"):
			return true, true
		case strings.EqualFold(cell, "false"):
			return false, true
		}
		return nil, false
	default:
		return cell, true
	}
}
