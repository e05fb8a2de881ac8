package metrics

import "math"

// MergeInto copies every field of src into dst, overwriting existing keys,
// and returns dst. A nil src contributes nothing.
func MergeInto(dst, src Record) Record {
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Interesting returns the fields of r that carry a truthy or non-empty value,
// excluding the bookkeeping columns, in schema order.
func Interesting(r Record) []string {
	var fields []string
	for _, c := range schema {
		if c.name == Timestamp || c.name == CheckDurationMs {
			continue
		}
		if v, ok := r[c.name]; ok && Truthy(v) {
			fields = append(fields, c.name)
		}
	}
	return fields
}
