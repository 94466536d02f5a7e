package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/papercomputeco/rlmtrace/pkg/rlm"
)

// field is an ordered list of candidate locations for one canonical value.
// Each candidate is a dotted path into the decoded object. The first
// candidate that resolves to a non-null value wins.
type field []string

func (f field) lookup(m map[string]any) (any, bool) {
	for _, path := range f {
		if v, ok := resolve(m, path); ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func resolve(m map[string]any, path string) (any, bool) {
	var cur any = m
	for key := range strings.SplitSeq(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func (f field) str(m map[string]any) string {
	v, ok := f.lookup(m)
	if !ok {
		return ""
	}
	return rlm.Stringify(v)
}

func (f field) integer(m map[string]any) int {
	v, ok := f.lookup(m)
	if !ok {
		return 0
	}
	n, ok := toFloat(v)
	if !ok || n < math.MinInt || n >= math.MaxInt {
		return 0
	}
	return int(n)
}

func (f field) float(m map[string]any) float64 {
	v, ok := f.lookup(m)
	if !ok {
		return 0
	}
	n, _ := toFloat(v)
	return n
}

// object returns the object at the field, or an empty non-nil map.
func (f field) object(m map[string]any) map[string]any {
	v, ok := f.lookup(m)
	if !ok {
		return map[string]any{}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return obj
}

// objects returns the elements of the array at the field that are objects.
func (f field) objects(m map[string]any) []map[string]any {
	v, ok := f.lookup(m)
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil
	}

	out := make([]map[string]any, 0, len(arr))
	for _, el := range arr {
		if obj, ok := el.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func (f field) raw(m map[string]any) any {
	v, _ := f.lookup(m)
	return v
}

// toFloat coerces JSON numbers, Go integers and numeric strings. NaN and
// infinities are rejected.
func toFloat(v any) (float64, bool) {
	f, ok := coerceFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func coerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
