package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
)

// Lookup resolves a dotted path through nested maps.
func Lookup(data map[string]any, path string) (any, bool) {
	if data == nil {
		return nil, false
	}
	if v, ok := data[path]; ok {
		return v, true
	}
	parts := strings.Split(path, ".")
	var current any = data
	for _, part := range parts {
		m, ok := asMap(current)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, true
	}
	return nil, false
}

// IsMissing reports whether a value counts as absent for required checks:
// nil, blank strings and empty collections. Numbers and booleans are present.
func IsMissing(value any) bool {
	v, isNil := ozzo.Indirect(value)
	if isNil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	}
	return false
}

// ToNumber coerces numeric values and numeric strings to float64.
func ToNumber(value any) (float64, error) {
	v, isNil := ozzo.Indirect(value)
	if isNil {
		return 0, fmt.Errorf("missing value")
	}
	switch n := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%q is not a number", n)
		}
		return f, nil
	case json.Number:
		return n.Float64()
	case bool:
		return 0, fmt.Errorf("boolean is not a number")
	}
	if f, err := ozzo.ToFloat(v); err == nil {
		return f, nil
	}
	if i, err := ozzo.ToInt(v); err == nil {
		return float64(i), nil
	}
	if u, err := ozzo.ToUint(v); err == nil {
		return float64(u), nil
	}
	return 0, fmt.Errorf("%T is not a number", v)
}

// ToStrings coerces list-like values into a string slice.
func ToStrings(value any) ([]string, bool) {
	v, isNil := ozzo.Indirect(value)
	if isNil {
		return nil, false
	}
	switch list := v.(type) {
	case []string:
		return append([]string{}, list...), true
	case string:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out = append(out, fmt.Sprint(rv.Index(i).Interface()))
	}
	return out, true
}
