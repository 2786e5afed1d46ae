package model

import (
	"fmt"
	"reflect"
	"strings"
)

// SubmissionData maps field handles to submitted values.
type SubmissionData map[string]any

// Clone returns a shallow copy with nested maps and slices copied as well.
func (d SubmissionData) Clone() SubmissionData {
	out := make(SubmissionData, len(d))
	for key, value := range d {
		out[key] = deepCopy(value)
	}
	return out
}

// Merge returns a copy of d overlaid with other. Keys present in other win.
func (d SubmissionData) Merge(other map[string]any) SubmissionData {
	out := d.Clone()
	for key, value := range other {
		out[key] = deepCopy(value)
	}
	return out
}

// Value returns the value stored for key.
func (d SubmissionData) Value(key string) (any, bool) {
	value, ok := d[key]
	return value, ok
}

// Truthy reports whether a submitted value counts as filled in. Empty strings,
// "0", "false", false, zero numbers, nil and empty collections are falsy.
func Truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		trimmed := strings.TrimSpace(v)
		return trimmed != "" && trimmed != "0" && !strings.EqualFold(trimmed, "false")
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case []string:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return fmt.Sprint(value) != ""
}

// Filled reports whether a normalised value survives the empty-value filter.
// Unlike Truthy, the string "false" counts as filled: only booleans produced
// by casting are dropped when false.
func Filled(value any) bool {
	if s, ok := value.(string); ok {
		return s != "" && s != "0"
	}
	return Truthy(value)
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = deepCopy(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	case []string:
		return append([]string(nil), typed...)
	default:
		return typed
	}
}
