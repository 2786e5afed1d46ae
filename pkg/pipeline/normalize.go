package pipeline

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/goliatone/go-formsubmit/pkg/fields"
	"github.com/goliatone/go-formsubmit/pkg/model"
)

// Normalize returns the data that may be stored: unknown keys, the honeypot
// and captcha responses are dropped, values are cast per field and empty
// values are filtered out. The input is not modified.
func Normalize(set *fields.FieldSet, honeypotHandle string, data model.SubmissionData) model.SubmissionData {
	out := make(model.SubmissionData, len(data))
	for key, raw := range data {
		if reserved(set, honeypotHandle, key) {
			continue
		}
		field, ok := set.Get(key)
		if !ok {
			continue
		}
		value := NormalizeValue(field, raw)
		if !model.Filled(value) {
			continue
		}
		out[key] = value
	}
	return out
}

// Scrub drops the honeypot and captcha keys from data in place. Keys without
// a field definition are left alone so before-submit hooks can add metadata.
func Scrub(set *fields.FieldSet, honeypotHandle string, data model.SubmissionData) model.SubmissionData {
	for key := range data {
		if reserved(set, honeypotHandle, key) {
			delete(data, key)
		}
	}
	return data
}

func reserved(set *fields.FieldSet, honeypotHandle, key string) bool {
	if key == honeypotHandle {
		return true
	}
	field, ok := set.Get(key)
	return ok && (field.Type == model.FieldTypeHoneypot || field.IsCaptcha())
}

// NormalizeValue casts one raw value according to its field definition.
func NormalizeValue(field model.FieldDefinition, raw any) any {
	if field.CastBooleans {
		if s, ok := raw.(string); ok && (s == "true" || s == "false") {
			return s == "true"
		}
	}
	if field.IsNumeric() {
		return toInt(raw)
	}
	return cloneValue(raw)
}

func cloneValue(raw any) any {
	return model.SubmissionData{"v": raw}.Clone()["v"]
}

// toInt converts like a loose integer cast: leading digits of a string are
// used, anything unparseable becomes 0.
func toInt(raw any) int {
	switch v := raw.(type) {
	case nil:
		return 0
	case int:
		return v
	case bool:
		if v {
			return 1
		}
		return 0
	case float64:
		return truncate(v)
	case float32:
		return truncate(float64(v))
	case string:
		return leadingInt(v)
	case []any:
		if len(v) > 0 {
			return 1
		}
		return 0
	case map[string]any:
		if len(v) > 0 {
			return 1
		}
		return 0
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return truncate(rv.Float())
	case reflect.String:
		return leadingInt(rv.String())
	}
	return 0
}

func truncate(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

func leadingInt(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	// Fractions and exponents ("1.5", "1e3") go through the float parser.
	if end < len(s) && (s[end] == '.' || s[end] == 'e' || s[end] == 'E') {
		if f, ok := leadingFloat(s); ok {
			return truncate(f)
		}
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		if s[0] == '-' {
			return math.MinInt
		}
		return math.MaxInt
	}
	return n
}

func leadingFloat(s string) (float64, bool) {
	for end := len(s); end > 0; end-- {
		if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
