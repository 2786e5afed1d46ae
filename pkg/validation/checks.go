package validation

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

type checkContext struct {
	field   string
	value   any
	present bool
	rule    Rule
	rules   []Rule
	data    map[string]any
	label   func(field string) string
}

type failure struct {
	key     string
	replace map[string]string
}

type checkFunc func(c checkContext) *failure

func fail(key string, pairs ...string) *failure {
	f := &failure{key: key}
	if len(pairs) > 1 {
		f.replace = make(map[string]string, len(pairs)/2)
		for i := 0; i+1 < len(pairs); i += 2 {
			f.replace[pairs[i]] = pairs[i+1]
		}
	}
	return f
}

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	dateLayouts  = []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02 15:04",
		"2006-01-02 15:04:05",
		"01/02/2006",
		"2 January 2006",
	}
)

func pass(checkContext) *failure { return nil }

func checkRequired(c checkContext) *failure {
	if isEmpty(c.value) {
		return fail("required")
	}
	return nil
}

func checkRequiredIf(c checkContext) *failure {
	other := c.rule.Params[0]
	actual := toString(c.data[other])
	for _, candidate := range c.rule.Params[1:] {
		if actual == candidate && isEmpty(c.value) {
			return fail("required_if", ":other", c.label(other), ":value", candidate)
		}
	}
	return nil
}

func checkAccepted(c checkContext) *failure {
	switch strings.ToLower(toString(c.value)) {
	case "yes", "on", "1", "true":
		return nil
	}
	return fail("accepted")
}

func checkString(c checkContext) *failure {
	if _, ok := c.value.(string); !ok {
		return fail("string")
	}
	return nil
}

func checkEmail(c checkContext) *failure {
	if !emailPattern.MatchString(toString(c.value)) {
		return fail("email")
	}
	return nil
}

func checkURL(c checkContext) *failure {
	u, err := url.Parse(toString(c.value))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fail("url")
	}
	return nil
}

func checkNumeric(c checkContext) *failure {
	if _, ok := toNumber(c.value); !ok {
		return fail("numeric")
	}
	return nil
}

func checkInteger(c checkContext) *failure {
	switch v := c.value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case float64:
		if v == float64(int64(v)) {
			return nil
		}
	case string:
		if _, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return nil
		}
	}
	return fail("integer")
}

func checkBoolean(c checkContext) *failure {
	switch v := c.value.(type) {
	case bool:
		return nil
	case int:
		if v == 0 || v == 1 {
			return nil
		}
	case string:
		switch v {
		case "0", "1", "true", "false":
			return nil
		}
	}
	return fail("boolean")
}

func checkMin(c checkContext) *failure {
	limit, err := strconv.ParseFloat(c.rule.Params[0], 64)
	if err != nil || size(c) < limit {
		return fail("min."+sizeKind(c), ":min", c.rule.Params[0])
	}
	return nil
}

func checkMax(c checkContext) *failure {
	limit, err := strconv.ParseFloat(c.rule.Params[0], 64)
	if err != nil || size(c) > limit {
		return fail("max."+sizeKind(c), ":max", c.rule.Params[0])
	}
	return nil
}

func checkBetween(c checkContext) *failure {
	lo, errLo := strconv.ParseFloat(c.rule.Params[0], 64)
	hi, errHi := strconv.ParseFloat(c.rule.Params[1], 64)
	got := size(c)
	if errLo != nil || errHi != nil || got < lo || got > hi {
		return fail("between."+sizeKind(c), ":min", c.rule.Params[0], ":max", c.rule.Params[1])
	}
	return nil
}

func checkSize(c checkContext) *failure {
	want, err := strconv.ParseFloat(c.rule.Params[0], 64)
	if err != nil || size(c) != want {
		return fail("size."+sizeKind(c), ":size", c.rule.Params[0])
	}
	return nil
}

func checkIn(c checkContext) *failure {
	for _, value := range values(c.value) {
		if !contains(c.rule.Params, value) {
			return fail("in")
		}
	}
	return nil
}

func checkNotIn(c checkContext) *failure {
	for _, value := range values(c.value) {
		if contains(c.rule.Params, value) {
			return fail("not_in")
		}
	}
	return nil
}

func checkRegex(c checkContext) *failure {
	re, err := compilePattern(c.rule.Params[0])
	if err != nil || !re.MatchString(toString(c.value)) {
		return fail("regex")
	}
	return nil
}

func checkAlpha(c checkContext) *failure {
	return runesOnly(c, "alpha", unicode.IsLetter)
}

func checkAlphaNum(c checkContext) *failure {
	return runesOnly(c, "alpha_num", func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	})
}

func checkAlphaDash(c checkContext) *failure {
	return runesOnly(c, "alpha_dash", func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_'
	})
}

func checkSame(c checkContext) *failure {
	other := c.rule.Params[0]
	if toString(c.value) != toString(c.data[other]) {
		return fail("same", ":other", c.label(other))
	}
	return nil
}

func checkDifferent(c checkContext) *failure {
	other := c.rule.Params[0]
	if toString(c.value) == toString(c.data[other]) {
		return fail("different", ":other", c.label(other))
	}
	return nil
}

func checkConfirmed(c checkContext) *failure {
	if toString(c.value) != toString(c.data[c.field+"_confirmation"]) {
		return fail("confirmed")
	}
	return nil
}

func checkDate(c checkContext) *failure {
	raw := strings.TrimSpace(toString(c.value))
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, raw); err == nil {
			return nil
		}
	}
	return fail("date")
}

func runesOnly(c checkContext, key string, allowed func(rune) bool) *failure {
	for _, r := range toString(c.value) {
		if !allowed(r) {
			return fail(key)
		}
	}
	return nil
}

func compilePattern(raw string) (*regexp.Regexp, error) {
	pattern := strings.TrimSpace(raw)
	if len(pattern) >= 2 && pattern[0] == '/' {
		end := strings.LastIndex(pattern, "/")
		if end > 0 {
			flags := pattern[end+1:]
			pattern = pattern[1:end]
			if strings.Contains(flags, "i") {
				pattern = "(?i)" + pattern
			}
		}
	}
	return regexp.Compile(pattern)
}

// sizeKind mirrors how min/max/between/size interpret a value: numbers when
// the field is declared numeric, element counts for lists, characters
// otherwise.
func sizeKind(c checkContext) string {
	if hasRule(c.rules, "numeric") || hasRule(c.rules, "integer") {
		return "numeric"
	}
	switch c.value.(type) {
	case int, int32, int64, float32, float64:
		return "numeric"
	}
	rv := reflect.ValueOf(c.value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return "array"
	}
	return "string"
}

func size(c checkContext) float64 {
	switch sizeKind(c) {
	case "numeric":
		n, _ := toNumber(c.value)
		return n
	case "array":
		return float64(reflect.ValueOf(c.value).Len())
	default:
		return float64(len([]rune(toString(c.value))))
	}
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	}
	return false
}

func toString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(v)
	}
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func values(value any) []string {
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, toString(rv.Index(i).Interface()))
		}
		return out
	}
	return []string{toString(value)}
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
