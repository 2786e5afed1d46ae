// Package honeypot describes the decoy field used to filter automated
// submissions. Humans never see the field; any value in it marks the request
// as spam.
package honeypot

import (
	"reflect"
	"strings"

	"github.com/goliatone/go-formsubmit/pkg/model"
)

// Honeypot names the decoy field for one form component instance.
type Honeypot struct {
	Handle string
	ID     string
}

// Make builds the honeypot for a component. The ID is unique per component so
// several forms can share a page.
func Make(handle, componentID string) Honeypot {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		handle = model.DefaultHoneypot
	}
	id := handle
	if componentID = strings.TrimSpace(componentID); componentID != "" {
		id = componentID + "-" + handle
	}
	return Honeypot{Handle: handle, ID: id}
}

// IsSpam reports whether the decoy field carries a value. Strings are compared
// verbatim: only "", "0" and "false" are clean, so whitespace or "FALSE" is spam.
func (h Honeypot) IsSpam(data map[string]any) bool {
	return filled(data[h.Handle])
}

func filled(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != "" && v != "0" && v != "false"
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
	return true
}
