package validation

import (
	"sort"
	"strings"
)

// Errors collects per-field validation messages keyed by field handle. It
// implements error so callers can return it directly and recover it with
// errors.As.
type Errors struct {
	Fields map[string][]string `json:"errors"`
}

// Error summarises the first message of every failing field.
func (e *Errors) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation: no errors"
	}
	keys := e.Keys()
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, e.Fields[key][0])
	}
	return "validation: " + strings.Join(parts, "; ")
}

// Add appends a message for a field, dropping blanks and duplicates.
func (e *Errors) Add(field string, messages ...string) {
	for _, message := range messages {
		message = strings.TrimSpace(message)
		if message == "" {
			continue
		}
		if e.Fields == nil {
			e.Fields = make(map[string][]string)
		}
		existing := e.Fields[field]
		duplicate := false
		for _, seen := range existing {
			if seen == message {
				duplicate = true
				break
			}
		}
		if !duplicate {
			e.Fields[field] = append(existing, message)
		}
	}
}

// Get returns the messages recorded for a field.
func (e *Errors) Get(field string) []string {
	if e == nil {
		return nil
	}
	return e.Fields[field]
}

// Without returns a copy with the messages for field removed.
func (e *Errors) Without(field string) *Errors {
	out := &Errors{}
	if e == nil {
		return out
	}
	for key, messages := range e.Fields {
		if key == field {
			continue
		}
		out.Add(key, messages...)
	}
	return out
}

// Empty reports whether no messages were recorded.
func (e *Errors) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// Keys returns the failing field handles in sorted order.
func (e *Errors) Keys() []string {
	if e == nil {
		return nil
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (e *Errors) orNil() error {
	if e.Empty() {
		return nil
	}
	return e
}
