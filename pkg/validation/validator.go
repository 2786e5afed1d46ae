package validation

import (
	"sort"
	"strings"
)

// Option configures a Validator.
type Option func(*Validator)

// WithMessages overrides messages. Keys are either a rule key ("required",
// "min.string") or a field-scoped key ("email.required").
func WithMessages(messages map[string]string) Option {
	return func(v *Validator) {
		for key, message := range messages {
			v.messages[strings.TrimSpace(key)] = message
		}
	}
}

// Validator evaluates rule sets against submission data. It holds no
// per-request state and is safe for concurrent use.
type Validator struct {
	messages map[string]string
}

// New constructs a Validator with the default English messages.
func New(options ...Option) *Validator {
	v := &Validator{messages: make(map[string]string, len(defaultMessages))}
	for key, message := range defaultMessages {
		v.messages[key] = message
	}
	for _, opt := range options {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Validate checks every field in rules. It returns *Errors when at least one
// field fails and a plain error when a rule string cannot be parsed.
func (v *Validator) Validate(rules map[string][]string, data map[string]any, attributes map[string]string) error {
	result := &Errors{}
	keys := make([]string, 0, len(rules))
	for key := range rules {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		messages, err := v.Field(key, rules[key], data, attributes)
		if err != nil {
			return err
		}
		result.Add(key, messages...)
	}
	return result.orNil()
}

// ValidateOnly checks a single field against its narrowed rule set. Rules for
// other fields are ignored even when present in rules.
func (v *Validator) ValidateOnly(key string, rules map[string][]string, data map[string]any, attributes map[string]string) error {
	fieldRules, ok := rules[key]
	if !ok {
		return nil
	}
	messages, err := v.Field(key, fieldRules, data, attributes)
	if err != nil {
		return err
	}
	result := &Errors{}
	result.Add(key, messages...)
	return result.orNil()
}

// Field returns the messages produced by one field's rules. Non-implicit
// rules are skipped for empty values; "sometimes" skips absent keys and
// "nullable" skips nil values; "bail" stops at the first failure.
func (v *Validator) Field(key string, raw []string, data map[string]any, attributes map[string]string) ([]string, error) {
	rules, err := ParseRules(raw)
	if err != nil {
		return nil, err
	}

	value, present := data[key]
	if hasRule(rules, "sometimes") && !present {
		return nil, nil
	}
	if hasRule(rules, "nullable") && value == nil {
		return nil, nil
	}

	label := func(field string) string {
		if name, ok := attributes[field]; ok && strings.TrimSpace(name) != "" {
			return name
		}
		return strings.ReplaceAll(field, "_", " ")
	}

	bail := hasRule(rules, "bail")
	empty := isEmpty(value)
	var messages []string
	for _, rule := range rules {
		spec := registry[rule.Name]
		if empty && !spec.implicit {
			continue
		}
		f := spec.check(checkContext{
			field:   key,
			value:   value,
			present: present,
			rule:    rule,
			rules:   rules,
			data:    data,
			label:   label,
		})
		if f == nil {
			continue
		}
		messages = append(messages, v.render(key, rule.Name, f, label(key)))
		if bail {
			break
		}
	}
	return messages, nil
}

func (v *Validator) render(field, ruleName string, f *failure, attribute string) string {
	message, ok := v.messages[field+"."+ruleName]
	if !ok {
		message, ok = v.messages[f.key]
	}
	if !ok {
		message = "The :attribute field is invalid."
	}
	message = strings.ReplaceAll(message, ":attribute", attribute)
	for placeholder, value := range f.replace {
		message = strings.ReplaceAll(message, placeholder, value)
	}
	return message
}
