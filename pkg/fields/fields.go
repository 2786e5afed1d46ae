// Package fields resolves a form definition into the field set used by the
// submission pipeline and the validator: default values, per-field lookups,
// validation rules and conditional visibility for the current data.
package fields

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formsubmit/pkg/model"
	"github.com/goliatone/go-formsubmit/pkg/visibility"
	"github.com/goliatone/go-formsubmit/pkg/visibility/expr"
)

// Option configures a FieldSet at construction time.
type Option func(*FieldSet)

// WithEvaluator overrides the visibility evaluator.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(s *FieldSet) {
		if evaluator != nil {
			s.evaluator = evaluator
		}
	}
}

// WithExtras exposes additional values to visibility rules under `extras.`.
func WithExtras(extras map[string]any) Option {
	return func(s *FieldSet) {
		s.extras = extras
	}
}

// WithHydrated registers a hook that runs once the field set is built, letting
// hosts adjust definitions (labels, defaults, rules) before use.
func WithHydrated(fn func(*FieldSet)) Option {
	return func(s *FieldSet) {
		s.hydrated = fn
	}
}

// FieldSet is the resolved view of a form's fields for one component and one
// snapshot of data. Methods never mutate the receiver; WithData returns a copy.
type FieldSet struct {
	form        model.FormDefinition
	componentID string
	definitions []model.FieldDefinition
	index       map[string]int
	data        model.SubmissionData
	evaluator   visibility.Evaluator
	extras      map[string]any
	hydrated    func(*FieldSet)
}

// Make builds the field set for a form definition.
func Make(form model.FormDefinition, componentID string, data map[string]any, options ...Option) *FieldSet {
	s := &FieldSet{
		form:        form,
		componentID: componentID,
		definitions: append([]model.FieldDefinition(nil), form.Fields...),
		data:        model.SubmissionData(data).Clone(),
		evaluator:   expr.New(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	s.reindex()
	if s.hydrated != nil {
		s.hydrated(s)
		s.reindex()
	}
	return s
}

func (s *FieldSet) reindex() {
	s.index = make(map[string]int, len(s.definitions))
	for i, field := range s.definitions {
		s.index[field.Handle] = i
	}
}

// Form returns the underlying form definition.
func (s *FieldSet) Form() model.FormDefinition { return s.form }

// Data returns a copy of the data snapshot the set was built with.
func (s *FieldSet) Data() model.SubmissionData { return s.data.Clone() }

// All returns the field definitions in blueprint order.
func (s *FieldSet) All() []model.FieldDefinition {
	return append([]model.FieldDefinition(nil), s.definitions...)
}

// Get returns the definition for key.
func (s *FieldSet) Get(key string) (model.FieldDefinition, bool) {
	i, ok := s.index[key]
	if !ok {
		return model.FieldDefinition{}, false
	}
	return s.definitions[i], true
}

// Update replaces a definition in place. Intended for hydrated hooks.
func (s *FieldSet) Update(key string, fn func(*model.FieldDefinition)) bool {
	i, ok := s.index[key]
	if !ok || fn == nil {
		return false
	}
	fn(&s.definitions[i])
	return true
}

// WithData returns a copy of the set bound to new data.
func (s *FieldSet) WithData(data map[string]any) *FieldSet {
	clone := *s
	clone.definitions = append([]model.FieldDefinition(nil), s.definitions...)
	clone.data = model.SubmissionData(data).Clone()
	clone.reindex()
	return &clone
}

// ID returns the DOM-unique id for a field within this component.
func (s *FieldSet) ID(key string) string {
	if s.componentID == "" {
		return key
	}
	return s.componentID + "-" + key
}

// DefaultValues returns the default for every field that is not a captcha or
// the honeypot. Fields without a default map to their empty value.
func (s *FieldSet) DefaultValues() map[string]any {
	honeypot := s.form.HoneypotHandle()
	out := make(map[string]any, len(s.definitions))
	for _, field := range s.definitions {
		if field.Handle == honeypot || field.Type == model.FieldTypeHoneypot || field.IsCaptcha() {
			continue
		}
		out[field.Handle] = defaultValue(field)
	}
	return out
}

func defaultValue(field model.FieldDefinition) any {
	if field.Default != nil {
		return field.Default
	}
	switch field.Type {
	case model.FieldTypeCheckboxes:
		return []any{}
	case model.FieldTypeToggle:
		return false
	default:
		return nil
	}
}

// ValidationRules returns rules for every visible, validatable field. Hidden
// fields and the honeypot are skipped so conditional fields do not block
// submission when they are not shown.
func (s *FieldSet) ValidationRules() (map[string][]string, error) {
	visible, err := s.visibleSet()
	if err != nil {
		return nil, err
	}
	rules := make(map[string][]string, len(s.definitions))
	for _, field := range s.definitions {
		if !s.validatable(field) {
			continue
		}
		if _, ok := visible[field.Handle]; !ok {
			continue
		}
		rules[field.Handle] = append([]string(nil), field.Validate...)
	}
	return rules, nil
}

// RealtimeValidationRules returns the rules for key alone, or an empty map
// when realtime validation is disabled for the field or the form.
func (s *FieldSet) RealtimeValidationRules(key string) map[string][]string {
	field, ok := s.Get(key)
	if !ok || !s.validatable(field) || field.IsCaptcha() || !s.realtime(field) {
		return map[string][]string{}
	}
	return map[string][]string{key: append([]string(nil), field.Validate...)}
}

func (s *FieldSet) realtime(field model.FieldDefinition) bool {
	if field.Realtime != nil {
		return *field.Realtime
	}
	return s.form.Realtime
}

func (s *FieldSet) validatable(field model.FieldDefinition) bool {
	if field.Handle == s.form.HoneypotHandle() || field.Type == model.FieldTypeHoneypot {
		return false
	}
	return len(field.Validate) > 0
}

// ValidationAttributes maps handles to display labels for error messages.
func (s *FieldSet) ValidationAttributes() map[string]string {
	out := make(map[string]string, len(s.definitions))
	for _, field := range s.definitions {
		out[field.Handle] = field.Label()
	}
	return out
}

// ProcessFieldConditions evaluates every field's if/unless conditions against
// the bound data and returns the handles that are visible, in blueprint order.
func (s *FieldSet) ProcessFieldConditions() ([]string, error) {
	var visible []string
	for _, field := range s.definitions {
		ok, err := s.Visible(field)
		if err != nil {
			return nil, err
		}
		if ok {
			visible = append(visible, field.Handle)
		}
	}
	return visible, nil
}

// Visible evaluates one field's conditions.
func (s *FieldSet) Visible(field model.FieldDefinition) (bool, error) {
	rule := visibility.Rule(field.If, field.Unless)
	if strings.TrimSpace(rule) == "" {
		return true, nil
	}
	ok, err := s.evaluator.Eval(field.Handle, rule, visibility.Context{
		Values: s.data,
		Extras: s.extras,
	})
	if err != nil {
		return false, fmt.Errorf("fields: evaluate conditions for %q: %w", field.Handle, err)
	}
	return ok, nil
}

func (s *FieldSet) visibleSet() (map[string]struct{}, error) {
	handles, err := s.ProcessFieldConditions()
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(handles))
	for _, handle := range handles {
		out[handle] = struct{}{}
	}
	return out, nil
}
