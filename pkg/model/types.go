package model

import "strings"

// FieldType enumerates the field kinds a form blueprint may declare.
type FieldType string

const (
	FieldTypeText       FieldType = "text"
	FieldTypeTextarea   FieldType = "textarea"
	FieldTypeEmail      FieldType = "email"
	FieldTypeInteger    FieldType = "integer"
	FieldTypeToggle     FieldType = "toggle"
	FieldTypeCheckboxes FieldType = "checkboxes"
	FieldTypeRadio      FieldType = "radio"
	FieldTypeSelect     FieldType = "select"
	FieldTypeHidden     FieldType = "hidden"
	FieldTypeCaptcha    FieldType = "captcha"
	FieldTypeHoneypot   FieldType = "honeypot"
)

// InputTypeNumber is the input type hint that coerces submitted values to
// integers during normalisation.
const InputTypeNumber = "number"

// DefaultHoneypot is used when a form does not name its honeypot field.
const DefaultHoneypot = "honeypot"

var knownFieldTypes = map[FieldType]struct{}{
	FieldTypeText:       {},
	FieldTypeTextarea:   {},
	FieldTypeEmail:      {},
	FieldTypeInteger:    {},
	FieldTypeToggle:     {},
	FieldTypeCheckboxes: {},
	FieldTypeRadio:      {},
	FieldTypeSelect:     {},
	FieldTypeHidden:     {},
	FieldTypeCaptcha:    {},
	FieldTypeHoneypot:   {},
}

// Known reports whether the field type is one the pipeline understands.
func (t FieldType) Known() bool {
	_, ok := knownFieldTypes[t]
	return ok
}

// FieldDefinition describes a single input inside a form blueprint.
type FieldDefinition struct {
	Handle       string            `yaml:"handle" json:"handle"`
	Type         FieldType         `yaml:"type" json:"type"`
	InputType    string            `yaml:"input_type,omitempty" json:"inputType,omitempty"`
	Display      string            `yaml:"display,omitempty" json:"display,omitempty"`
	Instructions string            `yaml:"instructions,omitempty" json:"instructions,omitempty"`
	Validate     []string          `yaml:"validate,omitempty" json:"validate,omitempty"`
	CastBooleans bool              `yaml:"cast_booleans,omitempty" json:"castBooleans,omitempty"`
	Default      any               `yaml:"default,omitempty" json:"default,omitempty"`
	Options      map[string]string `yaml:"options,omitempty" json:"options,omitempty"`
	If           map[string]string `yaml:"if,omitempty" json:"if,omitempty"`
	Unless       map[string]string `yaml:"unless,omitempty" json:"unless,omitempty"`
	Realtime     *bool             `yaml:"realtime,omitempty" json:"realtime,omitempty"`
}

// Label returns the display name, falling back to a humanised handle.
func (f FieldDefinition) Label() string {
	if display := strings.TrimSpace(f.Display); display != "" {
		return display
	}
	return humanize(f.Handle)
}

// IsCaptcha reports whether the field carries a captcha response.
func (f FieldDefinition) IsCaptcha() bool {
	return f.Type == FieldTypeCaptcha
}

// IsNumeric reports whether submitted values should be coerced to integers.
func (f FieldDefinition) IsNumeric() bool {
	return strings.EqualFold(strings.TrimSpace(f.InputType), InputTypeNumber) || f.Type == FieldTypeInteger
}

// EmailConfig describes one notification email sent after a submission.
// Address and subject fields may reference submission values using template
// expressions such as "{{ email }}".
type EmailConfig struct {
	To       string `yaml:"to" json:"to"`
	CC       string `yaml:"cc,omitempty" json:"cc,omitempty"`
	BCC      string `yaml:"bcc,omitempty" json:"bcc,omitempty"`
	From     string `yaml:"from,omitempty" json:"from,omitempty"`
	ReplyTo  string `yaml:"reply_to,omitempty" json:"replyTo,omitempty"`
	Subject  string `yaml:"subject,omitempty" json:"subject,omitempty"`
	Template string `yaml:"template,omitempty" json:"template,omitempty"`
	Site     string `yaml:"site,omitempty" json:"site,omitempty"`
}

// FormDefinition is the blueprint of one form owned by the form registry.
type FormDefinition struct {
	Handle   string            `yaml:"handle" json:"handle"`
	Title    string            `yaml:"title,omitempty" json:"title,omitempty"`
	Fields   []FieldDefinition `yaml:"fields" json:"fields"`
	Honeypot string            `yaml:"honeypot,omitempty" json:"honeypot,omitempty"`
	Store    bool              `yaml:"store" json:"store"`
	Emails   []EmailConfig     `yaml:"email,omitempty" json:"email,omitempty"`
	Realtime bool              `yaml:"realtime,omitempty" json:"realtime,omitempty"`
}

// HoneypotHandle returns the configured honeypot field handle.
func (f FormDefinition) HoneypotHandle() string {
	if handle := strings.TrimSpace(f.Honeypot); handle != "" {
		return handle
	}
	return DefaultHoneypot
}

// Field looks up a field definition by handle.
func (f FormDefinition) Field(handle string) (FieldDefinition, bool) {
	for _, field := range f.Fields {
		if field.Handle == handle {
			return field, true
		}
	}
	return FieldDefinition{}, false
}

func humanize(handle string) string {
	words := strings.FieldsFunc(handle, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
