// Package component is the stateful form a user fills in: it holds the
// current values, validates fields as they change, and hands complete input
// to the submission pipeline.
package component

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-formsubmit/pkg/fields"
	"github.com/goliatone/go-formsubmit/pkg/honeypot"
	"github.com/goliatone/go-formsubmit/pkg/metrics"
	"github.com/goliatone/go-formsubmit/pkg/model"
	"github.com/goliatone/go-formsubmit/pkg/pipeline"
	"github.com/goliatone/go-formsubmit/pkg/validation"
)

var (
	// ErrHandleRequired is returned when no form handle is given.
	ErrHandleRequired = errors.New("component: form handle is required")
	// ErrFormNotFound is returned when the handle is unknown.
	ErrFormNotFound = errors.New("component: form not found")
)

// Finder resolves form definitions by handle.
type Finder interface {
	Find(handle string) (model.FormDefinition, bool)
}

// Option configures a Component.
type Option func(*Component)

// WithID sets the component id used to build DOM-unique field ids.
func WithID(id string) Option {
	return func(c *Component) {
		if strings.TrimSpace(id) != "" {
			c.id = strings.TrimSpace(id)
		}
	}
}

// WithPipeline sets the submission pipeline.
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(c *Component) {
		if p != nil {
			c.pipeline = p
		}
	}
}

// WithValidator sets the validator.
func WithValidator(v *validation.Validator) Option {
	return func(c *Component) {
		if v != nil {
			c.validator = v
		}
	}
}

// WithFieldOptions passes options to every field set the component builds,
// for example fields.WithHydrated to adjust definitions.
func WithFieldOptions(options ...fields.Option) Option {
	return func(c *Component) {
		c.fieldOptions = append(c.fieldOptions, options...)
	}
}

// WithMetrics counts validation failures.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Component) {
		c.metrics = m
	}
}

// Component is one mounted form. It is safe for concurrent use.
type Component struct {
	mu sync.Mutex

	id           string
	form         model.FormDefinition
	honeypot     honeypot.Honeypot
	data         model.SubmissionData
	errors       *validation.Errors
	flash        bool
	fieldOptions []fields.Option
	pipeline     *pipeline.Pipeline
	validator    *validation.Validator
	metrics      *metrics.Metrics
}

// New resolves the form and builds an unmounted component.
func New(finder Finder, handle string, options ...Option) (*Component, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, ErrHandleRequired
	}
	if finder == nil {
		return nil, fmt.Errorf("%w: %q", ErrFormNotFound, handle)
	}
	form, ok := finder.Find(handle)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFormNotFound, handle)
	}

	c := &Component{
		id:     uuid.NewString(),
		form:   form,
		data:   model.SubmissionData{},
		errors: &validation.Errors{},
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	if c.pipeline == nil {
		c.pipeline = pipeline.New()
	}
	if c.validator == nil {
		c.validator = validation.New()
	}
	c.honeypot = honeypot.Make(form.HoneypotHandle(), c.id)
	return c, nil
}

// Mount fills the form with its default values.
func (c *Component) Mount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = model.SubmissionData(c.fieldsLocked().DefaultValues())
	c.errors = &validation.Errors{}
}

// ID returns the component id.
func (c *Component) ID() string { return c.id }

// Form returns the form definition.
func (c *Component) Form() model.FormDefinition { return c.form }

// Honeypot returns the decoy field for this component.
func (c *Component) Honeypot() honeypot.Honeypot { return c.honeypot }

// Data returns a copy of the current values.
func (c *Component) Data() model.SubmissionData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data.Clone()
}

// Fields builds the field set for the current values.
func (c *Component) Fields() *fields.FieldSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fieldsLocked()
}

func (c *Component) fieldsLocked() *fields.FieldSet {
	return fields.Make(c.form, c.id, c.data, c.fieldOptions...)
}

// Errors returns the current validation messages.
func (c *Component) Errors() *validation.Errors {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := &validation.Errors{}
	for _, key := range c.errors.Keys() {
		out.Add(key, c.errors.Get(key)...)
	}
	return out
}

// Visible returns the handles of the fields shown for the current values.
func (c *Component) Visible() ([]string, error) {
	return c.Fields().ProcessFieldConditions()
}

// Fill replaces the current values without validating them. Transports
// that receive a whole form at once use it before Submit.
func (c *Component) Fill(data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = model.SubmissionData(data).Clone()
}

// Update sets one value and validates that field alone with its realtime
// rules. It returns *validation.Errors when the value is rejected.
func (c *Component) Update(_ context.Context, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = value
	set := c.fieldsLocked()
	rules := set.RealtimeValidationRules(key)
	err := c.validator.ValidateOnly(key, rules, c.data, set.ValidationAttributes())

	var verr *validation.Errors
	switch {
	case err == nil:
		c.errors = c.errors.Without(key)
		return nil
	case errors.As(err, &verr):
		c.errors = c.errors.Without(key)
		c.errors.Add(key, verr.Get(key)...)
		c.metrics.ValidationFailed(c.form.Handle, "realtime")
		return err
	default:
		return err
	}
}

// Submit validates every visible field and runs the pipeline. Validation
// failures return *validation.Errors and the pipeline does not run. On
// success or silent failure the values are reset and the flash is raised.
func (c *Component) Submit(ctx context.Context, referer string) (pipeline.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	set := c.fieldsLocked()
	rules, err := set.ValidationRules()
	if err != nil {
		return pipeline.Result{Outcome: pipeline.OutcomeError}, err
	}
	if err := c.validator.Validate(rules, c.data, set.ValidationAttributes()); err != nil {
		var verr *validation.Errors
		if errors.As(err, &verr) {
			c.errors = verr
			c.metrics.ValidationFailed(c.form.Handle, "submit")
		}
		return pipeline.Result{Outcome: pipeline.OutcomeError}, err
	}
	c.errors = &validation.Errors{}

	result, err := c.pipeline.Run(ctx, pipeline.Request{
		Form:     c.form,
		Fields:   set,
		Honeypot: c.honeypot,
		Data:     c.data,
		Referer:  referer,
	})
	if err != nil {
		return result, err
	}
	c.data = result.Data.Clone()
	c.flash = result.Succeeded()
	return result, nil
}

// Flash reports whether the last submit succeeded, then clears the flag.
func (c *Component) Flash() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	flash := c.flash
	c.flash = false
	return flash
}
