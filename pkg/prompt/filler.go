package prompt

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/goliatone/go-formsubmit/pkg/component"
	"github.com/goliatone/go-formsubmit/pkg/model"
	"github.com/goliatone/go-formsubmit/pkg/pipeline"
	"github.com/goliatone/go-formsubmit/pkg/validation"
)

// Option configures a Filler.
type Option func(*Filler)

// WithAttempts sets how many times an invalid form is re-asked before
// giving up (default 3).
func WithAttempts(n int) Option {
	return func(f *Filler) {
		if n > 0 {
			f.attempts = n
		}
	}
}

// WithPageSize sets the number of options shown by select prompts.
func WithPageSize(n int) Option {
	return func(f *Filler) {
		if n > 0 {
			f.pageSize = n
		}
	}
}

// Filler walks a component's visible fields and submits the answers.
type Filler struct {
	driver   Driver
	attempts int
	pageSize int
}

// NewFiller builds a Filler on driver.
func NewFiller(driver Driver, options ...Option) *Filler {
	f := &Filler{driver: driver, attempts: 3}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Fill mounts c, asks every visible field and submits. Fields rejected by
// the full validation are reported and asked again.
func (f *Filler) Fill(ctx context.Context, c *component.Component, referer string) (pipeline.Result, error) {
	c.Mount()

	var only map[string]bool
	for attempt := 0; attempt < f.attempts; attempt++ {
		if err := f.ask(ctx, c, only); err != nil {
			return pipeline.Result{Outcome: pipeline.OutcomeError}, err
		}
		result, err := c.Submit(ctx, referer)
		var verr *validation.Errors
		if !errors.As(err, &verr) {
			return result, err
		}
		only = make(map[string]bool, len(verr.Keys()))
		for _, key := range verr.Keys() {
			only[key] = true
			if err := f.driver.Say(ctx, fmt.Sprintf("%s: %s", key, strings.Join(verr.Get(key), " "))); err != nil {
				return pipeline.Result{Outcome: pipeline.OutcomeError}, err
			}
		}
	}
	return pipeline.Result{Outcome: pipeline.OutcomeError}, ErrTooManyAttempts
}

func (f *Filler) ask(ctx context.Context, c *component.Component, only map[string]bool) error {
	form := c.Form()
	for _, field := range form.Fields {
		if only != nil && !only[field.Handle] {
			continue
		}
		if !askable(form, field) {
			continue
		}
		// Conditions may depend on earlier answers.
		visible, err := c.Visible()
		if err != nil {
			return err
		}
		if !slices.Contains(visible, field.Handle) {
			continue
		}
		value, err := f.askField(ctx, c, field)
		if err != nil {
			return err
		}
		if err := c.Update(ctx, field.Handle, value); err != nil && !isValidation(err) {
			return err
		}
	}
	return nil
}

func (f *Filler) askField(ctx context.Context, c *component.Component, field model.FieldDefinition) (any, error) {
	current, _ := c.Data().Value(field.Handle)
	q := Question{
		Label:    field.Label(),
		Help:     field.Instructions,
		Default:  text(current),
		PageSize: f.pageSize,
	}

	switch field.Type {
	case model.FieldTypeToggle:
		q.Kind = KindConfirm
		q.Default = model.Truthy(current)
	case model.FieldTypeSelect, model.FieldTypeRadio:
		q.Kind = KindChoice
		q.Choices = choices(field)
	case model.FieldTypeCheckboxes:
		q.Kind = KindChoices
		q.Choices = choices(field)
		q.Default = selected(current)
	case model.FieldTypeTextarea:
		q.Kind = KindMultiline
		q.Check = f.check(ctx, c, field.Handle)
	default:
		q.Kind = KindText
		q.Check = f.check(ctx, c, field.Handle)
	}

	answer, err := f.driver.Ask(ctx, q)
	if err != nil {
		return nil, err
	}
	if keys, ok := answer.([]string); ok {
		out := make([]any, len(keys))
		for i, key := range keys {
			out[i] = key
		}
		return out, nil
	}
	return answer, nil
}

// check runs the field's realtime rules against a typed answer.
func (f *Filler) check(ctx context.Context, c *component.Component, handle string) func(string) error {
	return func(answer string) error {
		err := c.Update(ctx, handle, answer)
		var verr *validation.Errors
		if errors.As(err, &verr) {
			return errors.New(strings.Join(verr.Get(handle), " "))
		}
		return err
	}
}

func askable(form model.FormDefinition, field model.FieldDefinition) bool {
	if field.Handle == form.HoneypotHandle() {
		return false
	}
	switch field.Type {
	case model.FieldTypeHoneypot, model.FieldTypeHidden, model.FieldTypeCaptcha:
		return false
	}
	return true
}

func isValidation(err error) bool {
	var verr *validation.Errors
	return errors.As(err, &verr)
}

// choices returns the field's options sorted by key.
func choices(field model.FieldDefinition) []Choice {
	keys := slices.Sorted(maps.Keys(field.Options))
	out := make([]Choice, len(keys))
	for i, key := range keys {
		out[i] = Choice{Key: key, Label: field.Options[key]}
		if out[i].Label == "" {
			out[i].Label = key
		}
	}
	return out
}

// selected returns the option keys held by a checkbox value.
func selected(current any) []string {
	switch v := current.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case []string:
		return v
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return nil
}

func text(value any) string {
	if !model.Filled(value) {
		return ""
	}
	return fmt.Sprint(value)
}
