package component

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsubmit/pkg/events"
	"github.com/goliatone/go-formsubmit/pkg/fields"
	"github.com/goliatone/go-formsubmit/pkg/forms"
	"github.com/goliatone/go-formsubmit/pkg/model"
	"github.com/goliatone/go-formsubmit/pkg/pipeline"
	"github.com/goliatone/go-formsubmit/pkg/store/memory"
	"github.com/goliatone/go-formsubmit/pkg/validation"
)

func contactRegistry(t *testing.T) *forms.Registry {
	t.Helper()

	off := false
	registry, err := forms.NewRegistry(model.FormDefinition{
		Handle:   "contact",
		Store:    true,
		Realtime: true,
		Fields: []model.FieldDefinition{
			{Handle: "name", Type: model.FieldTypeText, Validate: []string{"required"}},
			{Handle: "email", Type: model.FieldTypeEmail, Validate: []string{"required", "email"}},
			{Handle: "message", Type: model.FieldTypeTextarea, Validate: []string{"max:5"}, Realtime: &off},
			{Handle: "newsletter", Type: model.FieldTypeToggle, CastBooleans: true},
			{Handle: "topic", Type: model.FieldTypeSelect, Default: "general"},
		},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return registry
}

func TestNewErrors(t *testing.T) {
	t.Parallel()

	registry := contactRegistry(t)
	if _, err := New(registry, "  "); !errors.Is(err, ErrHandleRequired) {
		t.Fatalf("expected ErrHandleRequired, got %v", err)
	}
	if _, err := New(registry, "missing"); !errors.Is(err, ErrFormNotFound) {
		t.Fatalf("expected ErrFormNotFound, got %v", err)
	}
}

func TestMountHydratesDefaults(t *testing.T) {
	t.Parallel()

	var hydrated bool
	c, err := New(contactRegistry(t), "contact",
		WithID("cmp-1"),
		WithFieldOptions(fields.WithHydrated(func(*fields.FieldSet) { hydrated = true })),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	c.Mount()

	want := model.SubmissionData{"name": nil, "email": nil, "message": nil, "newsletter": false, "topic": "general"}
	if diff := cmp.Diff(want, c.Data()); diff != "" {
		t.Fatalf("mounted data mismatch (-want +got):\n%s", diff)
	}
	if !hydrated {
		t.Fatal("hydrated hook did not run")
	}
	if got := c.Honeypot(); got.Handle != model.DefaultHoneypot || got.ID != "cmp-1-honeypot" {
		t.Fatalf("unexpected honeypot %+v", got)
	}
	if got := c.Fields().ID("email"); got != "cmp-1-email" {
		t.Fatalf("unexpected field id %q", got)
	}
}

func TestUpdateValidatesOnlyThatField(t *testing.T) {
	t.Parallel()

	c, _ := New(contactRegistry(t), "contact")
	c.Mount()

	err := c.Update(context.Background(), "email", "not-an-email")
	var verr *validation.Errors
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if diff := cmp.Diff([]string{"email"}, verr.Keys()); diff != "" {
		t.Fatalf("realtime validation must be narrowed to the field (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"email"}, c.Errors().Keys()); diff != "" {
		t.Fatalf("component errors mismatch (-want +got):\n%s", diff)
	}

	if err := c.Update(context.Background(), "email", "ann@example.com"); err != nil {
		t.Fatalf("valid update: %v", err)
	}
	if !c.Errors().Empty() {
		t.Fatalf("expected errors cleared, got %v", c.Errors())
	}

	// Realtime is disabled on message, so the max rule waits for submit.
	if err := c.Update(context.Background(), "message", "far too long"); err != nil {
		t.Fatalf("realtime disabled field should not validate: %v", err)
	}
}

func TestSubmitValidationFailureSkipsPipeline(t *testing.T) {
	t.Parallel()

	mem := memory.New()
	c, _ := New(contactRegistry(t), "contact", WithPipeline(pipeline.New(pipeline.WithStore(mem))))
	c.Mount()
	_ = c.Update(context.Background(), "name", "Ann")

	_, err := c.Submit(context.Background(), "")
	var verr *validation.Errors
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if diff := cmp.Diff([]string{"The Email field is required."}, verr.Get("email")); diff != "" {
		t.Fatalf("email messages mismatch (-want +got):\n%s", diff)
	}
	if mem.Len() != 0 {
		t.Fatalf("pipeline must not run on invalid input, stored %d", mem.Len())
	}
	if c.Flash() {
		t.Fatal("flash must stay down after a validation failure")
	}
}

func TestSubmitRunsPipelineAndFlashesOnce(t *testing.T) {
	t.Parallel()

	mem := memory.New()
	bus := events.NewBus()
	var created int
	bus.OnSubmissionCreated(func(context.Context, events.SubmissionCreated) { created++ })

	c, _ := New(contactRegistry(t), "contact",
		WithPipeline(pipeline.New(pipeline.WithStore(mem), pipeline.WithEvents(bus))))
	c.Mount()
	for key, value := range map[string]any{"name": "Ann", "email": "ann@example.com", "newsletter": "true", "topic": "sales"} {
		if err := c.Update(context.Background(), key, value); err != nil {
			t.Fatalf("update %s: %v", key, err)
		}
	}

	result, err := c.Submit(context.Background(), "https://example.com/contact")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Outcome != pipeline.OutcomeSuccess || mem.Len() != 1 || created != 1 {
		t.Fatalf("unexpected result=%+v stored=%d created=%d", result, mem.Len(), created)
	}
	want := model.SubmissionData{"name": "Ann", "email": "ann@example.com", "newsletter": true, "topic": "sales"}
	if diff := cmp.Diff(want, result.Submission.Data); diff != "" {
		t.Fatalf("submission data mismatch (-want +got):\n%s", diff)
	}

	reset := model.SubmissionData{"name": nil, "email": nil, "message": nil, "newsletter": false, "topic": "general"}
	if diff := cmp.Diff(reset, c.Data()); diff != "" {
		t.Fatalf("reset data mismatch (-want +got):\n%s", diff)
	}
	if !c.Flash() {
		t.Fatal("expected success flash")
	}
	if c.Flash() {
		t.Fatal("flash must be single-read")
	}
}

func TestSubmitSpamLooksLikeSuccess(t *testing.T) {
	t.Parallel()

	mem := memory.New()
	c, _ := New(contactRegistry(t), "contact", WithPipeline(pipeline.New(pipeline.WithStore(mem))))
	c.Mount()
	_ = c.Update(context.Background(), "name", "Bot")
	_ = c.Update(context.Background(), "email", "bot@example.com")
	_ = c.Update(context.Background(), c.Honeypot().Handle, "http://spam.example")

	result, err := c.Submit(context.Background(), "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Outcome != pipeline.OutcomeSilentFailure || mem.Len() != 0 {
		t.Fatalf("expected silent failure with nothing stored, got %+v stored=%d", result, mem.Len())
	}
	if !c.Flash() {
		t.Fatal("spam must raise the same flash as success")
	}
}
