package forms

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsubmit/pkg/model"
)

const contactYAML = `
title: Contact
honeypot: winnie
store: true
realtime: true
fields:
  - handle: name
    display: Name
    validate: [required]
  - handle: age
    input_type: number
  - handle: subscribe
    type: toggle
    cast_booleans: true
  - handle: topics
    type: checkboxes
    if:
      subscribe: is true
email:
  - to: team@example.com
    subject: "New message from {{ name }}"
`

func TestLoadFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"forms/contact.yaml":  {Data: []byte(contactYAML)},
		"forms/newsletter.yml": {Data: []byte("handle: news\nfields:\n  - handle: email\n    type: email\n")},
		"forms/readme.md":     {Data: []byte("ignored")},
	}

	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if err := reg.LoadFS(fsys, "forms"); err != nil {
		t.Fatalf("LoadFS: %v", err)
	}

	form, ok := reg.Find("contact")
	if !ok {
		t.Fatalf("contact form not registered")
	}
	want := model.FormDefinition{
		Handle:   "contact",
		Title:    "Contact",
		Honeypot: "winnie",
		Store:    true,
		Realtime: true,
		Fields: []model.FieldDefinition{
			{Handle: "name", Type: model.FieldTypeText, Display: "Name", Validate: []string{"required"}},
			{Handle: "age", Type: model.FieldTypeText, InputType: "number"},
			{Handle: "subscribe", Type: model.FieldTypeToggle, CastBooleans: true},
			{Handle: "topics", Type: model.FieldTypeCheckboxes, If: map[string]string{"subscribe": "is true"}},
		},
		Emails: []model.EmailConfig{{To: "team@example.com", Subject: "New message from {{ name }}"}},
	}
	if diff := cmp.Diff(want, form); diff != "" {
		t.Fatalf("form mismatch (-want +got):\n%s", diff)
	}

	if _, ok := reg.Find("news"); !ok {
		t.Fatalf("explicit handle not honoured")
	}
	if got := len(reg.All()); got != 2 {
		t.Fatalf("All() = %d forms", got)
	}
}

func TestRegisterRejectsInvalidForms(t *testing.T) {
	t.Parallel()

	reg, _ := NewRegistry()
	cases := []model.FormDefinition{
		{},
		{Handle: "a", Fields: []model.FieldDefinition{{Type: model.FieldTypeText}}},
		{Handle: "b", Fields: []model.FieldDefinition{{Handle: "x", Type: "text"}, {Handle: "x", Type: "text"}}},
		{Handle: "c", Fields: []model.FieldDefinition{{Handle: "x", Type: "wysiwyg"}}},
	}
	for _, form := range cases {
		if err := reg.Register(form); err == nil {
			t.Fatalf("expected error for %+v", form)
		}
	}

	if err := reg.Register(model.FormDefinition{Handle: "ok"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register(model.FormDefinition{Handle: "ok"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}
