package forms_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsubmit/pkg/fields"
	"github.com/goliatone/go-formsubmit/pkg/model"
	"github.com/goliatone/go-formsubmit/pkg/testsupport"
)

func TestExampleBlueprintsLoad(t *testing.T) {
	t.Parallel()

	registry := testsupport.MustLoadForms(t, "../../examples/forms")

	var handles []string
	for _, form := range registry.All() {
		handles = append(handles, form.Handle)
	}
	if diff := cmp.Diff([]string{"contact", "newsletter"}, handles); diff != "" {
		t.Fatalf("handles mismatch (-want +got):\n%s", diff)
	}

	contact := testsupport.MustLoadForm(t, "../../examples/forms/contact.yaml")
	if contact.HoneypotHandle() != "website" || len(contact.Emails) != 2 {
		t.Fatalf("unexpected contact blueprint %+v", contact)
	}

	set := fields.Make(contact, "c1", model.SubmissionData{"topic": "sales"})
	visible, err := set.ProcessFieldConditions()
	if err != nil {
		t.Fatalf("conditions: %v", err)
	}
	for _, handle := range visible {
		if handle == "order" {
			t.Fatal("order must be hidden unless topic is support")
		}
	}
}
