package model

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestTruthy(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		value any
		want  bool
	}{
		{"nil", nil, false},
		{"empty string", "", false},
		{"whitespace", "  ", false},
		{"zero string", "0", false},
		{"false string", "false", false},
		{"false bool", false, false},
		{"zero int", 0, false},
		{"empty slice", []any{}, false},
		{"text", "spam", true},
		{"true bool", true, true},
		{"number", 42, true},
		{"float", 1.5, true},
		{"int32", int32(3), true},
		{"list", []string{"a"}, true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Truthy(tc.value); got != tc.want {
				t.Fatalf("Truthy(%#v) = %v, want %v", tc.value, got, tc.want)
			}
		})
	}
}

func TestFilledKeepsFalseString(t *testing.T) {
	t.Parallel()

	if !Filled("false") {
		t.Fatalf("expected string false to survive the filter")
	}
	if Filled(false) {
		t.Fatalf("expected boolean false to be dropped")
	}
	if Filled("") || Filled("0") || Filled(nil) {
		t.Fatalf("expected empty values to be dropped")
	}
}

func TestSubmissionDataMergeDefaultsWin(t *testing.T) {
	t.Parallel()

	data := SubmissionData{"name": "Ann", "honeypot": "", "tags": []any{"a"}}
	merged := data.Merge(map[string]any{"name": "", "age": 18})

	want := SubmissionData{"name": "", "honeypot": "", "tags": []any{"a"}, "age": 18}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
	if data["name"] != "Ann" {
		t.Fatalf("merge mutated the receiver")
	}
}

func TestMakeSubmissionSnapshotsData(t *testing.T) {
	t.Parallel()

	form := FormDefinition{Handle: "contact"}
	data := SubmissionData{"name": "Ann"}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))

	sub := form.MakeSubmission(data, now)
	data["name"] = "Bob"

	if sub.Form != "contact" {
		t.Fatalf("form = %q", sub.Form)
	}
	if sub.ID == "" {
		t.Fatalf("expected generated id")
	}
	if sub.Data["name"] != "Ann" {
		t.Fatalf("submission data leaked later mutation: %v", sub.Data["name"])
	}
	if !sub.CreatedAt.Equal(now) || sub.CreatedAt.Location() != time.UTC {
		t.Fatalf("created at = %v", sub.CreatedAt)
	}
}

func TestFieldDefinitionHelpers(t *testing.T) {
	t.Parallel()

	field := FieldDefinition{Handle: "first_name"}
	if got := field.Label(); got != "First Name" {
		t.Fatalf("Label() = %q", got)
	}
	if !(FieldDefinition{InputType: "Number"}).IsNumeric() {
		t.Fatalf("expected number input type to be numeric")
	}
	if !(FieldDefinition{Type: FieldTypeInteger}).IsNumeric() {
		t.Fatalf("expected integer fields to be numeric")
	}
	if (FieldDefinition{Type: FieldTypeText, InputType: "tel"}).IsNumeric() {
		t.Fatalf("tel input must not be numeric")
	}
	if (FormDefinition{}).HoneypotHandle() != DefaultHoneypot {
		t.Fatalf("expected default honeypot handle")
	}
	if FieldType("wysiwyg").Known() {
		t.Fatalf("unexpected known type")
	}
}
