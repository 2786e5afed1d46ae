package validation

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseRules(t *testing.T) {
	t.Parallel()

	rules, err := ParseRules([]string{"required|email", "between:1, 10", "regex:/^(a|b)$/"})
	if err != nil {
		t.Fatalf("ParseRules: %v", err)
	}
	want := []Rule{
		{Name: "required"},
		{Name: "email"},
		{Name: "between", Params: []string{"1", "10"}},
		{Name: "regex", Params: []string{"/^(a|b)$/"}},
	}
	if diff := cmp.Diff(want, rules); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRulesErrors(t *testing.T) {
	t.Parallel()

	if _, err := ParseRules([]string{"required|shiny"}); !errors.Is(err, ErrUnknownRule) {
		t.Fatalf("expected ErrUnknownRule, got %v", err)
	}
	if _, err := ParseRules([]string{"between:1"}); err == nil {
		t.Fatalf("expected parameter count error")
	}
}

func TestValidateCollectsFieldErrors(t *testing.T) {
	t.Parallel()

	v := New()
	rules := map[string][]string{
		"name":  {"required"},
		"email": {"required", "email"},
		"age":   {"integer", "min:18"},
		"topic": {"in:sales,support"},
	}
	data := map[string]any{
		"name":  "",
		"email": "not-an-email",
		"age":   "12",
		"topic": "support",
	}
	attrs := map[string]string{"email": "Email address"}

	err := v.Validate(rules, data, attrs)
	var verrs *Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected *Errors, got %v", err)
	}

	want := map[string][]string{
		"name":  {"The name field is required."},
		"email": {"The Email address field must be a valid email address."},
		"age":   {"The age field must be at least 18."},
	}
	if diff := cmp.Diff(want, verrs.Fields); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"age", "email", "name"}, verrs.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestValidatePassesReturnsNil(t *testing.T) {
	t.Parallel()

	err := New().Validate(
		map[string][]string{"name": {"required", "max:5"}, "phone": {"numeric"}},
		map[string]any{"name": "Ann", "phone": ""},
		nil,
	)
	if err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestValidateOnlyNarrowsToField(t *testing.T) {
	t.Parallel()

	rules := map[string][]string{
		"name":  {"required"},
		"email": {"email"},
	}
	data := map[string]any{"email": "nope"}

	err := New().ValidateOnly("email", rules, data, nil)
	var verrs *Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected *Errors, got %v", err)
	}
	if _, ok := verrs.Fields["name"]; ok {
		t.Fatalf("realtime validation leaked into other fields: %v", verrs.Fields)
	}
	if got := verrs.Get("email"); len(got) != 1 {
		t.Fatalf("email errors = %v", got)
	}

	if err := New().ValidateOnly("missing", rules, data, nil); err != nil {
		t.Fatalf("unknown field should not fail: %v", err)
	}
}

func TestFieldRules(t *testing.T) {
	t.Parallel()

	v := New()
	cases := []struct {
		name  string
		rules []string
		data  map[string]any
		want  []string
	}{
		{"string min", []string{"min:3"}, map[string]any{"f": "ab"}, []string{"The f field must be at least 3 characters."}},
		{"array max", []string{"max:1"}, map[string]any{"f": []any{"a", "b"}}, []string{"The f field must not have more than 1 items."}},
		{"numeric between", []string{"numeric", "between:1,5"}, map[string]any{"f": "9"}, []string{"The f field must be between 1 and 5."}},
		{"int value size", []string{"size:3"}, map[string]any{"f": 3}, nil},
		{"accepted", []string{"accepted"}, map[string]any{"f": "no"}, []string{"The f field must be accepted."}},
		{"accepted missing", []string{"accepted"}, map[string]any{}, []string{"The f field must be accepted."}},
		{"boolean", []string{"boolean"}, map[string]any{"f": "yes"}, []string{"The f field must be true or false."}},
		{"url", []string{"url"}, map[string]any{"f": "example.com"}, []string{"The f field must be a valid URL."}},
		{"regex ok", []string{"regex:/^A/i"}, map[string]any{"f": "abc"}, nil},
		{"alpha dash", []string{"alpha_dash"}, map[string]any{"f": "a b"}, []string{"The f field must only contain letters, numbers, dashes, and underscores."}},
		{"same", []string{"same:g"}, map[string]any{"f": "x", "g": "y"}, []string{"The f field must match g."}},
		{"confirmed", []string{"confirmed"}, map[string]any{"f": "x", "f_confirmation": "x"}, nil},
		{"date", []string{"date"}, map[string]any{"f": "2026-02-30"}, []string{"The f field must be a valid date."}},
		{"required_if", []string{"required_if:kind,other"}, map[string]any{"kind": "other"}, []string{"The f field is required when kind is other."}},
		{"required_if inactive", []string{"required_if:kind,other"}, map[string]any{"kind": "sales"}, nil},
		{"sometimes absent", []string{"sometimes", "required"}, map[string]any{}, nil},
		{"nullable nil", []string{"nullable", "email"}, map[string]any{"f": nil}, nil},
		{"bail", []string{"bail", "email", "min:20"}, map[string]any{"f": "x"}, []string{"The f field must be a valid email address."}},
		{"not in list", []string{"not_in:a,b"}, map[string]any{"f": []string{"c", "a"}}, []string{"The selected f is invalid."}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := v.Field("f", tc.rules, tc.data, nil)
			if err != nil {
				t.Fatalf("Field: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("messages mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCustomMessages(t *testing.T) {
	t.Parallel()

	v := New(WithMessages(map[string]string{
		"required":       "Please fill in :attribute.",
		"email.required": "We need your email.",
	}))
	got, err := v.Field("email", []string{"required"}, nil, nil)
	if err != nil {
		t.Fatalf("Field: %v", err)
	}
	if diff := cmp.Diff([]string{"We need your email."}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	got, _ = v.Field("first_name", []string{"required"}, nil, nil)
	if diff := cmp.Diff([]string{"Please fill in first name."}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestErrorsWithout(t *testing.T) {
	t.Parallel()

	errs := &Errors{}
	errs.Add("email", "bad email")
	errs.Add("name", "missing")

	got := errs.Without("email")
	if diff := cmp.Diff([]string{"name"}, got.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if len(errs.Keys()) != 2 {
		t.Fatal("Without must not modify the receiver")
	}
	var nilErrs *Errors
	if !nilErrs.Without("x").Empty() {
		t.Fatal("nil receiver should yield empty errors")
	}
}
