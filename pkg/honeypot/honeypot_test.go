package honeypot

import "testing"

func TestMakeDefaultsHandle(t *testing.T) {
	t.Parallel()

	hp := Make("  ", "c1")
	if hp.Handle != "honeypot" {
		t.Fatalf("handle = %q", hp.Handle)
	}
	if hp.ID != "c1-honeypot" {
		t.Fatalf("id = %q", hp.ID)
	}
	if got := Make("winnie", "").ID; got != "winnie" {
		t.Fatalf("id without component = %q", got)
	}
}

func TestIsSpam(t *testing.T) {
	t.Parallel()

	hp := Make("honeypot_field", "")
	cases := map[string]struct {
		data map[string]any
		want bool
	}{
		"absent":      {map[string]any{"name": "Ann"}, false},
		"empty":       {map[string]any{"honeypot_field": ""}, false},
		"false text":  {map[string]any{"honeypot_field": "false"}, false},
		"filled":      {map[string]any{"honeypot_field": "spam"}, true},
		"true":        {map[string]any{"honeypot_field": true}, true},
		"nil payload": {nil, false},
		"zero text":   {map[string]any{"honeypot_field": "0"}, false},
		"zero number": {map[string]any{"honeypot_field": 0}, false},
		"whitespace":  {map[string]any{"honeypot_field": "   "}, true},
		"upper false": {map[string]any{"honeypot_field": "FALSE"}, true},
		"title false": {map[string]any{"honeypot_field": "False"}, true},
		"number":      {map[string]any{"honeypot_field": 1.5}, true},
	}
	for name, tc := range cases {
		if got := hp.IsSpam(tc.data); got != tc.want {
			t.Errorf("%s: IsSpam = %v, want %v", name, got, tc.want)
		}
	}
}
