package site

import (
	"strings"
	"testing"
)

func TestFindByURL(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry(
		Config{Handle: "en", URL: "https://example.com/", Locale: "en_US"},
		Config{Handle: "fr", URL: "https://example.com/fr/", Locale: "fr_FR"},
		Config{Handle: "de", URL: "/de", Locale: "de"},
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	cases := map[string]string{
		"":                                "en",
		"https://example.com/contact":     "en",
		"https://example.com/fr/contact":  "fr",
		"https://example.com/fr":          "fr",
		"https://example.com/french":      "en",
		"https://other.org/de/kontakt":    "de",
		"https://other.org/contact":       "en",
		"::not a url":                     "en",
	}
	for raw, want := range cases {
		if got := reg.FindByURL(raw).Handle; got != want {
			t.Errorf("FindByURL(%q) = %q, want %q", raw, got, want)
		}
	}

	fr, _ := reg.Get("fr")
	if fr.Lang() != "fr" || fr.Locale.String() != "fr-FR" {
		t.Fatalf("fr locale = %s (%s)", fr.Locale, fr.Lang())
	}
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	reg, err := Load(strings.NewReader(`
- handle: main
  name: Main
  url: https://example.com/
  locale: en
- handle: es
  url: https://example.com/es/
  locale: es
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(reg.All()) != 2 || reg.Default().Handle != "main" {
		t.Fatalf("unexpected sites: %+v", reg.All())
	}
}

func TestNewRegistryErrors(t *testing.T) {
	t.Parallel()

	if _, err := NewRegistry(Config{Handle: "a"}, Config{Handle: "a"}); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if _, err := NewRegistry(Config{Handle: "a", Locale: "!!"}); err == nil {
		t.Fatalf("expected locale error")
	}
	reg, err := NewRegistry()
	if err != nil || reg.Default().Handle != "default" {
		t.Fatalf("expected default site, got %v %v", reg, err)
	}
}
