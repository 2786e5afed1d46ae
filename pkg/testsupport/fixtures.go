// Package testsupport holds fixture helpers shared by package tests.
package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-formsubmit/pkg/forms"
	"github.com/goliatone/go-formsubmit/pkg/model"
)

// MustLoadForm reads a YAML blueprint fixture.
func MustLoadForm(t *testing.T, path string) model.FormDefinition {
	t.Helper()

	form, err := LoadForm(path)
	if err != nil {
		t.Fatalf("load form: %v", err)
	}
	return form
}

// LoadForm returns a blueprint without requiring testing.T, allowing callers
// to wire fixtures in setup functions. The file name is the fallback handle.
func LoadForm(path string) (model.FormDefinition, error) {
	if path == "" {
		return model.FormDefinition{}, errors.New("testsupport: form path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.FormDefinition{}, fmt.Errorf("testsupport: read form: %w", err)
	}
	base := filepath.Base(path)
	return forms.Parse(data, strings.TrimSuffix(base, filepath.Ext(base)))
}

// MustLoadForms registers every blueprint in dir.
func MustLoadForms(t *testing.T, dir string) *forms.Registry {
	t.Helper()

	registry := MustRegistry(t)
	if err := registry.LoadFS(os.DirFS(dir), "."); err != nil {
		t.Fatalf("load forms from %s: %v", dir, err)
	}
	return registry
}

// MustRegistry builds a registry holding the given forms.
func MustRegistry(t *testing.T, definitions ...model.FormDefinition) *forms.Registry {
	t.Helper()

	registry, err := forms.NewRegistry(definitions...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return registry
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
