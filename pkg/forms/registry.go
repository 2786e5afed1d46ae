// Package forms stores form definitions (blueprints) and loads them from YAML
// files. It is the FormDefinition store consulted when a form component is
// mounted.
package forms

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formsubmit/pkg/model"
)

var (
	// ErrNotFound is returned when no form matches a handle.
	ErrNotFound = errors.New("forms: form not found")
	// ErrDuplicate is returned when registering a handle twice.
	ErrDuplicate = errors.New("forms: duplicate form handle")
)

// Registry is a concurrency-safe form definition store.
type Registry struct {
	mu    sync.RWMutex
	forms map[string]model.FormDefinition
}

// NewRegistry returns a registry seeded with forms.
func NewRegistry(forms ...model.FormDefinition) (*Registry, error) {
	r := &Registry{forms: make(map[string]model.FormDefinition, len(forms))}
	for _, form := range forms {
		if err := r.Register(form); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register validates and adds a form definition.
func (r *Registry) Register(form model.FormDefinition) error {
	if err := Validate(form); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.forms[form.Handle]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicate, form.Handle)
	}
	r.forms[form.Handle] = form
	return nil
}

// Find returns the form registered under handle.
func (r *Registry) Find(handle string) (model.FormDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	form, ok := r.forms[strings.TrimSpace(handle)]
	return form, ok
}

// All returns every form sorted by handle.
func (r *Registry) All() []model.FormDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.FormDefinition, 0, len(r.forms))
	for _, form := range r.forms {
		out = append(out, form)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}

// Validate checks a definition for a handle, unique field handles and known
// field types.
func Validate(form model.FormDefinition) error {
	if strings.TrimSpace(form.Handle) == "" {
		return errors.New("forms: handle is required")
	}
	seen := make(map[string]struct{}, len(form.Fields))
	for i, field := range form.Fields {
		if strings.TrimSpace(field.Handle) == "" {
			return fmt.Errorf("forms: %s: field %d has no handle", form.Handle, i)
		}
		if _, dup := seen[field.Handle]; dup {
			return fmt.Errorf("forms: %s: duplicate field %q", form.Handle, field.Handle)
		}
		seen[field.Handle] = struct{}{}
		if !field.Type.Known() {
			return fmt.Errorf("forms: %s: field %q has unknown type %q", form.Handle, field.Handle, field.Type)
		}
	}
	return nil
}

// Parse decodes one YAML blueprint. When the document omits a handle the
// fallback is used.
func Parse(data []byte, fallbackHandle string) (model.FormDefinition, error) {
	var form model.FormDefinition
	if err := yaml.Unmarshal(data, &form); err != nil {
		return model.FormDefinition{}, fmt.Errorf("forms: decode %s: %w", fallbackHandle, err)
	}
	if strings.TrimSpace(form.Handle) == "" {
		form.Handle = fallbackHandle
	}
	for i := range form.Fields {
		if form.Fields[i].Type == "" {
			form.Fields[i].Type = model.FieldTypeText
		}
	}
	return form, nil
}

// LoadFS registers every *.yaml / *.yml file in dir. The file name (without
// extension) is the handle unless the blueprint sets one.
func (r *Registry) LoadFS(fsys fs.FS, dir string) error {
	if dir == "" {
		dir = "."
	}
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("forms: read dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := path.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("forms: read %s: %w", entry.Name(), err)
		}
		form, err := Parse(data, strings.TrimSuffix(entry.Name(), ext))
		if err != nil {
			return err
		}
		if err := r.Register(form); err != nil {
			return err
		}
	}
	return nil
}
