// Package formsubmit is the entry point for the form submission pipeline.
// It re-exports the core types and wires the common defaults; the pkg/
// sub-packages hold the individual parts.
package formsubmit

import (
	"io/fs"

	"github.com/goliatone/go-formsubmit/pkg/component"
	"github.com/goliatone/go-formsubmit/pkg/forms"
	"github.com/goliatone/go-formsubmit/pkg/model"
	"github.com/goliatone/go-formsubmit/pkg/pipeline"
)

// FormDefinition aliases model.FormDefinition.
type FormDefinition = model.FormDefinition

// FieldDefinition aliases model.FieldDefinition.
type FieldDefinition = model.FieldDefinition

// SubmissionData aliases model.SubmissionData.
type SubmissionData = model.SubmissionData

// Submission aliases model.Submission.
type Submission = model.Submission

// Result aliases pipeline.Result.
type Result = pipeline.Result

// LoadForms registers every YAML blueprint found in dir.
func LoadForms(fsys fs.FS, dir string) (*forms.Registry, error) {
	registry, err := forms.NewRegistry()
	if err != nil {
		return nil, err
	}
	if err := registry.LoadFS(fsys, dir); err != nil {
		return nil, err
	}
	return registry, nil
}

// NewPipeline exposes the pipeline constructor from the top-level module.
func NewPipeline(options ...pipeline.Option) *pipeline.Pipeline {
	return pipeline.New(options...)
}

// NewComponent mounts the form named handle with its default values.
func NewComponent(finder component.Finder, handle string, options ...component.Option) (*component.Component, error) {
	c, err := component.New(finder, handle, options...)
	if err != nil {
		return nil, err
	}
	c.Mount()
	return c, nil
}
