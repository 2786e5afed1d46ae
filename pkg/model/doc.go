// Package model defines the form definitions consumed by the submission
// pipeline together with the submission records it produces. Form and field
// definitions are immutable once loaded; SubmissionData is the only value that
// changes during a request and the pipeline replaces it rather than mutating
// shared copies.
//
// Field definitions follow the blueprint structure used by the YAML loader in
// pkg/forms: a handle, a field type, optional input type hints (for example
// `input_type: number`), pipe-separated validation rule strings and optional
// `if`/`unless` visibility conditions evaluated by pkg/visibility/expr.
package model
