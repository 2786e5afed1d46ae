// Package validation checks submitted form data against pipe-separated rule
// strings such as "required|email" or "between:1,10". Full-form validation
// runs before the submission pipeline; ValidateOnly is the narrowed variant
// used for realtime, per-field feedback.
package validation
