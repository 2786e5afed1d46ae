package pipeline

import (
	"errors"

	"github.com/goliatone/go-formsubmit/pkg/model"
)

// ErrSilentFailure may be returned by a before-submit hook to drop the
// submission while still reporting success to the submitter.
var ErrSilentFailure = errors.New("pipeline: silent failure")

// ErrNoStore is returned when a form stores submissions but the pipeline has
// no store configured.
var ErrNoStore = errors.New("pipeline: form stores submissions but no store is configured")

// Outcome is the result of one run.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeSilentFailure
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeSilentFailure:
		return "silent_failure"
	default:
		return "error"
	}
}

// Reason explains a silent failure.
type Reason string

const (
	ReasonNone Reason = ""
	ReasonSpam Reason = "spam"
	ReasonVeto Reason = "veto"
	ReasonHook Reason = "hook"
)

// Result describes a finished run.
type Result struct {
	Outcome Outcome
	Reason  Reason
	// Submission is the built record. It is zero when the run ended before
	// the submission was built.
	Submission model.Submission
	// Stored reports whether the submission was persisted.
	Stored bool
	// Data is the form state after the success reset.
	Data model.SubmissionData
	// Visible lists the fields shown for Data, in blueprint order.
	Visible []string
}

// Succeeded reports whether the submitter should see the success state.
// Silent failures are indistinguishable from success here.
func (r Result) Succeeded() bool {
	return r.Outcome == OutcomeSuccess || r.Outcome == OutcomeSilentFailure
}
