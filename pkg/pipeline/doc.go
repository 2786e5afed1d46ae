// Package pipeline turns validated form input into a stored submission.
//
// Run executes a fixed sequence of steps:
//
//	spam check -> normalise -> before-submit hook -> build submission
//	-> events -> store -> success reset
//
// A filled honeypot, a vetoing FormSubmitted subscriber or a hook returning
// ErrSilentFailure ends the run early with OutcomeSilentFailure. That outcome
// looks like success to the submitter but leaves no trace: no events, no
// notification and no stored record. Infrastructure failures are returned as
// errors and skip the success reset.
package pipeline
