// Package events is the in-process event bus the submission pipeline
// publishes to. It exposes two contracts: FormSubmitted is cancellable and its
// subscribers' verdicts decide whether the submission proceeds, while
// SubmissionCreated is fire-and-forget.
package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formsubmit/pkg/model"
)

// Verdict is a FormSubmitted subscriber's decision. The zero value allows the
// submission to continue.
type Verdict int

const (
	Allow Verdict = iota
	Veto
)

// FormSubmitted is published after the submission has been built and before
// it is persisted.
type FormSubmitted struct {
	Submission model.Submission
}

// SubmissionCreated is published once the submission passed the
// FormSubmitted subscribers.
type SubmissionCreated struct {
	Submission model.Submission
}

// SubmittedHandler inspects a FormSubmitted event and may veto it.
type SubmittedHandler func(ctx context.Context, evt FormSubmitted) Verdict

// CreatedHandler observes SubmissionCreated events.
type CreatedHandler func(ctx context.Context, evt SubmissionCreated)

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used to report subscriber panics.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// Bus dispatches events to subscribers in registration order.
type Bus struct {
	mu        sync.RWMutex
	submitted []SubmittedHandler
	created   []CreatedHandler
	logger    zerolog.Logger
}

// NewBus constructs an empty bus.
func NewBus(options ...Option) *Bus {
	b := &Bus{logger: zerolog.Nop()}
	for _, opt := range options {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// OnFormSubmitted registers a cancellable subscriber.
func (b *Bus) OnFormSubmitted(handler SubmittedHandler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submitted = append(b.submitted, handler)
}

// OnSubmissionCreated registers a fire-and-forget subscriber.
func (b *Bus) OnSubmissionCreated(handler CreatedHandler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created = append(b.created, handler)
}

// DispatchFormSubmitted runs subscribers until one vetoes. It reports whether
// the submission may proceed. A panicking subscriber counts as a veto.
func (b *Bus) DispatchFormSubmitted(ctx context.Context, evt FormSubmitted) bool {
	b.mu.RLock()
	handlers := append([]SubmittedHandler(nil), b.submitted...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		if b.callSubmitted(ctx, handler, evt) == Veto {
			return false
		}
	}
	return true
}

func (b *Bus) callSubmitted(ctx context.Context, handler SubmittedHandler, evt FormSubmitted) (verdict Verdict) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Interface("panic", r).
				Str("form", evt.Submission.Form).
				Msg("events: form submitted subscriber panicked")
			verdict = Veto
		}
	}()
	return handler(ctx, evt)
}

// DispatchSubmissionCreated notifies every subscriber. Panics are recovered
// and logged so one subscriber cannot break the others.
func (b *Bus) DispatchSubmissionCreated(ctx context.Context, evt SubmissionCreated) {
	b.mu.RLock()
	handlers := append([]CreatedHandler(nil), b.created...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.callCreated(ctx, handler, evt)
	}
}

func (b *Bus) callCreated(ctx context.Context, handler CreatedHandler, evt SubmissionCreated) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Interface("panic", r).
				Str("form", evt.Submission.Form).
				Str("submission", evt.Submission.ID).
				Msg("events: submission created subscriber panicked")
		}
	}()
	handler(ctx, evt)
}
