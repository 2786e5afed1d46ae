// Package notify queues the notification emails sent after a submission.
// Dispatch only enqueues; delivery happens out of band and its failures never
// reach the submitter.
package notify

import (
	"context"
	"errors"

	"github.com/goliatone/go-formsubmit/pkg/model"
	"github.com/goliatone/go-formsubmit/pkg/site"
)

var (
	// ErrClosed is returned when dispatching to a closed queue.
	ErrClosed = errors.New("notify: queue closed")
	// ErrQueueFull is passed to the failure hook for jobs dropped because
	// the buffer was full.
	ErrQueueFull = errors.New("notify: queue full")
)

// Job is one "send notification emails" task.
type Job struct {
	Form       model.FormDefinition
	Submission model.Submission
	Site       site.Site
}

// Dispatcher enqueues jobs for asynchronous delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, job Job) error
}

// Processor delivers a job. Mailers implement it.
type Processor interface {
	Process(ctx context.Context, job Job) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, job Job) error

func (f ProcessorFunc) Process(ctx context.Context, job Job) error {
	return f(ctx, job)
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, job Job) error

func (f DispatcherFunc) Dispatch(ctx context.Context, job Job) error {
	return f(ctx, job)
}

// Nop drops every job.
var Nop Dispatcher = DispatcherFunc(func(context.Context, Job) error { return nil })
