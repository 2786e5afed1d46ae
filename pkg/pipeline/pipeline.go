package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-formsubmit/pkg/events"
	"github.com/goliatone/go-formsubmit/pkg/fields"
	"github.com/goliatone/go-formsubmit/pkg/honeypot"
	"github.com/goliatone/go-formsubmit/pkg/metrics"
	"github.com/goliatone/go-formsubmit/pkg/model"
	"github.com/goliatone/go-formsubmit/pkg/notify"
	"github.com/goliatone/go-formsubmit/pkg/site"
	"github.com/goliatone/go-formsubmit/pkg/store"
)

// Local UI events emitted while a submission is processed.
const (
	EventFormSubmitted     = "formSubmitted"
	EventSubmissionCreated = "submissionCreated"
)

const tracerName = "github.com/goliatone/go-formsubmit/pkg/pipeline"

// Emitter receives local UI events.
type Emitter interface {
	Emit(ctx context.Context, event string, submission model.Submission)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, event string, submission model.Submission)

func (f EmitterFunc) Emit(ctx context.Context, event string, submission model.Submission) {
	f(ctx, event, submission)
}

// BeforeSubmitFunc runs after normalisation and before the submission is
// built. It may return replacement data. Returning ErrSilentFailure drops
// the submission silently; any other error aborts the run.
type BeforeSubmitFunc func(ctx context.Context, form model.FormDefinition, data model.SubmissionData) (model.SubmissionData, error)

// Request is the input of one run.
type Request struct {
	Form model.FormDefinition
	// Fields defaults to a field set built from Form and Data.
	Fields *fields.FieldSet
	// Honeypot defaults to the form's honeypot handle.
	Honeypot honeypot.Honeypot
	Data     model.SubmissionData
	// Referer is the page the form was submitted from. It selects the site
	// used for notification emails.
	Referer string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithEvents sets the domain event bus.
func WithEvents(bus *events.Bus) Option {
	return func(p *Pipeline) {
		if bus != nil {
			p.events = bus
		}
	}
}

// WithStore sets the submission store used by forms that store submissions.
func WithStore(s store.Store) Option {
	return func(p *Pipeline) {
		p.store = s
	}
}

// WithNotifier sets the notification dispatcher.
func WithNotifier(d notify.Dispatcher) Option {
	return func(p *Pipeline) {
		if d != nil {
			p.notifier = d
		}
	}
}

// WithSites sets the site registry used to resolve the referer.
func WithSites(sites *site.Registry) Option {
	return func(p *Pipeline) {
		if sites != nil {
			p.sites = sites
		}
	}
}

// WithEmitter sets the receiver of local UI events.
func WithEmitter(e Emitter) Option {
	return func(p *Pipeline) {
		p.emitter = e
	}
}

// WithBeforeSubmit installs the before-submit hook.
func WithBeforeSubmit(fn BeforeSubmitFunc) Option {
	return func(p *Pipeline) {
		p.beforeSubmit = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithMetrics records outcomes and step durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithTracer overrides the tracer (default: the global provider).
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) {
		if tracer != nil {
			p.tracer = tracer
		}
	}
}

// WithClock overrides the submission timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// Pipeline processes submissions. It is safe for concurrent use when its
// collaborators are.
type Pipeline struct {
	events       *events.Bus
	store        store.Store
	notifier     notify.Dispatcher
	sites        *site.Registry
	emitter      Emitter
	beforeSubmit BeforeSubmitFunc
	logger       zerolog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	now          func() time.Time
}

// New builds a pipeline. Without options it has an empty event bus, no
// store, drops notifications and resolves every referer to a default site.
func New(options ...Option) *Pipeline {
	sites, _ := site.NewRegistry()
	p := &Pipeline{
		events:   events.NewBus(),
		notifier: notify.Nop,
		sites:    sites,
		logger:   zerolog.Nop(),
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Run processes one submission. Spam, vetoes and hook rejections come back
// as OutcomeSilentFailure with a nil error.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	req = p.prepare(req)
	ctx, span := p.tracer.Start(ctx, "formsubmit.submit",
		trace.WithAttributes(attribute.String("formsubmit.form", req.Form.Handle)))
	defer span.End()

	result, err := p.run(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.metrics.Submission(req.Form.Handle, OutcomeError.String(), string(ReasonNone))
		p.logger.Error().Err(err).Str("form", req.Form.Handle).Msg("submission failed")
		return Result{Outcome: OutcomeError, Submission: result.Submission}, err
	}

	span.SetAttributes(
		attribute.String("formsubmit.outcome", result.Outcome.String()),
		attribute.String("formsubmit.reason", string(result.Reason)),
	)
	p.metrics.Submission(req.Form.Handle, result.Outcome.String(), string(result.Reason))
	event := p.logger.Info()
	if result.Outcome == OutcomeSilentFailure {
		event = p.logger.Debug()
	}
	event.Str("form", req.Form.Handle).
		Str("outcome", result.Outcome.String()).
		Str("reason", string(result.Reason)).
		Str("submission", result.Submission.ID).
		Bool("stored", result.Stored).
		Msg("submission processed")
	return result, nil
}

func (p *Pipeline) prepare(req Request) Request {
	req.Data = req.Data.Clone()
	if req.Fields == nil {
		req.Fields = fields.Make(req.Form, "", req.Data)
	}
	if req.Honeypot.Handle == "" {
		req.Honeypot = honeypot.Make(req.Form.HoneypotHandle(), "")
	}
	return req
}

func (p *Pipeline) run(ctx context.Context, req Request) (Result, error) {
	if p.handleSpam(ctx, req) {
		return p.silentFailure(ctx, req, req.Data, model.Submission{}, ReasonSpam)
	}

	data := p.normalizeSubmissionData(ctx, req)

	data, err := p.runBeforeSubmit(ctx, req, data)
	if errors.Is(err, ErrSilentFailure) {
		return p.silentFailure(ctx, req, data, model.Submission{}, ReasonHook)
	}
	if err != nil {
		return Result{}, fmt.Errorf("pipeline: before submit: %w", err)
	}

	submission := req.Form.MakeSubmission(data, p.now())

	if !p.handleSubmissionEvents(ctx, req, submission) {
		return p.silentFailure(ctx, req, data, submission, ReasonVeto)
	}

	stored, err := p.storeSubmission(ctx, req.Form, submission)
	if err != nil {
		return Result{Submission: submission}, err
	}

	result := p.success(ctx, req, data)
	result.Outcome = OutcomeSuccess
	result.Submission = submission
	result.Stored = stored
	return result, nil
}

func (p *Pipeline) silentFailure(ctx context.Context, req Request, data model.SubmissionData, submission model.Submission, reason Reason) (Result, error) {
	result := p.success(ctx, req, data)
	result.Outcome = OutcomeSilentFailure
	result.Reason = reason
	result.Submission = submission
	return result, nil
}

// step starts a span for one step and returns the function that ends it.
func (p *Pipeline) step(ctx context.Context, name string) (context.Context, func()) {
	ctx, span := p.tracer.Start(ctx, "formsubmit."+name)
	start := time.Now()
	return ctx, func() {
		p.metrics.ObserveStep(name, time.Since(start))
		span.End()
	}
}

func (p *Pipeline) handleSpam(ctx context.Context, req Request) bool {
	_, end := p.step(ctx, "spam")
	defer end()
	return req.Honeypot.IsSpam(req.Data)
}

func (p *Pipeline) normalizeSubmissionData(ctx context.Context, req Request) model.SubmissionData {
	_, end := p.step(ctx, "normalize")
	defer end()
	return Normalize(req.Fields, req.Honeypot.Handle, req.Data)
}

// runBeforeSubmit hands a copy of data to the hook. Data the hook returns is
// scrubbed again: it may not reintroduce the honeypot or captcha responses.
func (p *Pipeline) runBeforeSubmit(ctx context.Context, req Request, data model.SubmissionData) (model.SubmissionData, error) {
	if p.beforeSubmit == nil {
		return data, nil
	}
	ctx, end := p.step(ctx, "before_submit")
	defer end()
	next, err := p.beforeSubmit(ctx, req.Form, data.Clone())
	if err != nil {
		return data, err
	}
	if next == nil {
		return data, nil
	}
	return Scrub(req.Fields, req.Honeypot.Handle, next), nil
}

// handleSubmissionEvents reports false when a FormSubmitted subscriber
// vetoed the submission.
func (p *Pipeline) handleSubmissionEvents(ctx context.Context, req Request, submission model.Submission) bool {
	ctx, end := p.step(ctx, "events")
	defer end()

	p.emit(ctx, EventFormSubmitted, submission)
	if !p.events.DispatchFormSubmitted(ctx, events.FormSubmitted{Submission: submission}) {
		return false
	}

	p.emit(ctx, EventSubmissionCreated, submission)
	p.events.DispatchSubmissionCreated(ctx, events.SubmissionCreated{Submission: submission})

	target := p.sites.FindByURL(req.Referer)
	job := notify.Job{Form: req.Form, Submission: submission, Site: target}
	if err := p.notifier.Dispatch(ctx, job); err != nil {
		p.metrics.NotificationFailed(req.Form.Handle)
		p.logger.Error().
			Err(err).
			Str("form", req.Form.Handle).
			Str("submission", submission.ID).
			Str("site", target.Handle).
			Msg("queue notification emails")
	}
	return true
}

func (p *Pipeline) emit(ctx context.Context, event string, submission model.Submission) {
	if p.emitter == nil {
		return
	}
	p.emitter.Emit(ctx, event, submission)
}

func (p *Pipeline) storeSubmission(ctx context.Context, form model.FormDefinition, submission model.Submission) (bool, error) {
	if !form.Store {
		return false, nil
	}
	if p.store == nil {
		return false, ErrNoStore
	}
	ctx, end := p.step(ctx, "store")
	defer end()
	if err := p.store.Save(ctx, submission); err != nil {
		return false, fmt.Errorf("pipeline: store submission: %w", err)
	}
	return true, nil
}

// success resets the form state: defaults are merged over data and the
// honeypot and captcha values from the request are kept so the next attempt
// still carries them.
func (p *Pipeline) success(ctx context.Context, req Request, data model.SubmissionData) Result {
	_, end := p.step(ctx, "success")
	defer end()

	base := data.Clone()
	for key, value := range req.Data {
		if _, kept := base[key]; kept {
			continue
		}
		if key == req.Honeypot.Handle {
			base[key] = value
			continue
		}
		if field, ok := req.Fields.Get(key); ok && (field.IsCaptcha() || field.Type == model.FieldTypeHoneypot) {
			base[key] = value
		}
	}
	merged := base.Merge(req.Fields.DefaultValues())

	visible, err := req.Fields.WithData(merged).ProcessFieldConditions()
	if err != nil {
		p.logger.Warn().Err(err).Str("form", req.Form.Handle).Msg("process field conditions after submit")
	}
	return Result{Data: merged, Visible: visible}
}
