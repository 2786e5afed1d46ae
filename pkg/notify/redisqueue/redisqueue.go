// Package redisqueue moves notification jobs through a Redis list so that
// delivery can run in a separate worker process.
package redisqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/goliatone/go-formsubmit/pkg/model"
	"github.com/goliatone/go-formsubmit/pkg/notify"
	"github.com/goliatone/go-formsubmit/pkg/site"
	"github.com/goliatone/go-formsubmit/pkg/store"
)

// DefaultKey is the list jobs are pushed to.
const DefaultKey = "formsubmit:notifications"

// Client is the subset of the go-redis API the queue needs.
type Client interface {
	LPush(ctx context.Context, key string, values ...any) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// Connect builds a client from a redis:// URL or a host:port address.
func Connect(addr string) (*redis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("redisqueue: address is required")
	}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opt, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("redisqueue: parse url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: addr}), nil
}

type envelope struct {
	Form       model.FormDefinition `json:"form"`
	Submission submissionEnvelope   `json:"submission"`
	Site       siteEnvelope         `json:"site"`
}

type submissionEnvelope struct {
	ID        string          `json:"id"`
	Form      string          `json:"form"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
}

type siteEnvelope struct {
	Handle string `json:"handle"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Locale string `json:"locale"`
}

// Encode serialises a job.
func Encode(job notify.Job) ([]byte, error) {
	data, err := store.EncodeData(job.Submission.Data)
	if err != nil {
		return nil, err
	}
	env := envelope{
		Form: job.Form,
		Submission: submissionEnvelope{
			ID:        job.Submission.ID,
			Form:      job.Submission.Form,
			Data:      data,
			CreatedAt: job.Submission.CreatedAt,
		},
		Site: siteEnvelope{
			Handle: job.Site.Handle,
			Name:   job.Site.Name,
			URL:    job.Site.URL,
			Locale: job.Site.Locale.String(),
		},
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("redisqueue: encode job: %w", err)
	}
	return raw, nil
}

// Decode restores a job serialised by Encode.
func Decode(raw []byte) (notify.Job, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return notify.Job{}, fmt.Errorf("redisqueue: decode job: %w", err)
	}
	data, err := store.DecodeData(env.Submission.Data)
	if err != nil {
		return notify.Job{}, err
	}
	locale := language.English
	if env.Site.Locale != "" {
		tag, err := language.Parse(env.Site.Locale)
		if err != nil {
			return notify.Job{}, fmt.Errorf("redisqueue: site locale: %w", err)
		}
		locale = tag
	}
	return notify.Job{
		Form: env.Form,
		Submission: model.Submission{
			ID:        env.Submission.ID,
			Form:      env.Submission.Form,
			Data:      data,
			CreatedAt: env.Submission.CreatedAt,
		},
		Site: site.Site{
			Handle: env.Site.Handle,
			Name:   env.Site.Name,
			URL:    env.Site.URL,
			Locale: locale,
		},
	}, nil
}

// Dispatcher pushes jobs onto a Redis list.
type Dispatcher struct {
	client Client
	key    string
}

var _ notify.Dispatcher = (*Dispatcher)(nil)

// NewDispatcher returns a dispatcher for key (DefaultKey when empty).
func NewDispatcher(client Client, key string) *Dispatcher {
	if strings.TrimSpace(key) == "" {
		key = DefaultKey
	}
	return &Dispatcher{client: client, key: key}
}

func (d *Dispatcher) Dispatch(ctx context.Context, job notify.Job) error {
	raw, err := Encode(job)
	if err != nil {
		return err
	}
	if err := d.client.LPush(ctx, d.key, raw).Err(); err != nil {
		return fmt.Errorf("redisqueue: push: %w", err)
	}
	return nil
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithWorkerLogger sets the worker logger.
func WithWorkerLogger(logger zerolog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithPollTimeout sets how long a BRPOP waits before checking ctx again.
func WithPollTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.poll = d
		}
	}
}

// WithKey overrides the list key.
func WithKey(key string) WorkerOption {
	return func(w *Worker) {
		if strings.TrimSpace(key) != "" {
			w.key = key
		}
	}
}

const errorBackoff = time.Second

// Worker pops jobs and hands them to a Processor.
type Worker struct {
	client    Client
	processor notify.Processor
	key       string
	poll      time.Duration
	logger    zerolog.Logger
}

// NewWorker constructs a worker.
func NewWorker(client Client, processor notify.Processor, options ...WorkerOption) *Worker {
	w := &Worker{
		client:    client,
		processor: processor,
		key:       DefaultKey,
		poll:      5 * time.Second,
		logger:    zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// Run processes jobs until ctx is cancelled. Delivery failures are logged
// and the job is dropped.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := w.ProcessOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Error().Err(err).Str("key", w.key).Msg("notification job failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(errorBackoff):
			}
		}
	}
}

// ProcessOnce waits for at most one job. It reports whether a job was popped.
func (w *Worker) ProcessOnce(ctx context.Context) (bool, error) {
	res, err := w.client.BRPop(ctx, w.poll, w.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redisqueue: pop: %w", err)
	}
	if len(res) != 2 {
		return false, fmt.Errorf("redisqueue: unexpected pop reply %v", res)
	}
	job, err := Decode([]byte(res[1]))
	if err != nil {
		return true, err
	}
	if err := w.processor.Process(ctx, job); err != nil {
		return true, fmt.Errorf("redisqueue: process %s: %w", job.Submission.ID, err)
	}
	return true, nil
}
