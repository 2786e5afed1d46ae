// Package kafka forwards SubmissionCreated events to a Kafka topic so systems
// outside the host process can react to new submissions.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/goliatone/go-formsubmit/pkg/events"
)

// MessageWriter is the subset of *kafka.Writer the forwarder needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Payload is the JSON document written for each submission.
type Payload struct {
	Event        string         `json:"event"`
	SubmissionID string         `json:"submissionId"`
	Form         string         `json:"form"`
	Data         map[string]any `json:"data"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// Forwarder publishes SubmissionCreated events. Publishing failures are logged
// and never affect the submission.
type Forwarder struct {
	writer  MessageWriter
	topic   string
	timeout time.Duration
	logger  zerolog.Logger
}

// Option configures a Forwarder.
type Option func(*Forwarder)

// WithLogger sets the logger used for publish failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Forwarder) { f.logger = logger }
}

// WithTimeout bounds each publish call.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Forwarder) {
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

// WithWriter swaps the Kafka writer, mainly for tests.
func WithWriter(writer MessageWriter) Option {
	return func(f *Forwarder) {
		if writer != nil {
			f.writer = writer
		}
	}
}

// New constructs a forwarder writing to topic on the given brokers.
func New(brokers []string, topic string, options ...Option) (*Forwarder, error) {
	if topic == "" {
		return nil, fmt.Errorf("kafka forwarder: topic is required")
	}
	f := &Forwarder{
		topic:   topic,
		timeout: 5 * time.Second,
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	if f.writer == nil {
		if len(brokers) == 0 {
			return nil, fmt.Errorf("kafka forwarder: at least one broker is required")
		}
		f.writer = &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			RequiredAcks: kafkago.RequireAll,
			Balancer:     &kafkago.Hash{},
		}
	}
	return f, nil
}

// Register subscribes the forwarder to the bus.
func (f *Forwarder) Register(bus *events.Bus) {
	bus.OnSubmissionCreated(f.Handle)
}

// Handle publishes one event.
func (f *Forwarder) Handle(ctx context.Context, evt events.SubmissionCreated) {
	sub := evt.Submission
	payload, err := json.Marshal(Payload{
		Event:        "submission.created",
		SubmissionID: sub.ID,
		Form:         sub.Form,
		Data:         sub.Data,
		CreatedAt:    sub.CreatedAt,
	})
	if err != nil {
		f.logger.Error().Err(err).Str("submission", sub.ID).Msg("kafka forwarder: encode payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
	defer cancel()

	err = f.writer.WriteMessages(ctx, kafkago.Message{
		Topic: f.topic,
		Key:   []byte(sub.Form),
		Value: payload,
		Time:  time.Now().UTC(),
	})
	if err != nil {
		f.logger.Error().Err(err).
			Str("form", sub.Form).
			Str("submission", sub.ID).
			Msg("kafka forwarder: publish submission")
	}
}

// Close flushes and closes the writer.
func (f *Forwarder) Close() error {
	return f.writer.Close()
}
