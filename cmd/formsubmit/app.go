package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	formsubmit "github.com/goliatone/go-formsubmit"
	"github.com/goliatone/go-formsubmit/internal/config"
	"github.com/goliatone/go-formsubmit/pkg/events"
	"github.com/goliatone/go-formsubmit/pkg/events/kafka"
	"github.com/goliatone/go-formsubmit/pkg/forms"
	"github.com/goliatone/go-formsubmit/pkg/metrics"
	"github.com/goliatone/go-formsubmit/pkg/notify"
	"github.com/goliatone/go-formsubmit/pkg/notify/mail"
	"github.com/goliatone/go-formsubmit/pkg/notify/redisqueue"
	"github.com/goliatone/go-formsubmit/pkg/pipeline"
	"github.com/goliatone/go-formsubmit/pkg/site"
	"github.com/goliatone/go-formsubmit/pkg/store"
	"github.com/goliatone/go-formsubmit/pkg/store/memory"
	"github.com/goliatone/go-formsubmit/pkg/store/postgres"
	"github.com/goliatone/go-formsubmit/pkg/store/sqlite"
)

const tracerName = "github.com/goliatone/go-formsubmit"

// app is the wired runtime shared by every command.
type app struct {
	cfg      config.Config
	logger   zerolog.Logger
	forms    *forms.Registry
	sites    *site.Registry
	store    store.Store
	metrics  *metrics.Metrics
	bus      *events.Bus
	pipeline *pipeline.Pipeline

	// background runs until ctx is cancelled (redis workers).
	background []func(ctx context.Context) error
	closers    []func(ctx context.Context) error
}

func newApp(cfg config.Config, logger zerolog.Logger) (a *app, err error) {
	a = &app{cfg: cfg, logger: logger, metrics: metrics.New()}
	defer func() {
		if err != nil {
			_ = a.close(context.Background())
		}
	}()

	if a.forms, err = loadForms(cfg.FormsDir); err != nil {
		return nil, err
	}
	if a.sites, err = loadSites(cfg.SitesFile); err != nil {
		return nil, err
	}
	if a.store, err = openStore(cfg.Store); err != nil {
		return nil, err
	}
	if closer, ok := a.store.(io.Closer); ok {
		a.onClose(func(context.Context) error { return closer.Close() })
	}

	a.bus = events.NewBus(events.WithLogger(logger))
	if len(cfg.Kafka.Brokers) > 0 {
		fwd, err := kafka.New(cfg.Kafka.Brokers, cfg.Kafka.Topic, kafka.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		fwd.Register(a.bus)
		a.onClose(func(context.Context) error { return fwd.Close() })
	}

	dispatcher, err := a.notifier()
	if err != nil {
		return nil, err
	}

	a.pipeline = pipeline.New(
		pipeline.WithEvents(a.bus),
		pipeline.WithStore(a.store),
		pipeline.WithNotifier(dispatcher),
		pipeline.WithSites(a.sites),
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(a.metrics),
		pipeline.WithTracer(otel.Tracer(tracerName)),
	)
	return a, nil
}

// notifier builds the mailer and the dispatcher feeding it.
func (a *app) notifier() (notify.Dispatcher, error) {
	composerOpts := []mail.Option{mail.WithDefaultFrom(a.cfg.Mail.From)}
	if a.cfg.Mail.Templates != "" {
		composerOpts = append(composerOpts, mail.WithBaseDir(a.cfg.Mail.Templates))
	} else {
		composerOpts = append(composerOpts, mail.WithFS(formsubmit.EmailTemplates()))
	}
	composer, err := mail.NewComposer(composerOpts...)
	if err != nil {
		return nil, err
	}

	var sender mail.Sender = mail.LogSender{Logger: a.logger}
	if a.cfg.SMTP.Addr != "" {
		sender = mail.NewSMTPSender(a.cfg.SMTP.Addr, a.cfg.SMTP.Username, a.cfg.SMTP.Password)
	}
	mailer, err := mail.NewMailer(composer, sender, a.logger)
	if err != nil {
		return nil, err
	}

	if a.cfg.Queue.RedisAddr != "" {
		client, err := redisqueue.Connect(a.cfg.Queue.RedisAddr)
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { return client.Close() })
		failures := notify.ProcessorFunc(func(ctx context.Context, job notify.Job) error {
			err := mailer.Process(ctx, job)
			if err != nil {
				a.metrics.NotificationFailed(job.Form.Handle)
			}
			return err
		})
		for i := 0; i < a.cfg.Queue.Workers; i++ {
			worker := redisqueue.NewWorker(client, failures,
				redisqueue.WithKey(a.cfg.Queue.RedisKey),
				redisqueue.WithWorkerLogger(a.logger),
			)
			a.background = append(a.background, worker.Run)
		}
		return redisqueue.NewDispatcher(client, a.cfg.Queue.RedisKey), nil
	}

	queue := notify.NewQueue(mailer,
		notify.WithWorkers(a.cfg.Queue.Workers),
		notify.WithBuffer(a.cfg.Queue.Buffer),
		notify.WithJobTimeout(a.cfg.Queue.JobTimeout),
		notify.WithLogger(a.logger),
		notify.WithFailureHook(func(job notify.Job, _ error) {
			a.metrics.NotificationFailed(job.Form.Handle)
		}),
	)
	a.onClose(queue.Close)
	return queue, nil
}

func (a *app) onClose(fn func(ctx context.Context) error) {
	a.closers = append(a.closers, fn)
}

// close releases resources in reverse order of acquisition.
func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func loadForms(dir string) (*forms.Registry, error) {
	return formsubmit.LoadForms(os.DirFS(dir), ".")
}

func loadSites(path string) (*site.Registry, error) {
	if strings.TrimSpace(path) == "" {
		return site.NewRegistry()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sites file: %w", err)
	}
	defer f.Close()
	return site.Load(f)
}

func openStore(cfg config.StoreConfig) (store.Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case config.StoreSQLite:
		st, err := sqlite.Open(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.StorePostgres:
		st, err := postgres.Open(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return memory.New(), nil
	}
}
