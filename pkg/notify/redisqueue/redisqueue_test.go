package redisqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/text/language"

	"github.com/goliatone/go-formsubmit/pkg/model"
	"github.com/goliatone/go-formsubmit/pkg/notify"
	"github.com/goliatone/go-formsubmit/pkg/site"
)

// fakeList is an in-memory stand-in for a Redis list.
type fakeList struct {
	mu     sync.Mutex
	items  map[string][]string
	popErr error
}

func newFakeList() *fakeList {
	return &fakeList{items: make(map[string][]string)}
}

func (f *fakeList) LPush(_ context.Context, key string, values ...any) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range values {
		var s string
		switch raw := v.(type) {
		case []byte:
			s = string(raw)
		case string:
			s = raw
		}
		f.items[key] = append([]string{s}, f.items[key]...)
	}
	return redis.NewIntResult(int64(len(f.items[key])), nil)
}

func (f *fakeList) BRPop(_ context.Context, _ time.Duration, keys ...string) *redis.StringSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.popErr != nil {
		return redis.NewStringSliceResult(nil, f.popErr)
	}
	for _, key := range keys {
		list := f.items[key]
		if len(list) == 0 {
			continue
		}
		last := list[len(list)-1]
		f.items[key] = list[:len(list)-1]
		return redis.NewStringSliceResult([]string{key, last}, nil)
	}
	return redis.NewStringSliceResult(nil, redis.Nil)
}

func sampleJob() notify.Job {
	return notify.Job{
		Form: model.FormDefinition{
			Handle: "contact",
			Store:  true,
			Fields: []model.FieldDefinition{{Handle: "age", Type: model.FieldTypeInteger, InputType: "number"}},
			Emails: []model.EmailConfig{{To: "team@example.com"}},
		},
		Submission: model.Submission{
			ID:        "sub-1",
			Form:      "contact",
			Data:      model.SubmissionData{"age": 30, "subscribe": true},
			CreatedAt: time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC),
		},
		Site: site.Site{Handle: "fr", Name: "French", URL: "/fr/", Locale: language.French},
	}
}

func TestEncodeDecodePreservesJob(t *testing.T) {
	t.Parallel()

	job := sampleJob()
	raw, err := Encode(job)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(job, got, cmp.Comparer(func(a, b language.Tag) bool { return a == b })); diff != "" {
		t.Fatalf("job mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatcherAndWorker(t *testing.T) {
	t.Parallel()

	list := newFakeList()
	if err := NewDispatcher(list, "").Dispatch(context.Background(), sampleJob()); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	var processed []string
	worker := NewWorker(list, notify.ProcessorFunc(func(_ context.Context, job notify.Job) error {
		processed = append(processed, job.Submission.ID+"@"+job.Site.Handle)
		return nil
	}))

	popped, err := worker.ProcessOnce(context.Background())
	if err != nil || !popped {
		t.Fatalf("process once: popped=%v err=%v", popped, err)
	}
	popped, err = worker.ProcessOnce(context.Background())
	if err != nil || popped {
		t.Fatalf("empty queue: popped=%v err=%v", popped, err)
	}
	if diff := cmp.Diff([]string{"sub-1@fr"}, processed); diff != "" {
		t.Fatalf("processed mismatch (-want +got):\n%s", diff)
	}
}

func TestWorkerReportsProcessorErrors(t *testing.T) {
	t.Parallel()

	list := newFakeList()
	_ = NewDispatcher(list, "custom").Dispatch(context.Background(), sampleJob())

	boom := errors.New("smtp down")
	worker := NewWorker(list, notify.ProcessorFunc(func(context.Context, notify.Job) error { return boom }), WithKey("custom"))
	popped, err := worker.ProcessOnce(context.Background())
	if !popped || !errors.Is(err, boom) {
		t.Fatalf("expected processor error, popped=%v err=%v", popped, err)
	}
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	list := newFakeList()
	list.popErr = errors.New("connection reset")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	worker := NewWorker(list, notify.ProcessorFunc(func(context.Context, notify.Job) error { return nil }))
	if err := worker.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestConnectRequiresAddress(t *testing.T) {
	t.Parallel()

	if _, err := Connect(""); err == nil {
		t.Fatal("expected address error")
	}
	client, err := Connect("redis://localhost:6379/2")
	if err != nil {
		t.Fatalf("connect url: %v", err)
	}
	defer client.Close()
	if client.Options().DB != 2 {
		t.Fatalf("expected db 2, got %d", client.Options().DB)
	}
}
