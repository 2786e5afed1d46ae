package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsubmit/pkg/model"
)

func TestQueueDeliversAndDrains(t *testing.T) {
	t.Parallel()

	var (
		mu  sync.Mutex
		ids []string
	)
	q := NewQueue(ProcessorFunc(func(_ context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		ids = append(ids, job.Submission.ID)
		return nil
	}), WithWorkers(1))

	for _, id := range []string{"a", "b", "c"} {
		if err := q.Dispatch(context.Background(), Job{Submission: model.Submission{ID: id}}); err != nil {
			t.Fatalf("dispatch %s: %v", id, err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := q.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	if diff := cmp.Diff([]string{"a", "b", "c"}, ids); diff != "" {
		t.Fatalf("delivery order mismatch (-want +got):\n%s", diff)
	}
	if q.Processed() != 3 || q.Failed() != 0 {
		t.Fatalf("unexpected counters processed=%d failed=%d", q.Processed(), q.Failed())
	}
}

func TestQueueCountsFailuresWithoutSurfacingThem(t *testing.T) {
	t.Parallel()

	var hooked []string
	var mu sync.Mutex
	q := NewQueue(ProcessorFunc(func(_ context.Context, job Job) error {
		if job.Submission.ID == "panic" {
			panic("boom")
		}
		return errors.New("smtp down")
	}), WithWorkers(1), WithFailureHook(func(job Job, _ error) {
		mu.Lock()
		defer mu.Unlock()
		hooked = append(hooked, job.Submission.ID)
	}))

	for _, id := range []string{"err", "panic"} {
		if err := q.Dispatch(context.Background(), Job{Submission: model.Submission{ID: id}}); err != nil {
			t.Fatalf("dispatch must not report delivery errors: %v", err)
		}
	}
	if err := q.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if q.Failed() != 2 {
		t.Fatalf("expected 2 failures, got %d", q.Failed())
	}
	if diff := cmp.Diff([]string{"err", "panic"}, hooked); diff != "" {
		t.Fatalf("failure hook mismatch (-want +got):\n%s", diff)
	}
}

func TestQueueRejectsAfterClose(t *testing.T) {
	t.Parallel()

	q := NewQueue(ProcessorFunc(func(context.Context, Job) error { return nil }))
	if err := q.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := q.Close(context.Background()); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := q.Dispatch(context.Background(), Job{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestQueueDropsWhenFull(t *testing.T) {
	t.Parallel()

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	var (
		mu     sync.Mutex
		hooked []error
	)
	q := NewQueue(ProcessorFunc(func(context.Context, Job) error {
		started <- struct{}{}
		<-release
		return nil
	}), WithWorkers(1), WithBuffer(1), WithFailureHook(func(_ Job, err error) {
		mu.Lock()
		defer mu.Unlock()
		hooked = append(hooked, err)
	}))

	if err := q.Dispatch(context.Background(), Job{Submission: model.Submission{ID: "busy"}}); err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	<-started
	if err := q.Dispatch(context.Background(), Job{Submission: model.Submission{ID: "waiting"}}); err != nil {
		t.Fatalf("second dispatch: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- q.Dispatch(context.Background(), Job{Submission: model.Submission{ID: "dropped"}})
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("full queue must not surface an error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("dispatch blocked on a full queue")
	}

	close(release)
	if err := q.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if q.Dropped() != 1 || q.Processed() != 2 {
		t.Fatalf("unexpected counters dropped=%d processed=%d", q.Dropped(), q.Processed())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(hooked) != 1 || !errors.Is(hooked[0], ErrQueueFull) {
		t.Fatalf("expected one ErrQueueFull failure, got %v", hooked)
	}
}

func TestQueueDispatchHonoursContext(t *testing.T) {
	t.Parallel()

	q := NewQueue(ProcessorFunc(func(context.Context, Job) error { return nil }))
	defer func() { _ = q.Close(context.Background()) }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Dispatch(ctx, Job{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled error, got %v", err)
	}
}
