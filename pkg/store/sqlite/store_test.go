package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsubmit/pkg/model"
	"github.com/goliatone/go-formsubmit/pkg/store"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "submissions.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return s
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestSaveFindRoundTrip(t *testing.T) {
	t.Parallel()

	s := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, time.April, 2, 9, 30, 0, 0, time.UTC)
	input := model.Submission{
		ID:        "sub-1",
		Form:      "contact",
		Data:      model.SubmissionData{"name": "Ann", "age": 30, "subscribe": true},
		CreatedAt: now,
	}

	if err := s.Save(ctx, input); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, input); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := s.Find(ctx, "contact", "sub-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if diff := cmp.Diff(input, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	if _, err := s.Find(ctx, "contact", "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	t.Parallel()

	s := openTempStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.April, 2, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := s.Save(ctx, model.Submission{ID: id, Form: "contact", Data: model.SubmissionData{}, CreatedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	if err := s.Save(ctx, model.Submission{ID: "z", Form: "other", CreatedAt: base}); err != nil {
		t.Fatalf("save other: %v", err)
	}

	list, err := s.List(ctx, "contact")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids []string
	for _, sub := range list {
		ids = append(ids, sub.ID)
	}
	if diff := cmp.Diff([]string{"c", "b", "a"}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveValidatesInput(t *testing.T) {
	t.Parallel()

	s := openTempStore(t)
	if err := s.Save(context.Background(), model.Submission{Form: "contact"}); err == nil {
		t.Fatal("expected missing id error")
	}
	if err := s.Save(context.Background(), model.Submission{ID: "x"}); err == nil {
		t.Fatal("expected missing form error")
	}
}
