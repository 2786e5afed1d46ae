package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/goliatone/go-formsubmit/pkg/model"
	"github.com/goliatone/go-formsubmit/pkg/store"
)

func TestRowMapping(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	sub := model.Submission{
		ID:        "sub-1",
		Form:      "contact",
		Data:      model.SubmissionData{"name": "Ann", "age": 41, "topics": []any{"news"}},
		CreatedAt: created,
	}

	row, err := ToRow(sub)
	if err != nil {
		t.Fatalf("to row: %v", err)
	}
	if row.TableName() != "submissions" {
		t.Fatalf("unexpected table name %q", row.TableName())
	}
	got, err := FromRow(row)
	if err != nil {
		t.Fatalf("from row: %v", err)
	}
	if diff := cmp.Diff(sub, got); diff != "" {
		t.Fatalf("mapping mismatch (-want +got):\n%s", diff)
	}
}

func TestToRowValidates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sub  model.Submission
	}{
		{name: "missing id", sub: model.Submission{Form: "contact"}},
		{name: "missing form", sub: model.Submission{ID: "x"}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ToRow(tc.sub); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestFromRowRejectsInvalidJSON(t *testing.T) {
	t.Parallel()

	if _, err := FromRow(Row{ID: "x", Form: "f", Data: "{"}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestOpenRequiresDSN(t *testing.T) {
	t.Parallel()

	if _, err := Open(" "); err == nil {
		t.Fatal("expected dsn error")
	}
	if _, err := New(nil); err == nil {
		t.Fatal("expected nil db error")
	}
}

// TestStoreIntegration runs against a live database when
// FORMSUBMIT_TEST_POSTGRES_DSN is set.
func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("FORMSUBMIT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FORMSUBMIT_TEST_POSTGRES_DSN not set")
	}

	s, err := Open(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	form := "it-" + uuid.NewString()
	sub := model.Submission{ID: uuid.NewString(), Form: form, Data: model.SubmissionData{"name": "Ann"}, CreatedAt: time.Now().UTC().Truncate(time.Microsecond)}
	if err := s.Save(ctx, sub); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, sub); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	got, err := s.Find(ctx, form, sub.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if diff := cmp.Diff(sub, got); diff != "" {
		t.Fatalf("find mismatch (-want +got):\n%s", diff)
	}
	if _, err := s.Find(ctx, form, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
