// Package memory is an in-process submission store for tests and notify-only
// deployments.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/goliatone/go-formsubmit/pkg/model"
	"github.com/goliatone/go-formsubmit/pkg/store"
)

// Store keeps submissions in a map keyed by id.
type Store struct {
	mu    sync.RWMutex
	items map[string]model.Submission
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{items: make(map[string]model.Submission)}
}

func (s *Store) Save(ctx context.Context, submission model.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[submission.ID]; exists {
		return store.ErrAlreadyExists
	}
	submission.Data = submission.Data.Clone()
	s.items[submission.ID] = submission
	return nil
}

func (s *Store) Find(ctx context.Context, form, id string) (model.Submission, error) {
	if err := ctx.Err(); err != nil {
		return model.Submission{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.items[id]
	if !ok || sub.Form != form {
		return model.Submission{}, store.ErrNotFound
	}
	sub.Data = sub.Data.Clone()
	return sub, nil
}

// List returns the form's submissions, newest first.
func (s *Store) List(ctx context.Context, form string) ([]model.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Submission
	for _, sub := range s.items {
		if sub.Form == form {
			sub.Data = sub.Data.Clone()
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Len reports the number of stored submissions across all forms.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
