// Package store defines how submissions are persisted. Implementations live
// in the memory, sqlite and postgres sub-packages.
package store

import (
	"context"
	"errors"

	"github.com/goliatone/go-formsubmit/pkg/model"
)

var (
	// ErrNotFound is returned when a submission does not exist.
	ErrNotFound = errors.New("store: submission not found")
	// ErrAlreadyExists is returned when a submission id is saved twice.
	ErrAlreadyExists = errors.New("store: submission already exists")
)

// Store persists submissions. Save must create a submission at most once:
// saving an id that already exists returns ErrAlreadyExists.
type Store interface {
	Save(ctx context.Context, submission model.Submission) error
	Find(ctx context.Context, form, id string) (model.Submission, error)
	List(ctx context.Context, form string) ([]model.Submission, error)
}
