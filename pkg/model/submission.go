package model

import (
	"time"

	"github.com/google/uuid"
)

// Submission is the record of one completed form fill.
type Submission struct {
	ID        string         `json:"id"`
	Form      string         `json:"form"`
	Data      SubmissionData `json:"data"`
	CreatedAt time.Time      `json:"createdAt"`
}

// MakeSubmission binds a snapshot of data to the form handle. The returned
// submission owns its data; later changes to data do not leak into it.
func (f FormDefinition) MakeSubmission(data SubmissionData, now time.Time) Submission {
	if now.IsZero() {
		now = time.Now()
	}
	return Submission{
		ID:        uuid.NewString(),
		Form:      f.Handle,
		Data:      data.Clone(),
		CreatedAt: now.UTC(),
	}
}
