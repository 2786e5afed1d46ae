package mail

import (
	"context"
	"errors"
	"fmt"
	netmail "net/mail"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formsubmit/pkg/notify"
)

// Mailer composes and sends every email config of a job's form.
type Mailer struct {
	composer *Composer
	sender   Sender
	logger   zerolog.Logger
}

var _ notify.Processor = (*Mailer)(nil)

// NewMailer wires a composer to a sender.
func NewMailer(composer *Composer, sender Sender, logger zerolog.Logger) (*Mailer, error) {
	if composer == nil {
		return nil, errors.New("mail: composer is required")
	}
	if sender == nil {
		return nil, errors.New("mail: sender is required")
	}
	return &Mailer{composer: composer, sender: sender, logger: logger}, nil
}

// Process sends the job's emails. Configs bound to another site are skipped.
// One failing email does not stop the others.
func (m *Mailer) Process(ctx context.Context, job notify.Job) error {
	var errs []error
	for i, cfg := range job.Form.Emails {
		if !Applies(cfg, job) {
			continue
		}
		msg, err := m.composer.Compose(cfg, job)
		if err != nil {
			errs = append(errs, fmt.Errorf("email %d: %w", i, err))
			continue
		}
		if err := m.sender.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("email %d: %w", i, err))
			continue
		}
		m.logger.Debug().
			Str("form", job.Form.Handle).
			Str("submission", job.Submission.ID).
			Strs("to", msg.To).
			Msg("notification sent")
	}
	return errors.Join(errs...)
}

func parseAddress(raw string) (string, error) {
	addr, err := netmail.ParseAddress(raw)
	if err != nil {
		return "", fmt.Errorf("mail: address %q: %w", raw, err)
	}
	return addr.Address, nil
}
