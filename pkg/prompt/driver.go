// Package prompt fills forms interactively from a terminal. Each visible
// field is asked in order, answers are checked with the field's realtime
// rules as they are typed, and the finished form goes through the normal
// submit path.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrTooManyAttempts is returned when the form is still invalid after
	// the configured number of submit attempts.
	ErrTooManyAttempts = errors.New("prompt: too many invalid attempts")
)

// Kind selects how a question is asked and what its answer holds.
type Kind int

const (
	// KindText answers with a string.
	KindText Kind = iota
	// KindMultiline answers with a string that may span lines.
	KindMultiline
	// KindConfirm answers with a bool.
	KindConfirm
	// KindChoice answers with the key of one Choice.
	KindChoice
	// KindChoices answers with the keys of the picked Choices.
	KindChoices
)

// Choice is one option of a choice question.
type Choice struct {
	Key   string
	Label string
}

// Question describes one field prompt.
type Question struct {
	Kind  Kind
	Label string
	Help  string
	// Default is a string for text and choice kinds, a bool for confirm and
	// a []string of keys for KindChoices.
	Default  any
	Choices  []Choice
	PageSize int
	// Check validates typed answers; only text kinds use it.
	Check func(string) error
}

// Driver abstracts the terminal so fill logic can be tested without one.
type Driver interface {
	Ask(ctx context.Context, q Question) (any, error)
	Say(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out io.Writer
}

// NewSurveyDriver returns a Driver backed by survey on the process terminal.
func NewSurveyDriver() Driver {
	return &surveyDriver{out: os.Stdout}
}

func (d *surveyDriver) Ask(ctx context.Context, q Question) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	def, _ := q.Default.(string)
	labels := make([]string, len(q.Choices))
	for i, choice := range q.Choices {
		labels[i] = choice.Label
	}

	var p survey.Prompt
	switch q.Kind {
	case KindConfirm:
		on, _ := q.Default.(bool)
		var out bool
		if err := ask(&survey.Confirm{Message: q.Label, Help: q.Help, Default: on}, &out); err != nil {
			return nil, err
		}
		return out, nil
	case KindChoice:
		sel := &survey.Select{Message: q.Label, Help: q.Help, Options: labels, PageSize: q.PageSize}
		if label, ok := labelFor(q.Choices, def); ok {
			sel.Default = label
		}
		var out string
		if err := ask(sel, &out); err != nil {
			return nil, err
		}
		return keyFor(q.Choices, out), nil
	case KindChoices:
		keys, _ := q.Default.([]string)
		multi := &survey.MultiSelect{Message: q.Label, Help: q.Help, Options: labels, PageSize: q.PageSize}
		var defaults []string
		for _, key := range keys {
			if label, ok := labelFor(q.Choices, key); ok {
				defaults = append(defaults, label)
			}
		}
		if len(defaults) > 0 {
			multi.Default = defaults
		}
		var picked []string
		if err := ask(multi, &picked); err != nil {
			return nil, err
		}
		out := make([]string, 0, len(picked))
		for _, label := range picked {
			out = append(out, keyFor(q.Choices, label))
		}
		return out, nil
	case KindMultiline:
		p = &survey.Multiline{Message: q.Label, Help: q.Help, Default: def}
	default:
		p = &survey.Input{Message: q.Label, Help: q.Help, Default: def}
	}
	var opts []survey.AskOpt
	if q.Check != nil {
		opts = append(opts, survey.WithValidator(func(ans any) error {
			s, _ := ans.(string)
			return q.Check(s)
		}))
	}
	var out string
	if err := ask(p, &out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *surveyDriver) Say(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

func ask(p survey.Prompt, out any, opts ...survey.AskOpt) error {
	err := survey.AskOne(p, out, opts...)
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

func labelFor(choices []Choice, key string) (string, bool) {
	for _, choice := range choices {
		if choice.Key == key {
			return choice.Label, true
		}
	}
	return "", false
}

func keyFor(choices []Choice, label string) string {
	for _, choice := range choices {
		if choice.Label == label {
			return choice.Key
		}
	}
	return label
}
