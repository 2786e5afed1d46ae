package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Sender delivers composed messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers through an SMTP relay.
type SMTPSender struct {
	Addr     string
	Username string
	Password string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now  func() time.Time
}

// NewSMTPSender returns a sender for addr ("host:port"). Credentials are
// optional; PLAIN auth is used when a username is set.
func NewSMTPSender(addr, username, password string) *SMTPSender {
	return &SMTPSender{
		Addr:     strings.TrimSpace(addr),
		Username: username,
		Password: password,
		send:     smtp.SendMail,
		now:      time.Now,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Addr == "" {
		return errors.New("mail: smtp address is required")
	}
	recipients, err := envelope(msg.Recipients())
	if err != nil {
		return err
	}
	from, err := envelope([]string{msg.From})
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if s.Username != "" {
		host, _, err := net.SplitHostPort(s.Addr)
		if err != nil {
			return fmt.Errorf("mail: smtp address: %w", err)
		}
		auth = smtp.PlainAuth("", s.Username, s.Password, host)
	}

	send := s.send
	if send == nil {
		send = smtp.SendMail
	}
	now := s.now
	if now == nil {
		now = time.Now
	}
	if err := send(s.Addr, auth, from[0], recipients, Encode(msg, now())); err != nil {
		return fmt.Errorf("mail: smtp send: %w", err)
	}
	return nil
}

// Encode renders msg as an RFC 5322 message. BCC recipients are left out of
// the headers.
func Encode(msg Message, date time.Time) []byte {
	var buf bytes.Buffer
	header := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		buf.WriteString(name)
		buf.WriteString(": ")
		buf.WriteString(value)
		buf.WriteString("\r\n")
	}
	header("From", msg.From)
	header("To", strings.Join(msg.To, ", "))
	header("Cc", strings.Join(msg.CC, ", "))
	header("Reply-To", msg.ReplyTo)
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", date.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	if msg.HTML {
		header("Content-Type", `text/html; charset="utf-8"`)
	} else {
		header("Content-Type", `text/plain; charset="utf-8"`)
	}
	buf.WriteString("\r\n")
	body := strings.ReplaceAll(msg.Body, "\r\n", "\n")
	buf.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return buf.Bytes()
}

func envelope(addresses []string) ([]string, error) {
	out := make([]string, 0, len(addresses))
	for _, raw := range addresses {
		addr, err := parseAddress(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	if len(out) == 0 {
		return nil, errors.New("mail: no recipients")
	}
	return out, nil
}

// LogSender writes messages to a logger instead of delivering them.
type LogSender struct {
	Logger zerolog.Logger
}

func (s LogSender) Send(_ context.Context, msg Message) error {
	s.Logger.Info().
		Str("from", msg.From).
		Strs("to", msg.To).
		Strs("cc", msg.CC).
		Int("bcc", len(msg.BCC)).
		Str("subject", msg.Subject).
		Int("body_bytes", len(msg.Body)).
		Msg("notification email")
	return nil
}
