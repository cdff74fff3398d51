package mail

import (
	"context"
	"io"

	"go.uber.org/atomic"
	"gopkg.in/gomail.v2"
)

// Gomail composes messages with gopkg.in/gomail.v2 and hands them to the
// same context-bound SMTP session the SMTP driver uses.
type Gomail struct {
	cfg    Config
	closed atomic.Bool
}

// NewGomail constructs a gomail sender. Port 465 dials with implicit TLS.
func NewGomail(cfg Config) (*Gomail, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}

	return &Gomail{cfg: cfg}, nil
}

// Send delivers a message. gomail's own Dialer cannot be cancelled, so only
// its SendFunc hook is used and the session runs under ctx.
func (g *Gomail) Send(ctx context.Context, msg Message) error {
	if g.closed.Load() {
		return ErrClosed
	}
	if !g.cfg.hasCredentials() {
		return ErrCredentialsMissing
	}
	if len(msg.recipients()) == 0 {
		return ErrNoRecipients
	}

	from := g.cfg.sender(msg)
	if from == "" {
		return ErrNoSender
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", from, msg.FromName)
	m.SetHeader("To", msg.To...)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", msg.Cc...)
	}
	if len(msg.Bcc) > 0 {
		m.SetHeader("Bcc", msg.Bcc...)
	}
	m.SetHeader("Subject", msg.Subject)

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.SetBody("text/plain", msg.TextBody)
		m.AddAlternative("text/html", msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBody("text/html", msg.HTMLBody)
	default:
		m.SetBody("text/plain", msg.TextBody)
	}

	// gomail.Send flattens the error into text; keep the session error so
	// callers can still match context and transport errors.
	var sessionErr error
	send := gomail.SendFunc(func(from string, to []string, wt io.WriterTo) error {
		sessionErr = transmit(ctx, g.cfg, from, to, func(w io.Writer) error {
			_, err := wt.WriteTo(w)
			return err
		})
		return sessionErr
	})

	if err := gomail.Send(send, m); err != nil {
		if sessionErr != nil {
			return sessionErr
		}
		return err
	}
	return nil
}

// Close stops accepting new messages.
func (g *Gomail) Close() error {
	g.closed.Store(true)
	return nil
}
