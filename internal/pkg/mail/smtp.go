package mail

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	netmail "net/mail"
	"net/smtp"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/atomic"
)

// ErrSMTPHostPortRequired is returned when Host/Port are missing.
var ErrSMTPHostPortRequired = errors.New("smtp host and port are required")

// SMTP is a Mail implementation backed by net/smtp.
type SMTP struct {
	cfg    Config
	closed atomic.Bool
}

// NewSMTP constructs an SMTP mail sender.
//
// Missing credentials are not an error here; Send reports ErrCredentialsMissing
// so the process can still start and serve health checks.
func NewSMTP(cfg Config) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}

	return &SMTP{cfg: cfg}, nil
}

// Send delivers a message over SMTP.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if !s.cfg.hasCredentials() {
		return ErrCredentialsMissing
	}

	recipients := msg.recipients()
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	from := s.cfg.sender(msg)
	if from == "" {
		return ErrNoSender
	}

	raw := composeMessage(msg, from, time.Now())

	return transmit(ctx, s.cfg, from, recipients, func(w io.Writer) error {
		_, err := w.Write(raw)
		return err
	})
}

// Close stops accepting new messages.
func (s *SMTP) Close() error {
	s.closed.Store(true)
	return nil
}

// transmit runs one SMTP session bounded by ctx: the connection carries the
// context deadline and is closed as soon as ctx is done, so no read or write
// outlives the caller.
//
//nolint:errcheck // connection teardown errors are irrelevant once the message is accepted
func transmit(ctx context.Context, cfg Config, from string, to []string, body func(io.Writer) error) error {
	conn, err := dial(ctx, cfg)
	if err != nil {
		return ctxErr(ctx, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return err
		}
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return ctxErr(ctx, err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(tlsConfig(cfg)); err != nil {
			return ctxErr(ctx, err)
		}
	}

	if ok, _ := c.Extension("AUTH"); ok {
		if err := c.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)); err != nil {
			return ctxErr(ctx, err)
		}
	}

	if err := c.Mail(from); err != nil {
		return ctxErr(ctx, err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return ctxErr(ctx, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return ctxErr(ctx, err)
	}
	if err := body(w); err != nil {
		return ctxErr(ctx, err)
	}
	if err := w.Close(); err != nil {
		return ctxErr(ctx, err)
	}

	return ctxErr(ctx, c.Quit())
}

func dial(ctx context.Context, cfg Config) (net.Conn, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dialer := &net.Dialer{}
	if cfg.Port == 465 {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: tlsConfig(cfg)}
		return tlsDialer.DialContext(ctx, "tcp", addr)
	}

	return dialer.DialContext(ctx, "tcp", addr)
}

func tlsConfig(cfg Config) *tls.Config {
	return &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
}

// ctxErr reports a session failure caused by ctx as the context error.
func ctxErr(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, os.ErrDeadlineExceeded):
		return context.DeadlineExceeded
	default:
		return err
	}
}

func composeMessage(msg Message, from string, now time.Time) []byte {
	body, contentType := buildBody(msg)

	sender := (&netmail.Address{Name: msg.FromName, Address: from}).String()

	var headers []string
	headers = append(headers, fmt.Sprintf("From: %s", sender))
	headers = append(headers, fmt.Sprintf("To: %s", strings.Join(msg.To, ", ")))
	if len(msg.Cc) > 0 {
		headers = append(headers, fmt.Sprintf("Cc: %s", strings.Join(msg.Cc, ", ")))
	}
	headers = append(headers, fmt.Sprintf("Subject: %s", mime.QEncoding.Encode("UTF-8", msg.Subject)))
	headers = append(headers, fmt.Sprintf("Date: %s", now.Format(time.RFC1123Z)))
	headers = append(headers, "MIME-Version: 1.0")
	headers = append(headers, fmt.Sprintf("Content-Type: %s", contentType))

	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + body)
}

func buildBody(msg Message) (body string, contentType string) {
	if msg.HTMLBody != "" && msg.TextBody != "" {
		boundary := multipartBoundary()
		var sb strings.Builder
		sb.WriteString("This is a multipart message in MIME format.\r\n")
		fmt.Fprintf(&sb, "--%s\r\n", boundary)
		sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		sb.WriteString("\r\n")
		sb.WriteString(msg.TextBody)
		sb.WriteString("\r\n")
		fmt.Fprintf(&sb, "--%s\r\n", boundary)
		sb.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		sb.WriteString("\r\n")
		sb.WriteString(msg.HTMLBody)
		sb.WriteString("\r\n")
		fmt.Fprintf(&sb, "--%s--", boundary)
		return sb.String(), fmt.Sprintf("multipart/alternative; boundary=%s", boundary)
	}

	if msg.HTMLBody != "" {
		return msg.HTMLBody, "text/html; charset=UTF-8"
	}

	return msg.TextBody, "text/plain; charset=UTF-8"
}

func multipartBoundary() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "otpmail-boundary-fallback"
	}
	return "otpmail-boundary-" + hex.EncodeToString(b[:])
}
