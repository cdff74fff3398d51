package mail

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrCredentialsMissing is returned before dialling when the provider account or secret is empty.
	ErrCredentialsMissing = errors.New("email credentials not configured")
	// ErrNoRecipients is returned when To/Cc/Bcc are all empty.
	ErrNoRecipients = errors.New("no recipients provided")
	// ErrNoSender is returned when both Message.From and the configured default From are empty.
	ErrNoSender = errors.New("no sender provided")
	// ErrClosed is returned by Send after Close.
	ErrClosed = errors.New("mail sender closed")
	// ErrUnknownDriver is returned by NewFromDriver for unsupported driver names.
	ErrUnknownDriver = errors.New("unknown mail driver")
)

// Message represents an email payload.
//
// Fields are intentionally provider-agnostic so they can be sent using any
// delivery mechanism.
type Message struct {
	// FromName is the optional display name of the sender.
	FromName string
	// From is an optional explicit sender; fallback depends on implementation.
	From string
	// To lists required recipients.
	To []string
	// Cc lists carbon copy recipients.
	Cc []string
	// Bcc lists blind carbon copy recipients.
	Bcc []string
	// Subject is the email subject line.
	Subject string
	// TextBody is the plain-text body; preferred when HTMLBody is empty.
	TextBody string
	// HTMLBody is the optional HTML body.
	HTMLBody string
}

func (m Message) recipients() []string {
	recipients := append([]string{}, m.To...)
	recipients = append(recipients, m.Cc...)
	return append(recipients, m.Bcc...)
}

// Mail abstracts an email provider.
type Mail interface {
	io.Closer
	// Send dispatches the given message using the underlying provider.
	// Implementations honour the context deadline.
	Send(ctx context.Context, msg Message) error
}

const (
	// DriverSMTP selects the net/smtp implementation.
	DriverSMTP = "smtp"
	// DriverGomail selects the gopkg.in/gomail.v2 implementation.
	DriverGomail = "gomail"
)

// Config holds the provider address and account shared by all drivers.
type Config struct {
	// Host is the SMTP server hostname.
	Host string
	// Port is the SMTP server port; 465 means implicit TLS.
	Port int
	// Username is the provider account.
	Username string
	// Password is the provider secret.
	Password string
	// From is the default sender; falls back to Username.
	From string
}

func (c Config) hasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

func (c Config) sender(msg Message) string {
	switch {
	case msg.From != "":
		return msg.From
	case c.From != "":
		return c.From
	default:
		return c.Username
	}
}

// NewFromDriver builds the Mail implementation for driver.
func NewFromDriver(driver string, cfg Config) (Mail, error) {
	switch driver {
	case DriverSMTP, "":
		return NewSMTP(cfg)
	case DriverGomail:
		return NewGomail(cfg)
	default:
		return nil, ErrUnknownDriver
	}
}
