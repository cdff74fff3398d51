package email

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpmail/internal/pkg/instrument"
	"github.com/shandysiswandi/otpmail/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

type Mail struct {
	client mail.Mail
	ins    instrument.Instrumentation
	sent   metric.Int64Counter
}

func New(client mail.Mail, ins instrument.Instrumentation) *Mail {
	sent, err := ins.Meter("notification.outbound.email").Int64Counter(
		"mail.sent",
		metric.WithDescription("Emails handed to the mail provider, by result."),
	)
	if err != nil {
		slog.Warn("failed to create mail.sent counter", "error", err)
	}

	return &Mail{client: client, ins: ins, sent: sent}
}

func (m *Mail) Send(ctx context.Context, msg mail.Message) error {
	ctx, span := m.ins.Tracer("notification.outbound.email").Start(ctx, "Send")
	defer span.End()

	span.SetAttributes(attribute.Int("mail.recipients", len(msg.To)+len(msg.Cc)+len(msg.Bcc)))

	err := m.client.Send(ctx, msg)
	m.record(ctx, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Mail) record(ctx context.Context, err error) {
	if m.sent == nil {
		return
	}

	result := "ok"
	switch {
	case errors.Is(err, mail.ErrCredentialsMissing):
		result = "unconfigured"
	case errors.Is(err, context.DeadlineExceeded):
		result = "timeout"
	case err != nil:
		result = "error"
	}

	m.sent.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
