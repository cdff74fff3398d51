package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/otpmail/internal/notification/entity"
	"github.com/shandysiswandi/otpmail/internal/pkg/clock"
	"github.com/shandysiswandi/otpmail/internal/pkg/config"
	"github.com/shandysiswandi/otpmail/internal/pkg/goerror"
	"github.com/shandysiswandi/otpmail/internal/pkg/instrument"
	"github.com/shandysiswandi/otpmail/internal/pkg/mail"
	"github.com/shandysiswandi/otpmail/internal/pkg/otp"
	"github.com/shandysiswandi/otpmail/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultSendTimeout = 30 * time.Second

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type renderer interface {
	Render(n entity.Notification) (entity.RenderedMessage, error)
}

type Usecase struct {
	cfg       config.Config
	clock     clock.Clocker
	validator validator.Validator
	generator otp.Generator
	renderer  renderer
	repoMail  repoMail
	ins       instrument.Instrumentation
}

type Dependency struct {
	Config     config.Config
	Clock      clock.Clocker
	Validator  validator.Validator
	Generator  otp.Generator
	Renderer   renderer
	RepoMail   repoMail
	Instrument instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{
		cfg:       dep.Config,
		clock:     dep.Clock,
		validator: dep.Validator,
		generator: dep.Generator,
		renderer:  dep.Renderer,
		repoMail:  dep.RepoMail,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

func (s *Usecase) requireCallerCode() bool {
	return s.cfg.GetBool("otp.require_caller_code")
}

func (s *Usecase) sendTimeout() time.Duration {
	if d := s.cfg.GetSecond("mail.send_timeout_seconds"); d > 0 {
		return d
	}
	return defaultSendTimeout
}

// validate checks the required fields for the active code mode and returns the
// 400 message clients see.
func (s *Usecase) validate(email, code string) error {
	if s.requireCallerCode() {
		in := struct {
			Email string `validate:"required"`
			OTP   string `validate:"required"`
		}{Email: email, OTP: code}
		if err := s.validator.Validate(in); err != nil {
			return goerror.NewBusiness("Email and OTP are required", goerror.CodeInvalidInput)
		}
		return nil
	}

	in := struct {
		Email string `validate:"required"`
	}{Email: email}
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewBusiness("Email is required", goerror.CodeInvalidInput)
	}

	return nil
}

// parsePurpose checks the optional request type against the known purposes.
// An empty type means verification.
func (s *Usecase) parsePurpose(raw string) (entity.Purpose, error) {
	in := struct {
		Type string `validate:"omitempty,oneof=verification password_reset"`
	}{Type: strings.TrimSpace(raw)}
	if err := s.validator.Validate(in); err != nil {
		return entity.PurposeUnknown, goerror.NewBusiness("Invalid notification type", goerror.CodeInvalidInput)
	}

	return entity.PurposeFromString(in.Type), nil
}

// issueCode returns the code to email and whether it was generated here.
// In generator mode a caller-supplied code is ignored.
func (s *Usecase) issueCode(ctx context.Context, supplied string) (string, bool, error) {
	if s.requireCallerCode() {
		return supplied, false, nil
	}

	code, err := s.generator.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "error", err)
		return "", false, goerror.NewServer(err)
	}

	return code, true, nil
}

func (s *Usecase) deliver(ctx context.Context, n entity.Notification) error {
	ctx, span := s.startSpan(ctx, "deliver")
	defer span.End()

	span.SetAttributes(attribute.String("notification.purpose", n.Purpose.String()))

	msg, err := s.renderer.Render(n)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render email", "purpose", n.Purpose.String(), "error", err)
		return goerror.NewServer(err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.sendTimeout())
	defer cancel()

	err = s.repoMail.Send(ctx, mail.Message{
		FromName: msg.FromName,
		To:       []string{n.Email},
		Subject:  msg.Subject,
		TextBody: msg.TextBody,
		HTMLBody: msg.HTMLBody,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to send email", "purpose", n.Purpose.String(), "error", err)
		return goerror.NewServer(err, "Failed to send email")
	}

	return nil
}
