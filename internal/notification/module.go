package notification

import (
	"errors"

	"github.com/shandysiswandi/otpmail/internal/notification/inbound"
	"github.com/shandysiswandi/otpmail/internal/notification/outbound/email"
	"github.com/shandysiswandi/otpmail/internal/notification/render"
	"github.com/shandysiswandi/otpmail/internal/notification/usecase"
	"github.com/shandysiswandi/otpmail/internal/pkg/clock"
	"github.com/shandysiswandi/otpmail/internal/pkg/config"
	"github.com/shandysiswandi/otpmail/internal/pkg/instrument"
	"github.com/shandysiswandi/otpmail/internal/pkg/mail"
	"github.com/shandysiswandi/otpmail/internal/pkg/otp"
	"github.com/shandysiswandi/otpmail/internal/pkg/ratelimit"
	"github.com/shandysiswandi/otpmail/internal/pkg/router"
	"github.com/shandysiswandi/otpmail/internal/pkg/validator"
)

var (
	ErrMissingAPIKey  = errors.New("security.api_key is required when auth and rate limiting are enforced")
	ErrMissingLimiter = errors.New("rate limiter is required when auth and rate limiting are enforced")
)

type Dependency struct {
	Config     config.Config
	Instrument instrument.Instrumentation
	Clock      clock.Clocker
	Validator  validator.Validator
	Generator  otp.Generator
	Limiter    ratelimit.Limiter
	Router     *router.Router
	Mail       mail.Mail
}

func New(dep Dependency) error {
	renderer, err := render.New(dep.Config.GetString("mail.brand"))
	if err != nil {
		return err
	}

	var gates []router.Middleware
	if dep.Config.GetBool("security.enforce_auth_rate_limit") {
		apiKey := dep.Config.GetString("security.api_key")
		if apiKey == "" {
			return ErrMissingAPIKey
		}
		if dep.Limiter == nil {
			return ErrMissingLimiter
		}
		gates = append(gates, router.RateLimit(dep.Limiter), router.APIKeyAuth(apiKey))
	}

	repoMail := email.New(dep.Mail, dep.Instrument)

	uc := usecase.NewNotification(usecase.Dependency{
		Config:     dep.Config,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Generator:  dep.Generator,
		Renderer:   renderer,
		RepoMail:   repoMail,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, gates...)

	return nil
}
