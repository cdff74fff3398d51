package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpmail/internal/notification/render"
	"github.com/shandysiswandi/otpmail/internal/pkg/clock"
	"github.com/shandysiswandi/otpmail/internal/pkg/config"
	"github.com/shandysiswandi/otpmail/internal/pkg/goerror"
	"github.com/shandysiswandi/otpmail/internal/pkg/instrument"
	"github.com/shandysiswandi/otpmail/internal/pkg/mail"
	"github.com/shandysiswandi/otpmail/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

type fakeGenerator struct {
	code  string
	err   error
	calls int
}

func (g *fakeGenerator) Generate() (string, error) {
	g.calls++
	return g.code, g.err
}

type fakeMail struct {
	mu       sync.Mutex
	err      error
	sent     []mail.Message
	deadline time.Time
}

func (m *fakeMail) Send(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deadline, _ = ctx.Deadline()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func newTestConfig(t *testing.T, yaml string) config.Config {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cfg.Close() })

	return cfg
}

func newTestUsecase(t *testing.T, yaml string, gen *fakeGenerator, rm *fakeMail) *Usecase {
	t.Helper()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	r, err := render.New("")
	require.NoError(t, err)

	return NewNotification(Dependency{
		Config:     newTestConfig(t, yaml),
		Clock:      clock.NewFixed(fixedNow),
		Validator:  v,
		Generator:  gen,
		Renderer:   r,
		RepoMail:   rm,
		Instrument: instrument.NewNoop(),
	})
}

const callerCodeConfig = `
otp:
  require_caller_code: true
mail:
  send_timeout_seconds: 5
`

const generatorConfig = `
otp:
  require_caller_code: false
  echo_generated_code: false
`

const generatorEchoConfig = `
otp:
  require_caller_code: false
  echo_generated_code: true
`

func assertBusinessError(t *testing.T, err error, status int, msg string) {
	t.Helper()

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, status, gerr.StatusCode())
	assert.Equal(t, msg, gerr.Msg())
}

func TestUsecase_SendOTP_CallerCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      SendOTPInput
		wantErr string
		wantSub string
	}{
		{name: "MissingEmail", in: SendOTPInput{OTP: "123456"}, wantErr: "Email and OTP are required"},
		{name: "MissingOTP", in: SendOTPInput{Email: "a@b.co"}, wantErr: "Email and OTP are required"},
		{name: "BlankEmail", in: SendOTPInput{Email: "   ", OTP: "123456"}, wantErr: "Email and OTP are required"},
		{name: "UnknownType", in: SendOTPInput{Email: "a@b.co", OTP: "123456", Type: "sms"}, wantErr: "Invalid notification type"},
		{name: "TypeIsCaseSensitive", in: SendOTPInput{Email: "a@b.co", OTP: "123456", Type: "PASSWORD_RESET"}, wantErr: "Invalid notification type"},
		{name: "MissingEmailBeforeType", in: SendOTPInput{OTP: "123456", Type: "sms"}, wantErr: "Email and OTP are required"},
		{name: "ExplicitVerification", in: SendOTPInput{Email: "a@b.co", OTP: "123456", Type: "verification"}, wantSub: "123456 - Your Share Boost Verification Code"},
		{name: "PaddedType", in: SendOTPInput{Email: "a@b.co", OTP: "654321", Type: " password_reset "}, wantSub: "654321 - Your Password Reset Code"},
		{name: "Verification", in: SendOTPInput{Email: "a@b.co", OTP: "123456"}, wantSub: "123456 - Your Share Boost Verification Code"},
		{name: "PasswordResetType", in: SendOTPInput{Email: "a@b.co", OTP: "654321", Type: "password_reset"}, wantSub: "654321 - Your Password Reset Code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := &fakeGenerator{code: "999999"}
			rm := &fakeMail{}
			uc := newTestUsecase(t, callerCodeConfig, gen, rm)

			out, err := uc.SendOTP(context.Background(), tt.in)
			if tt.wantErr != "" {
				assertBusinessError(t, err, 400, tt.wantErr)
				assert.Nil(t, out)
				assert.Empty(t, rm.sent)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, fixedNow, out.Timestamp)
			assert.Empty(t, out.Code)
			assert.Zero(t, gen.calls)
			require.Len(t, rm.sent, 1)
			assert.Equal(t, []string{"a@b.co"}, rm.sent[0].To)
			assert.Equal(t, tt.wantSub, rm.sent[0].Subject)
			assert.NotEmpty(t, rm.sent[0].HTMLBody)
			assert.NotEmpty(t, rm.sent[0].TextBody)
		})
	}
}

func TestUsecase_SendOTP_Generator(t *testing.T) {
	t.Parallel()

	t.Run("MissingEmail", func(t *testing.T) {
		t.Parallel()

		uc := newTestUsecase(t, generatorConfig, &fakeGenerator{code: "482913"}, &fakeMail{})
		_, err := uc.SendOTP(context.Background(), SendOTPInput{})
		assertBusinessError(t, err, 400, "Email is required")
	})

	t.Run("IgnoresSuppliedCode", func(t *testing.T) {
		t.Parallel()

		gen := &fakeGenerator{code: "482913"}
		rm := &fakeMail{}
		uc := newTestUsecase(t, generatorConfig, gen, rm)

		out, err := uc.SendOTP(context.Background(), SendOTPInput{Email: "a@b.co", OTP: "111111"})
		require.NoError(t, err)
		assert.Empty(t, out.Code)
		assert.Equal(t, 1, gen.calls)
		require.Len(t, rm.sent, 1)
		assert.Equal(t, "482913 - Your Share Boost Verification Code", rm.sent[0].Subject)
	})

	t.Run("EchoEnabled", func(t *testing.T) {
		t.Parallel()

		uc := newTestUsecase(t, generatorEchoConfig, &fakeGenerator{code: "482913"}, &fakeMail{})
		out, err := uc.SendOTP(context.Background(), SendOTPInput{Email: "a@b.co"})
		require.NoError(t, err)
		assert.Equal(t, "482913", out.Code)
	})

	t.Run("GeneratorError", func(t *testing.T) {
		t.Parallel()

		rm := &fakeMail{}
		uc := newTestUsecase(t, generatorConfig, &fakeGenerator{err: errors.New("entropy")}, rm)
		_, err := uc.SendOTP(context.Background(), SendOTPInput{Email: "a@b.co"})
		assertBusinessError(t, err, 500, "Internal server error")
		assert.Empty(t, rm.sent)
	})
}

func TestUsecase_SendOTP_TransportError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{name: "CredentialsMissing", err: mail.ErrCredentialsMissing},
		{name: "Dial", err: errors.New("dial tcp: connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			uc := newTestUsecase(t, callerCodeConfig, &fakeGenerator{}, &fakeMail{err: tt.err})
			_, err := uc.SendOTP(context.Background(), SendOTPInput{Email: "a@b.co", OTP: "123456"})

			assertBusinessError(t, err, 500, "Failed to send email")
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestUsecase_SendOTP_SendDeadline(t *testing.T) {
	t.Parallel()

	rm := &fakeMail{}
	uc := newTestUsecase(t, callerCodeConfig, &fakeGenerator{}, rm)

	start := time.Now()
	_, err := uc.SendOTP(context.Background(), SendOTPInput{Email: "a@b.co", OTP: "123456"})
	require.NoError(t, err)

	require.False(t, rm.deadline.IsZero())
	assert.WithinDuration(t, start.Add(5*time.Second), rm.deadline, 2*time.Second)
}

func TestUsecase_SendOTP_DefaultSendDeadline(t *testing.T) {
	t.Parallel()

	rm := &fakeMail{}
	uc := newTestUsecase(t, generatorConfig, &fakeGenerator{code: "123456"}, rm)

	start := time.Now()
	_, err := uc.SendOTP(context.Background(), SendOTPInput{Email: "a@b.co"})
	require.NoError(t, err)

	assert.WithinDuration(t, start.Add(defaultSendTimeout), rm.deadline, 2*time.Second)
}

func TestUsecase_SendPasswordReset(t *testing.T) {
	t.Parallel()

	t.Run("MissingOTP", func(t *testing.T) {
		t.Parallel()

		uc := newTestUsecase(t, callerCodeConfig, &fakeGenerator{}, &fakeMail{})
		_, err := uc.SendPasswordReset(context.Background(), SendPasswordResetInput{Email: "a@b.co"})
		assertBusinessError(t, err, 400, "Email and OTP are required")
	})

	t.Run("CallerCode", func(t *testing.T) {
		t.Parallel()

		rm := &fakeMail{}
		uc := newTestUsecase(t, callerCodeConfig, &fakeGenerator{}, rm)
		out, err := uc.SendPasswordReset(context.Background(), SendPasswordResetInput{Email: "a@b.co", OTP: "654321", FullName: "Ana"})
		require.NoError(t, err)
		assert.Equal(t, fixedNow, out.Timestamp)

		require.Len(t, rm.sent, 1)
		assert.Equal(t, "654321 - Your Password Reset Code", rm.sent[0].Subject)
		assert.Equal(t, "Share Boost Security", rm.sent[0].FromName)
		assert.Contains(t, rm.sent[0].HTMLBody, "Hello Ana!")
	})

	t.Run("GeneratorEcho", func(t *testing.T) {
		t.Parallel()

		uc := newTestUsecase(t, generatorEchoConfig, &fakeGenerator{code: "777777"}, &fakeMail{})
		out, err := uc.SendPasswordReset(context.Background(), SendPasswordResetInput{Email: "a@b.co"})
		require.NoError(t, err)
		assert.Equal(t, "777777", out.Code)
	})

	t.Run("TransportError", func(t *testing.T) {
		t.Parallel()

		uc := newTestUsecase(t, callerCodeConfig, &fakeGenerator{}, &fakeMail{err: mail.ErrCredentialsMissing})
		_, err := uc.SendPasswordReset(context.Background(), SendPasswordResetInput{Email: "a@b.co", OTP: "1"})
		assertBusinessError(t, err, 500, "Failed to send email")
	})
}
