package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	pquernaotp "github.com/pquerna/otp"
	"github.com/shandysiswandi/otpmail/internal/pkg/clock"
	"github.com/shandysiswandi/otpmail/internal/pkg/config"
	"github.com/shandysiswandi/otpmail/internal/pkg/instrument"
	"github.com/shandysiswandi/otpmail/internal/pkg/mail"
	"github.com/shandysiswandi/otpmail/internal/pkg/otp"
	"github.com/shandysiswandi/otpmail/internal/pkg/ratelimit"
	"github.com/shandysiswandi/otpmail/internal/pkg/router"
	"github.com/shandysiswandi/otpmail/internal/pkg/uid"
	"github.com/shandysiswandi/otpmail/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMail struct {
	mu   sync.Mutex
	err  error
	sent []mail.Message
}

func (m *recordingMail) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMail) Close() error { return nil }

func (m *recordingMail) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type envelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	OTP       string `json:"otp"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error"`
	Details   string `json:"details"`
}

const enforcedConfig = `
app:
  name: otpmail
  env: production
security:
  enforce_auth_rate_limit: true
  api_key: s3cret
otp:
  require_caller_code: true
`

func newServer(t *testing.T, yaml string, rm *recordingMail) http.Handler {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	ins := instrument.NewNoop()
	clk := clock.New()
	r := router.NewRouter(router.Config{Config: cfg, UUID: uid.NewUUID(), Instrument: ins, Clock: clk})

	err = New(Dependency{
		Config:     cfg,
		Instrument: ins,
		Clock:      clk,
		Validator:  v,
		Generator:  otp.NewNumeric(pquernaotp.DigitsSix),
		Limiter:    ratelimit.NewMemory(10, 15*time.Minute, clk),
		Router:     r,
		Mail:       rm,
	})
	require.NoError(t, err)

	return r
}

func doJSON(t *testing.T, h http.Handler, path, body, token string) (int, envelope) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())

	return rec.Code, env
}

func TestSendOTP_Enforced(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		body     string
		token    string
		wantCode int
		wantMsg  string
		wantErr  string
		wantSent int
	}{
		{name: "MissingAuth", path: "/api/send-otp", body: `{"email":"a@b.co","otp":"123456"}`, wantCode: 401, wantErr: "Missing or invalid authorization header"},
		{name: "WrongKey", path: "/api/send-otp", body: `{"email":"a@b.co","otp":"123456"}`, token: "nope", wantCode: 401, wantErr: "Invalid API key"},
		{name: "MissingOTP", path: "/api/send-otp", body: `{"email":"a@b.co"}`, token: "s3cret", wantCode: 400, wantErr: "Email and OTP are required"},
		{name: "EmptyBody", path: "/api/send-otp", body: ``, token: "s3cret", wantCode: 400, wantErr: "Email and OTP are required"},
		{name: "Malformed", path: "/api/send-otp", body: `{"email":`, token: "s3cret", wantCode: 400, wantErr: "Invalid request body"},
		{name: "Sent", path: "/api/send-otp", body: `{"email":"a@b.co","otp":"123456","fullname":"Ana"}`, token: "s3cret", wantCode: 200, wantMsg: "OTP email sent successfully", wantSent: 1},
		{name: "Alias", path: "/send-otp", body: `{"email":"a@b.co","otp":"123456"}`, token: "s3cret", wantCode: 200, wantMsg: "OTP email sent successfully", wantSent: 1},
		{name: "PasswordReset", path: "/api/send-password-reset", body: `{"email":"a@b.co","otp":"123456"}`, token: "s3cret", wantCode: 200, wantMsg: "Password reset email sent successfully", wantSent: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rm := &recordingMail{}
			h := newServer(t, enforcedConfig, rm)

			code, env := doJSON(t, h, tt.path, tt.body, tt.token)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantCode == 200, env.Success)
			assert.Equal(t, tt.wantMsg, env.Message)
			assert.Equal(t, tt.wantErr, env.Error)
			assert.Empty(t, env.OTP)
			assert.Empty(t, env.Details)
			assert.Equal(t, tt.wantSent, rm.count())
			if tt.wantCode == 200 {
				_, err := time.Parse(time.RFC3339, env.Timestamp)
				assert.NoError(t, err)
			}
		})
	}
}

func TestSendOTP_RateLimitBeforeAuth(t *testing.T) {
	t.Parallel()

	h := newServer(t, enforcedConfig, &recordingMail{})

	for i := 0; i < 10; i++ {
		code, _ := doJSON(t, h, "/api/send-otp", `{}`, "")
		require.Equal(t, http.StatusUnauthorized, code)
	}

	code, env := doJSON(t, h, "/api/send-password-reset", `{"email":"a@b.co","otp":"1"}`, "s3cret")
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "Too many email requests, please try again later.", env.Error)
}

func TestSendOTP_TransportFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("535 5.7.8 Username and Password not accepted")

	for _, env := range []string{"production", "development"} {
		h := newServer(t, strings.Replace(enforcedConfig, "env: production", "env: "+env, 1), &recordingMail{err: cause})

		code, got := doJSON(t, h, "/api/send-otp", `{"email":"a@b.co","otp":"123456"}`, "s3cret")
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.False(t, got.Success)
		assert.Equal(t, "Failed to send email", got.Error)
		if env == "development" {
			assert.Equal(t, cause.Error(), got.Details)
		} else {
			assert.Empty(t, got.Details)
		}
	}
}

func TestSendOTP_GeneratorMode(t *testing.T) {
	t.Parallel()

	const cfg = `
app:
  name: otpmail
security:
  enforce_auth_rate_limit: false
otp:
  require_caller_code: false
  echo_generated_code: %s
`

	t.Run("NoEcho", func(t *testing.T) {
		t.Parallel()

		rm := &recordingMail{}
		h := newServer(t, strings.Replace(cfg, "%s", "false", 1), rm)

		code, env := doJSON(t, h, "/api/send-otp", `{"email":"a@b.co"}`, "")
		assert.Equal(t, http.StatusOK, code)
		assert.Empty(t, env.OTP)
		require.Equal(t, 1, rm.count())
		assert.Regexp(t, `^[1-9]\d{5} - Your Share Boost Verification Code$`, rm.sent[0].Subject)
	})

	t.Run("Echo", func(t *testing.T) {
		t.Parallel()

		rm := &recordingMail{}
		h := newServer(t, strings.Replace(cfg, "%s", "true", 1), rm)

		code, env := doJSON(t, h, "/api/send-otp", `{"email":"a@b.co","otp":"000000"}`, "")
		assert.Equal(t, http.StatusOK, code)
		assert.Regexp(t, `^[1-9]\d{5}$`, env.OTP)
		require.Equal(t, 1, rm.count())
		assert.True(t, strings.HasPrefix(rm.sent[0].Subject, env.OTP+" - "))
	})

	t.Run("MissingEmail", func(t *testing.T) {
		t.Parallel()

		h := newServer(t, strings.Replace(cfg, "%s", "false", 1), &recordingMail{})
		code, env := doJSON(t, h, "/api/send-otp", `{}`, "")
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Email is required", env.Error)
	})
}

func TestNew_MissingAPIKey(t *testing.T) {
	t.Parallel()

	cfg, err := config.NewViperFromBytes("yaml", []byte("security:\n  enforce_auth_rate_limit: true\n"))
	require.NoError(t, err)

	ins := instrument.NewNoop()
	err = New(Dependency{
		Config:     cfg,
		Instrument: ins,
		Router:     router.NewRouter(router.Config{Config: cfg, Instrument: ins}),
		Mail:       &recordingMail{},
	})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
