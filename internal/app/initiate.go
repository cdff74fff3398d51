package app

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	libOTP "github.com/pquerna/otp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/samber/lo"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpmail/internal/pkg/clock"
	"github.com/shandysiswandi/otpmail/internal/pkg/instrument"
	"github.com/shandysiswandi/otpmail/internal/pkg/mail"
	"github.com/shandysiswandi/otpmail/internal/pkg/otp"
	"github.com/shandysiswandi/otpmail/internal/pkg/ratelimit"
	"github.com/shandysiswandi/otpmail/internal/pkg/router"
	"github.com/shandysiswandi/otpmail/internal/pkg/uid"
	"github.com/shandysiswandi/otpmail/internal/pkg/validator"
)

func (a *App) initInstrument() {
	serviceName := a.config.GetString("instrument.service_name")
	if serviceName == "" {
		serviceName = a.config.GetString("app.name")
	}

	ins, err := instrument.New(a.ctx, &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      serviceName,
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("app.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
		LogLevel:         a.config.GetString("instrument.log_level"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
	a.onClose("instrument", ins.Shutdown)
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.generator = otp.NewNumeric(libOTP.Digits(a.config.GetInt("otp.digits")))

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator
}

// initCache connects to redis only when the shared rate limit driver needs it.
func (a *App) initCache() {
	if !a.config.GetBool("security.enforce_auth_rate_limit") ||
		a.config.GetString("security.rate_limit.driver") != ratelimit.DriverRedis {
		return
	}

	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	b := retry.NewFibonacci(200 * time.Millisecond)
	b = retry.WithCappedDuration(2*time.Second, b)
	b = retry.WithMaxRetries(5, b)

	if err := retry.Do(a.ctx, b, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if err := rdb.Ping(pingCtx).Err(); err != nil {
			slog.Warn("redis not ready, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
	a.onClose("redis", func(context.Context) error { return rdb.Close() })
}

func (a *App) initRateLimit() {
	if !a.config.GetBool("security.enforce_auth_rate_limit") {
		slog.Warn("auth and rate limiting are disabled for send endpoints")
		return
	}

	limiter, err := ratelimit.NewFromDriver(a.config.GetString("security.rate_limit.driver"), ratelimit.Options{
		Max:    a.config.GetInt("security.rate_limit.max"),
		Window: a.config.GetSecond("security.rate_limit.window_seconds"),
		Clock:  a.clock,
		Redis:  a.cacheConn,
		Prefix: a.config.GetString("app.name") + ":ratelimit:",
	})
	if err != nil {
		slog.Error("failed to init rate limiter", "error", err)
		os.Exit(1)
	}

	a.limiter = limiter
	a.onClose("rate limiter", func(context.Context) error { return limiter.Close() })
}

func (a *App) initMail() {
	cfg := mail.Config{
		Host:     a.config.GetString("mail.host"),
		Port:     a.config.GetInt("mail.port"),
		Username: a.config.GetString("mail.username"),
		Password: a.config.GetString("mail.password"),
		From:     a.config.GetString("mail.from"),
	}

	m, err := mail.NewFromDriver(a.config.GetString("mail.driver"), cfg)
	if err != nil {
		slog.Error("failed to init mail", "error", err)
		os.Exit(1)
	}

	if cfg.Username == "" || cfg.Password == "" {
		slog.Warn("mail credentials are not configured, every send will fail")
	}

	a.mail = m
	a.onClose("mail", func(context.Context) error { return m.Close() })
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		Instrument: a.ins,
		Clock:      a.clock,
	})

	a.httpServer = &http.Server{
		Addr:              net.JoinHostPort(a.config.GetString("app.server.http.host"), strconv.Itoa(a.config.GetInt("app.server.http.port"))),
		Handler:           withCORS(a.config.GetArray("app.server.cors"), a.router),
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

// withCORS allows the configured origins, "*" meaning any, with credentials
// on and the correlation and rate limit headers exposed to browsers.
func withCORS(origins []string, h http.Handler) http.Handler {
	origins = lo.Uniq(origins)
	if len(origins) == 0 || lo.Contains(origins, "*") {
		origins = []string{"*"}
	}

	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", router.HeaderCorrelationID, router.HeaderRequestID},
		AllowCredentials: true,
		ExposedHeaders: []string{
			router.HeaderCorrelationID,
			router.HeaderRateLimitLimit,
			router.HeaderRateLimitRemaining,
			router.HeaderRateLimitReset,
			router.HeaderRetryAfter,
		},
	}).Handler(h)
}
