package app

import (
	"context"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpmail/internal/pkg/clock"
	"github.com/shandysiswandi/otpmail/internal/pkg/config"
	"github.com/shandysiswandi/otpmail/internal/pkg/instrument"
	"github.com/shandysiswandi/otpmail/internal/pkg/mail"
	"github.com/shandysiswandi/otpmail/internal/pkg/otp"
	"github.com/shandysiswandi/otpmail/internal/pkg/ratelimit"
	"github.com/shandysiswandi/otpmail/internal/pkg/router"
	"github.com/shandysiswandi/otpmail/internal/pkg/uid"
	"github.com/shandysiswandi/otpmail/internal/pkg/validator"
)

// App wires dependencies and owns the service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	config config.Config
	ins    instrument.Instrumentation

	validator validator.Validator
	clock     clock.Clocker
	uuid      uid.StringID
	generator otp.Generator

	// nil unless the redis limiter is selected
	cacheConn *redis.Client
	limiter   ratelimit.Limiter
	mail      mail.Mail

	router     *router.Router
	httpServer *http.Server

	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// New loads configuration and builds every dependency. Any failure here is
// fatal and exits the process.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{ctx: ctx, cancel: cancel}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initCache()
	app.initRateLimit()
	app.initMail()
	app.initHTTPServer()
	app.initModules()

	return app
}
