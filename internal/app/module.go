package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/otpmail/internal/notification"
)

func (a *App) initModules() {
	if err := notification.New(notification.Dependency{
		Config:     a.config,
		Instrument: a.ins,
		Clock:      a.clock,
		Validator:  a.validator,
		Generator:  a.generator,
		Limiter:    a.limiter,
		Router:     a.router,
		Mail:       a.mail,
	}); err != nil {
		slog.Error("failed to init module notification", "error", err)
		os.Exit(1)
	}
}
