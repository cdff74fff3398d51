package router

import (
	"net/http"

	"github.com/shandysiswandi/otpmail/internal/pkg/config"
)

// middlewareMaintenance answers 503 for routes listed in app.maintenance.endpoints.
func middlewareMaintenance(cfg config.Config) Middleware {
	endpoints := make(map[string]struct{})
	for _, endpoint := range cfg.GetArray("app.maintenance.endpoints") {
		endpoints[endpoint] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		if len(endpoints) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, blocked := endpoints[matchedRoutePath(r)]; blocked {
				writeError(w, http.StatusServiceUnavailable, "Service is under maintenance", "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
