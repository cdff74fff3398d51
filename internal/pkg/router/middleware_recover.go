package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/shandysiswandi/otpmail/internal/pkg/stacktrace"
)

//nolint:contextcheck // ignore error
func middlewareRecoverer(exposeDetails bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					//nolint:err113,errorlint // this must compare directly
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}

					paths := stacktrace.Internal(2)
					if len(paths) == 0 {
						slog.ErrorContext(r.Context(), "panic on the server trace debug", "because", rvr, "stack", string(debug.Stack()))
					} else {
						slog.ErrorContext(r.Context(), "panic on the server", "because", rvr, "stack", paths)
					}

					var detail string
					if exposeDetails {
						detail = fmt.Sprint(rvr)
					}
					writeError(w, http.StatusInternalServerError, "Internal server error", detail)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
