package router

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/shandysiswandi/otpmail/internal/pkg/instrument"
	"github.com/shandysiswandi/otpmail/internal/pkg/uid"
)

const (
	// HeaderCorrelationID carries the request correlation ID in and out.
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is read when no correlation header was sent.
	HeaderRequestID = "X-Request-ID"

	maxCIDLength = 128
)

// acceptCID returns v when it is usable as a correlation ID. Values with
// spaces or control characters are dropped rather than cleaned.
func acceptCID(v string) (string, bool) {
	if v == "" || strings.IndexFunc(v, func(r rune) bool {
		return unicode.IsSpace(r) || !unicode.IsPrint(r)
	}) >= 0 {
		return "", false
	}
	if len(v) > maxCIDLength {
		v = v[:maxCIDLength]
	}
	return v, true
}

func middlewareCorrelationID(gen uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var cid string
			for _, h := range [...]string{HeaderCorrelationID, HeaderRequestID} {
				if v, ok := acceptCID(r.Header.Get(h)); ok {
					cid = v
					break
				}
			}
			if cid == "" && gen != nil {
				cid = gen.Generate()
			}

			if cid != "" {
				w.Header().Set(HeaderCorrelationID, cid)
				r = r.WithContext(instrument.SetCorrelationID(r.Context(), cid))
			}

			next.ServeHTTP(w, r)
		})
	}
}
