package router

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// APIKeyAuth requires "Authorization: Bearer <secret>". The scheme is matched
// exactly, case and single space included; everything after it is the key.
func APIKeyAuth(secret string) Middleware {
	want := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				writeError(w, http.StatusUnauthorized, "Missing or invalid authorization header", "")
				return
			}

			if len(want) == 0 || subtle.ConstantTimeCompare([]byte(token), want) != 1 {
				writeError(w, http.StatusUnauthorized, "Invalid API key", "")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
