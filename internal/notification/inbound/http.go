package inbound

import (
	"github.com/shandysiswandi/otpmail/internal/pkg/router"
)

// RegisterHTTPEndpoint mounts the send endpoints. mws run on every send route
// after the global chain; pass the rate and auth gates here when enforced.
func RegisterHTTPEndpoint(r *router.Router, uc uc, mws ...router.Middleware) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/send-otp", end.SendOTP, mws...)
	r.POST("/send-otp", end.SendOTP, mws...)
	r.POST("/api/send-password-reset", end.SendPasswordReset, mws...)
}
