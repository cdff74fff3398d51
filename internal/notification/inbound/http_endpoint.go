package inbound

import (
	"github.com/shandysiswandi/otpmail/internal/notification/usecase"
	"github.com/shandysiswandi/otpmail/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// SendOTP emails a verification code (or a password reset code when type is
// "password_reset").
func (h *HTTPEndpoint) SendOTP(r *router.Request) (any, error) {
	var req SendOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.SendOTP(r.Context(), usecase.SendOTPInput{
		Email:    req.Email,
		OTP:      req.OTP,
		FullName: req.FullName,
		Type:     req.Type,
	})
	if err != nil {
		return nil, err
	}

	return SendOTPResponse{
		Success:   true,
		Message:   "OTP email sent successfully",
		OTP:       out.Code,
		Timestamp: out.Timestamp.UTC().Format(router.TimestampLayout),
	}, nil
}

// SendPasswordReset emails a password reset code.
func (h *HTTPEndpoint) SendPasswordReset(r *router.Request) (any, error) {
	var req SendPasswordResetRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.SendPasswordReset(r.Context(), usecase.SendPasswordResetInput{
		Email:    req.Email,
		OTP:      req.OTP,
		FullName: req.FullName,
	})
	if err != nil {
		return nil, err
	}

	return SendOTPResponse{
		Success:   true,
		Message:   "Password reset email sent successfully",
		OTP:       out.Code,
		Timestamp: out.Timestamp.UTC().Format(router.TimestampLayout),
	}, nil
}
