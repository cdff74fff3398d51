package inbound

import (
	"context"

	"github.com/shandysiswandi/otpmail/internal/notification/usecase"
)

type uc interface {
	SendOTP(ctx context.Context, in usecase.SendOTPInput) (*usecase.SendOTPOutput, error)
	SendPasswordReset(ctx context.Context, in usecase.SendPasswordResetInput) (*usecase.SendPasswordResetOutput, error)
}
