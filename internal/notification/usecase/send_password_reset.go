package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shandysiswandi/otpmail/internal/notification/entity"
)

type (
	SendPasswordResetInput struct {
		Email    string
		OTP      string
		FullName string
	}

	SendPasswordResetOutput struct {
		Code      string
		Timestamp time.Time
	}
)

func (s *Usecase) SendPasswordReset(ctx context.Context, in SendPasswordResetInput) (*SendPasswordResetOutput, error) {
	ctx, span := s.startSpan(ctx, "SendPasswordReset")
	defer span.End()

	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)

	if err := s.validate(in.Email, in.OTP); err != nil {
		return nil, err
	}

	code, generated, err := s.issueCode(ctx, in.OTP)
	if err != nil {
		return nil, err
	}

	if err := s.deliver(ctx, entity.Notification{
		Email:    in.Email,
		FullName: in.FullName,
		Code:     code,
		Purpose:  entity.PurposePasswordReset,
	}); err != nil {
		return nil, err
	}

	out := &SendPasswordResetOutput{Timestamp: s.clock.Now()}
	if generated && s.cfg.GetBool("otp.echo_generated_code") {
		out.Code = code
	}

	return out, nil
}
