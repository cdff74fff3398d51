package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shandysiswandi/otpmail/internal/notification/entity"
)

type (
	SendOTPInput struct {
		Email    string
		OTP      string
		FullName string
		Type     string
	}

	SendOTPOutput struct {
		// Code is set only when the code was generated here and echoing is enabled.
		Code      string
		Timestamp time.Time
	}
)

func (s *Usecase) SendOTP(ctx context.Context, in SendOTPInput) (*SendOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "SendOTP")
	defer span.End()

	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)

	if err := s.validate(in.Email, in.OTP); err != nil {
		return nil, err
	}

	purpose, err := s.parsePurpose(in.Type)
	if err != nil {
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
		Purpose:  purpose,
	}); err != nil {
		return nil, err
	}

	out := &SendOTPOutput{Timestamp: s.clock.Now()}
	if generated && s.cfg.GetBool("otp.echo_generated_code") {
		out.Code = code
	}

	return out, nil
}
