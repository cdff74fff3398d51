package inbound

type SendOTPRequest struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	FullName string `json:"fullname"`
	Type     string `json:"type"`
}

type SendOTPResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	OTP       string `json:"otp,omitempty"`
	Timestamp string `json:"timestamp"`
}

type SendPasswordResetRequest struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	FullName string `json:"fullname"`
}
