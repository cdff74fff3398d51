package render

import (
	"testing"

	"github.com/shandysiswandi/otpmail/internal/notification/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Render(t *testing.T) {
	t.Parallel()

	r, err := New("")
	require.NoError(t, err)

	tests := []struct {
		name         string
		in           entity.Notification
		wantSubject  string
		wantFromName string
		wantHTML     []string
		wantText     []string
		notHTML      []string
	}{
		{
			name:         "Verification",
			in:           entity.Notification{Email: "a@b.co", FullName: "Ana", Code: "123456", Purpose: entity.PurposeVerification},
			wantSubject:  "123456 - Your Share Boost Verification Code",
			wantFromName: "Share Boost",
			wantHTML:     []string{"#8B5CF6", "#7C3AED", "Hello Ana!", "Verification Code", "Verify Your Email Address", "<strong>a@b.co</strong>", "123456", "Simply enter this 6-digit code", "start boosting your social media presence"},
			wantText:     []string{"Hello Ana,", "Welcome to Share Boost!", "Your email verification code is: 123456", "never share this code", "Share Boost Team"},
			notHTML:      []string{"#ef4444", "contact our support team"},
		},
		{
			name:         "PasswordReset",
			in:           entity.Notification{Email: "a@b.co", Code: "654321", Purpose: entity.PurposePasswordReset},
			wantSubject:  "654321 - Your Password Reset Code",
			wantFromName: "Share Boost Security",
			wantHTML:     []string{"#ef4444", "#dc2626", "Hello User!", "Password Reset Code", "Reset Your Share Boost Password", "contact our support team", "654321"},
			wantText:     []string{"Hello User,", "Your password reset code is: 654321", "please ignore this email", "Share Boost Security Team"},
			notHTML:      []string{"#8B5CF6"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := r.Render(tt.in)
			require.NoError(t, err)

			assert.Equal(t, tt.wantSubject, got.Subject)
			assert.Equal(t, tt.wantFromName, got.FromName)
			for _, s := range tt.wantHTML {
				assert.Contains(t, got.HTMLBody, s)
			}
			for _, s := range tt.wantText {
				assert.Contains(t, got.TextBody, s)
			}
			for _, s := range tt.notHTML {
				assert.NotContains(t, got.HTMLBody, s)
			}
		})
	}
}

func TestRenderer_Render_Deterministic(t *testing.T) {
	t.Parallel()

	r, err := New("Acme")
	require.NoError(t, err)

	in := entity.Notification{Email: "x@y.z", FullName: "Bo", Code: "111111", Purpose: entity.PurposeVerification}
	first, err := r.Render(in)
	require.NoError(t, err)
	second, err := r.Render(in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "111111 - Your Acme Verification Code", first.Subject)
	assert.Equal(t, "Acme", first.FromName)
}

func TestRenderer_Render_PurposeOnlyChangesThemeAndCopy(t *testing.T) {
	t.Parallel()

	r, err := New("")
	require.NoError(t, err)

	in := entity.Notification{Email: "x@y.z", FullName: "Bo", Code: "222222", Purpose: entity.PurposeVerification}
	v, err := r.Render(in)
	require.NoError(t, err)

	in.Purpose = entity.PurposePasswordReset
	p, err := r.Render(in)
	require.NoError(t, err)

	for _, body := range []string{v.HTMLBody, p.HTMLBody} {
		assert.Contains(t, body, "Hello Bo!")
		assert.Contains(t, body, "222222")
		assert.Contains(t, body, "<strong>x@y.z</strong>")
	}
	assert.NotEqual(t, v.HTMLBody, p.HTMLBody)
}

func TestRenderer_Render_EscapesHTML(t *testing.T) {
	t.Parallel()

	r, err := New("")
	require.NoError(t, err)

	got, err := r.Render(entity.Notification{
		Email:    "<b>x@y.z</b>",
		FullName: "<script>alert(1)</script>",
		Code:     "123456",
		Purpose:  entity.PurposeVerification,
	})
	require.NoError(t, err)

	assert.NotContains(t, got.HTMLBody, "<script>alert(1)</script>")
	assert.Contains(t, got.HTMLBody, "&lt;script&gt;")
	assert.Contains(t, got.TextBody, "Hello <script>alert(1)</script>,")
}

func TestRenderer_Render_UnknownPurpose(t *testing.T) {
	t.Parallel()

	r, err := New("")
	require.NoError(t, err)

	_, err = r.Render(entity.Notification{Email: "x@y.z", Code: "1", Purpose: entity.PurposeUnknown})
	assert.ErrorIs(t, err, ErrUnknownPurpose)
}

func TestCodeNoun(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "6-digit code", codeNoun("123456"))
	assert.Equal(t, "8-digit code", codeNoun("12345678"))
	assert.Equal(t, "code", codeNoun("AB12CD"))
	assert.Equal(t, "code", codeNoun(""))
}
