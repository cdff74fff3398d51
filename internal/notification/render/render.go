// Package render turns a notification into the subject, HTML body and
// plain-text body of an email.
//
// Both purposes share one layout; a purpose only swaps the color theme and
// the copy, so interpolation is identical for every message. Rendering is
// pure: the same notification always yields byte-identical output.
package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/shandysiswandi/otpmail/internal/notification/entity"
)

// ErrUnknownPurpose is returned for notifications without a known purpose.
var ErrUnknownPurpose = errors.New("unknown notification purpose")

// DefaultBrand names the product in subjects, headings and signatures.
const DefaultBrand = "Share Boost"

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Theme holds the CSS colors of a purpose.
type Theme struct {
	Primary   htmltemplate.CSS
	Secondary htmltemplate.CSS
	PanelFrom htmltemplate.CSS
	PanelTo   htmltemplate.CSS
}

var (
	// ThemeVerification is the violet verification theme.
	ThemeVerification = Theme{Primary: "#8B5CF6", Secondary: "#7C3AED", PanelFrom: "#f7fafc", PanelTo: "#edf2f7"}
	// ThemePasswordReset is the red password reset theme.
	ThemePasswordReset = Theme{Primary: "#ef4444", Secondary: "#dc2626", PanelFrom: "#fef2f2", PanelTo: "#fee2e2"}
)

type copyText struct {
	SubjectSuffix    string
	FromName         string
	Title            string
	Heading          string
	Subheading       string
	Intro            string
	CodeLabel        string
	Outro            func(code string) string
	Warning          string
	FooterReason     string
	TextIntro        string
	TextCodeLabel    string
	TextExpiry       string
	SecurityReminder string
	Signature        string
}

type variant struct {
	theme Theme
	copy  copyText
}

type templateData struct {
	Name  string
	Code  string
	Email string
	Outro string
	Theme Theme
	Copy  copyText
}

// Renderer renders notifications with the embedded templates.
type Renderer struct {
	html     *htmltemplate.Template
	text     *texttemplate.Template
	variants map[entity.Purpose]variant
}

// New parses the embedded templates and prepares the copy for brand.
// An empty brand falls back to DefaultBrand.
func New(brand string) (*Renderer, error) {
	if brand == "" {
		brand = DefaultBrand
	}

	html, err := htmltemplate.New("message.html.tmpl").Option("missingkey=error").ParseFS(templatesFS, "templates/message.html.tmpl")
	if err != nil {
		return nil, err
	}

	text, err := texttemplate.New("message.txt.tmpl").Option("missingkey=error").ParseFS(templatesFS, "templates/message.txt.tmpl")
	if err != nil {
		return nil, err
	}

	verifyOutro := func(code string) string {
		return fmt.Sprintf("Simply enter this %s in the verification field on our website to activate your account and start boosting your social media presence.", codeNoun(code))
	}
	resetOutro := func(string) string {
		return "Enter this code on the password reset page to create a new password for your account."
	}

	reminder := fmt.Sprintf("For your security, never share this code with anyone. %s will never ask you for it.", brand)

	return &Renderer{
		html: html,
		text: text,
		variants: map[entity.Purpose]variant{
			entity.PurposeVerification: {
				theme: ThemeVerification,
				copy: copyText{
					SubjectSuffix:    fmt.Sprintf("Your %s Verification Code", brand),
					FromName:         brand,
					Title:            fmt.Sprintf("Email Verification - %s", brand),
					Heading:          brand,
					Subheading:       "Verify Your Email Address",
					Intro:            fmt.Sprintf("Welcome to %s! We're excited to have you on board. To complete your registration and secure your account, please verify your email address using the verification code below.", brand),
					CodeLabel:        "Verification Code",
					Outro:            verifyOutro,
					FooterReason:     fmt.Sprintf("because you requested email verification for %s.", brand),
					TextIntro:        fmt.Sprintf("Welcome to %s!", brand),
					TextCodeLabel:    "email verification code",
					TextExpiry:       "Please enter it on the verification page to complete your registration.",
					SecurityReminder: reminder,
					Signature:        fmt.Sprintf("%s Team", brand),
				},
			},
			entity.PurposePasswordReset: {
				theme: ThemePasswordReset,
				copy: copyText{
					SubjectSuffix:    "Your Password Reset Code",
					FromName:         brand + " Security",
					Title:            fmt.Sprintf("Password Reset - %s", brand),
					Heading:          "Password Reset",
					Subheading:       fmt.Sprintf("Reset Your %s Password", brand),
					Intro:            fmt.Sprintf("We received a request to reset your %s account password. If you made this request, please use the verification code below to proceed with resetting your password.", brand),
					CodeLabel:        "Password Reset Code",
					Outro:            resetOutro,
					Warning:          "If you didn't request this password reset, please contact our support team immediately.",
					FooterReason:     fmt.Sprintf("for your %s account security.", brand),
					TextIntro:        fmt.Sprintf("We received a request to reset your %s account password.", brand),
					TextCodeLabel:    "password reset code",
					TextExpiry:       "If you didn't request this password reset, please ignore this email.",
					SecurityReminder: reminder,
					Signature:        fmt.Sprintf("%s Security Team", brand),
				},
			},
		},
	}, nil
}

// codeNoun reads "6-digit code" for an all-digit code of six characters and
// plain "code" otherwise.
func codeNoun(code string) string {
	if code == "" || strings.Trim(code, "0123456789") != "" {
		return "code"
	}
	return fmt.Sprintf("%d-digit code", len(code))
}

// Render builds the message for n.
func (r *Renderer) Render(n entity.Notification) (entity.RenderedMessage, error) {
	v, ok := r.variants[n.Purpose]
	if !ok {
		return entity.RenderedMessage{}, ErrUnknownPurpose
	}

	data := templateData{
		Name:  n.DisplayName(),
		Code:  n.Code,
		Email: n.Email,
		Outro: v.copy.Outro(n.Code),
		Theme: v.theme,
		Copy:  v.copy,
	}

	var html bytes.Buffer
	if err := r.html.Execute(&html, data); err != nil {
		return entity.RenderedMessage{}, err
	}

	var text bytes.Buffer
	if err := r.text.Execute(&text, data); err != nil {
		return entity.RenderedMessage{}, err
	}

	return entity.RenderedMessage{
		Subject:  n.Code + " - " + v.copy.SubjectSuffix,
		HTMLBody: html.String(),
		TextBody: text.String(),
		FromName: v.copy.FromName,
	}, nil
}
