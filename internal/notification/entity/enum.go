package entity

import (
	"strings"
)

// Purpose selects the template and copy of a notification.
type Purpose int16

const (
	PurposeUnknown       Purpose = 0
	PurposeVerification  Purpose = 1
	PurposePasswordReset Purpose = 2
)

// PurposeFromString parses the request "type" field. An empty value means
// verification.
func PurposeFromString(raw string) Purpose {
	switch strings.TrimSpace(raw) {
	case "", "verification":
		return PurposeVerification
	case "password_reset":
		return PurposePasswordReset
	default:
		return PurposeUnknown
	}
}

func (p Purpose) String() string {
	switch p {
	case PurposeVerification:
		return "verification"
	case PurposePasswordReset:
		return "password_reset"
	default:
		return "unknown"
	}
}
