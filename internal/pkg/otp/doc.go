// Package otp generates numeric one-time passcodes delivered out of band
// (email), as opposed to authenticator-based TOTP.
//
// Codes are not stored or bound to a recipient; binding and expiry are the
// caller's concern.
package otp
