// Package mail defines the contracts for sending email messages.
//
// The main purpose is to keep the rest of the application independent from a
// specific email provider. Use cases work with the Mail interface and Message
// payload; the concrete delivery mechanism (net/smtp or gomail) is picked by
// driver name in NewFromDriver.
package mail
