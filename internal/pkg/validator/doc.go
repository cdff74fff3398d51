// Package validator checks structs annotated with `validate` tags.
//
// Failures come back as a V10ValidationError keyed by each field's json
// name, with English messages from go-playground/validator.
package validator
