// Package uid generates identifiers used for request correlation.
package uid

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}
