// Package config exposes read-only access to the service configuration.
//
// Components receive a Config at construction time and never read the process
// environment themselves; the concrete source (file, .env, environment) is
// decided once in the app wiring.
package config

import (
	"io"
	"time"
)

// Config defines a set of methods for retrieving configuration values of various types.
// Missing keys yield the zero value of the requested type.
type Config interface {
	io.Closer

	// GetBool retrieves the value associated with the given key as a bool.
	GetBool(key string) bool

	// GetString retrieves the value associated with the given key as a string.
	GetString(key string) string

	// GetInt retrieves the value associated with the given key as an int.
	GetInt(key string) int

	// GetInt64 retrieves the value associated with the given key as an int64.
	GetInt64(key string) int64

	// GetFloat64 retrieves the value associated with the given key as a float64.
	GetFloat64(key string) float64

	// GetSecond retrieves the value associated with the given key as seconds.
	GetSecond(key string) time.Duration

	// GetArray retrieves the value associated with the given key as a slice of strings.
	// The value is stored with format <element1>,<element2>,... Elements are trimmed
	// and empty elements are dropped, so an unset key yields an empty slice.
	GetArray(key string) []string
}
