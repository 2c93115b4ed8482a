// Package config reads runtime settings from a YAML file with environment
// overrides.
package config

import (
	"io"
	"time"
)

// Config is the read-only view of application settings. Missing keys yield
// the zero value of the requested type.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint64(key string) uint64
	GetFloat64(key string) float64

	// GetSecond and GetMinute scale an integer value to a duration.
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration

	// GetBinary decodes a base64 value; invalid input yields nil.
	GetBinary(key string) []byte

	// GetArray splits "a, b,c" into trimmed, non-empty elements.
	GetArray(key string) []string
}
