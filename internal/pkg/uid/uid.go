// Package uid generates identifiers: snowflake int64 keys for rows and UUID v7
// strings for tokens and correlation ids.
package uid

// NumberID generates sortable int64 identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}
