// Package uid generates identifiers for requests and lock tokens.
package uid

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}
