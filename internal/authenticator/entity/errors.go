package entity

import "errors"

var (
	ErrNoSuchAccount        = errors.New("authenticator: no such account")
	ErrDuplicateLimit       = errors.New("authenticator: too many accounts with the same name")
	ErrUnsupportedOperation = errors.New("authenticator: operation not supported for this account")
	ErrSwapFailed           = errors.New("authenticator: failed to swap account order")
)
