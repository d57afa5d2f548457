package otp

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // RFC 4226 mandates HMAC-SHA1
	"errors"
)

// ErrCrypto is returned when a passcode cannot be signed.
var ErrCrypto = errors.New("otp: signing failed")

// Signer produces a MAC over the given data.
type Signer interface {
	Sign(data []byte) ([]byte, error)
}

// HMACSigner signs with HMAC-SHA1 keyed by the decoded shared secret.
type HMACSigner struct {
	key []byte
}

// NewHMACSigner returns a signer for key. An empty key is rejected.
func NewHMACSigner(key []byte) (*HMACSigner, error) {
	if len(key) == 0 {
		return nil, errors.Join(ErrCrypto, errors.New("empty key"))
	}

	return &HMACSigner{key: append([]byte(nil), key...)}, nil
}

// NewHMACSignerFromSecret decodes a Base32 secret and returns its signer.
func NewHMACSignerFromSecret(secret string) (*HMACSigner, error) {
	key, err := DecodeBase32(secret)
	if err != nil {
		return nil, err
	}

	return NewHMACSigner(key)
}

// Sign implements Signer.
func (s *HMACSigner) Sign(data []byte) ([]byte, error) {
	mac := hmac.New(sha1.New, s.key)
	if _, err := mac.Write(data); err != nil {
		return nil, errors.Join(ErrCrypto, err)
	}

	return mac.Sum(nil), nil
}
