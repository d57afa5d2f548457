package otp

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pquerna/otp"
)

// ErrInvalidURI is returned for a provisioning URI that cannot be used.
var ErrInvalidURI = errors.New("otp: invalid provisioning uri")

// Kind is the passcode algorithm of a provisioning URI.
type Kind string

const (
	KindTOTP Kind = "totp"
	KindHOTP Kind = "hotp"
)

// Provisioning holds the fields of an otpauth:// URI.
type Provisioning struct {
	Kind    Kind
	Name    string
	Issuer  string
	Secret  string
	Counter int32
}

// ParseURI parses an otpauth://totp or otpauth://hotp provisioning URI.
//
// The label is kept as is, so "Issuer:alice" stays prefixed; the issuer
// comes from the issuer parameter or, failing that, from the label prefix.
func ParseURI(uri string) (*Provisioning, error) {
	uri = strings.TrimSpace(uri)
	u, err := url.Parse(uri)
	if err != nil {
		return nil, errors.Join(ErrInvalidURI, err)
	}
	key, err := otp.NewKeyFromURL(uri)
	if err != nil {
		return nil, errors.Join(ErrInvalidURI, err)
	}
	if key.Algorithm() != otp.AlgorithmSHA1 {
		return nil, fmt.Errorf("%w: unsupported algorithm %s", ErrInvalidURI, key.Algorithm())
	}

	p := &Provisioning{
		Kind:   Kind(strings.ToLower(key.Type())),
		Issuer: key.Issuer(),
		Secret: key.Secret(),
	}
	if p.Kind != KindTOTP && p.Kind != KindHOTP {
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidURI, key.Type())
	}
	if p.Secret == "" {
		return nil, fmt.Errorf("%w: missing secret", ErrInvalidURI)
	}
	if _, err := DecodeBase32(p.Secret); err != nil {
		return nil, err
	}

	label := strings.TrimPrefix(u.Path, "/")
	if label == "" {
		return nil, fmt.Errorf("%w: missing account name", ErrInvalidURI)
	}
	p.Name = strings.TrimSpace(label)
	if p.Issuer == "" {
		if prefix, _, ok := strings.Cut(p.Name, ":"); ok {
			p.Issuer = strings.TrimSpace(prefix)
		}
	}

	if p.Kind == KindHOTP {
		if raw := u.Query().Get("counter"); raw != "" {
			counter, err := strconv.ParseInt(raw, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: bad counter %q", ErrInvalidURI, raw)
			}
			p.Counter = int32(counter)
		}
	}

	return p, nil
}
