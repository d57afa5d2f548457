package otp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultLength is the passcode length used by authenticator apps.
	DefaultLength = 6
	// ChallengeLength is the passcode length used for challenge responses.
	ChallengeLength = 9
	// MaxLength is the longest passcode that fits in a 31 bit truncation.
	MaxLength = 9

	// VerifyTimeoutDefault is the default window, in states, on each side of the current one.
	VerifyTimeoutDefault = 1
)

// ErrInvalidLength is returned for a passcode length outside [1, MaxLength].
var ErrInvalidLength = errors.New("otp: invalid passcode length")

var powersOfTen = [MaxLength + 1]uint32{
	1, 10, 100, 1_000, 10_000, 100_000, 1_000_000, 10_000_000, 100_000_000, 1_000_000_000,
}

// Generator computes RFC 4226 passcodes with dynamic truncation.
type Generator struct {
	signer Signer
	length int
}

// NewGenerator returns a Generator producing codes of the given length.
func NewGenerator(signer Signer, length int) (*Generator, error) {
	if signer == nil {
		return nil, errors.Join(ErrCrypto, errors.New("nil signer"))
	}
	if length < 1 || length > MaxLength {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}

	return &Generator{signer: signer, length: length}, nil
}

// Length returns the number of digits produced.
func (g *Generator) Length() int {
	return g.length
}

// Generate returns the passcode for state.
func (g *Generator) Generate(state uint64) (string, error) {
	return g.GenerateWithChallenge(state, nil)
}

// GenerateWithChallenge returns the passcode for state followed by challenge.
// A nil or empty challenge signs the state alone.
func (g *Generator) GenerateWithChallenge(state uint64, challenge []byte) (string, error) {
	msg := make([]byte, 8, 8+len(challenge))
	binary.BigEndian.PutUint64(msg, state)
	msg = append(msg, challenge...)

	hash, err := g.signer.Sign(msg)
	if err != nil {
		return "", errors.Join(ErrCrypto, err)
	}
	if len(hash) == 0 {
		return "", fmt.Errorf("%w: empty signature", ErrCrypto)
	}

	offset := int(hash[len(hash)-1] & 0x0f)
	if offset+4 > len(hash) {
		return "", fmt.Errorf("%w: short signature of %d bytes", ErrCrypto, len(hash))
	}
	truncated := binary.BigEndian.Uint32(hash[offset:offset+4]) & 0x7fffffff
	code := truncated % powersOfTen[g.length]

	s := strconv.FormatUint(uint64(code), 10)
	if pad := g.length - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}

	return s, nil
}

// Verify reports whether candidate is the passcode for state.
func (g *Generator) Verify(state uint64, candidate string) (bool, error) {
	code, err := g.Generate(state)
	if err != nil {
		return false, err
	}

	return code == candidate, nil
}

// VerifyTimeout reports whether code matches any state in
// [current-pastWindow, current+futureWindow]. Negative windows count as zero.
func (g *Generator) VerifyTimeout(code string, current int64, pastWindow, futureWindow int) (bool, error) {
	pastWindow = max(pastWindow, 0)
	futureWindow = max(futureWindow, 0)

	for state := current - int64(pastWindow); state <= current+int64(futureWindow); state++ {
		ok, err := g.Verify(uint64(state), code)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}

	return false, nil
}
