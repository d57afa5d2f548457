package otp

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrDecoding is returned when a secret is not valid Base32.
var ErrDecoding = errors.New("otp: invalid base32 secret")

const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

var base32Lookup = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(base32Alphabet); i++ {
		t[base32Alphabet[i]] = int8(i)
	}
	return t
}()

// DecodeBase32 decodes an RFC 4648 Base32 secret.
//
// Separators ('-') and whitespace are ignored, trailing '=' padding is
// dropped and the input is case-insensitive. Bits left over after the last
// full byte are discarded without being checked, so "AA" and "AB" decode to
// the same single byte.
func DecodeBase32(text string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, text)
	cleaned = strings.TrimRight(cleaned, "=")

	out := make([]byte, 0, len(cleaned)*5/8)

	var buffer uint32
	var bits uint
	for i := 0; i < len(cleaned); i++ {
		v := base32Lookup[cleaned[i]]
		if v < 0 {
			return nil, fmt.Errorf("%w: illegal character %q", ErrDecoding, cleaned[i])
		}

		buffer = buffer<<5 | uint32(v)
		bits += 5
		if bits >= 8 {
			bits -= 8
			out = append(out, byte(buffer>>bits))
		}
	}

	return out, nil
}

// EncodeBase32 encodes data without padding.
func EncodeBase32(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.Grow((len(data)*8 + 4) / 5)

	var buffer uint32
	var bits uint
	for _, b := range data {
		buffer = buffer<<8 | uint32(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			sb.WriteByte(base32Alphabet[(buffer>>bits)&0x1f])
		}
	}
	if bits > 0 {
		sb.WriteByte(base32Alphabet[(buffer<<(5-bits))&0x1f])
	}

	return sb.String()
}
