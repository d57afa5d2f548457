package entity

import "strings"

// OTPType is the stored passcode algorithm.
type OTPType int16

const (
	OTPTypeTOTP OTPType = 0
	OTPTypeHOTP OTPType = 1
)

func (t OTPType) String() string {
	switch t {
	case OTPTypeHOTP:
		return "HOTP"
	default:
		return "TOTP"
	}
}

// IsValid reports whether t is a known type.
func (t OTPType) IsValid() bool {
	return t == OTPTypeTOTP || t == OTPTypeHOTP
}

// OTPTypeFromString parses "totp" or "hotp"; ok is false otherwise.
func OTPTypeFromString(s string) (OTPType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TOTP":
		return OTPTypeTOTP, true
	case "HOTP":
		return OTPTypeHOTP, true
	default:
		return OTPTypeTOTP, false
	}
}

// Provider records what is known about an account being a Google account.
type Provider int16

const (
	// ProviderUnknown means nothing was said when the account was added.
	ProviderUnknown Provider = 0
	// ProviderGoogle marks a known Google account.
	ProviderGoogle Provider = 1
	// ProviderOther marks a known non-Google account.
	ProviderOther Provider = 2
)

// ProviderFromHint maps an optional Google hint to a provider.
func ProviderFromHint(isGoogle *bool) Provider {
	switch {
	case isGoogle == nil:
		return ProviderUnknown
	case *isGoogle:
		return ProviderGoogle
	default:
		return ProviderOther
	}
}
