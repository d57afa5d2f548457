package otp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		want    *Provisioning
		wantErr error
	}{
		{
			name: "totp with issuer param",
			uri:  "otpauth://totp/Example:alice@google.com?secret=JBSWY3DPEHPK3PXP&issuer=Example",
			want: &Provisioning{Kind: KindTOTP, Name: "Example:alice@google.com", Issuer: "Example", Secret: "JBSWY3DPEHPK3PXP"},
		},
		{
			name: "issuer from label prefix",
			uri:  "otpauth://totp/Yahoo:bob@x.com?secret=JBSWY3DPEHPK3PXP",
			want: &Provisioning{Kind: KindTOTP, Name: "Yahoo:bob@x.com", Issuer: "Yahoo", Secret: "JBSWY3DPEHPK3PXP"},
		},
		{
			name: "hotp with counter",
			uri:  "otpauth://hotp/bob?secret=7777777777777777&counter=5",
			want: &Provisioning{Kind: KindHOTP, Name: "bob", Secret: "7777777777777777", Counter: 5},
		},
		{
			name: "hotp with prefixed label and counter",
			uri:  "otpauth://hotp/Acme:bob?secret=7777777777777777&issuer=Acme&counter=42",
			want: &Provisioning{Kind: KindHOTP, Name: "Acme:bob", Issuer: "Acme", Secret: "7777777777777777", Counter: 42},
		},
		{
			name: "hotp with max counter",
			uri:  "otpauth://hotp/bob?secret=7777777777777777&counter=2147483647",
			want: &Provisioning{Kind: KindHOTP, Name: "bob", Secret: "7777777777777777", Counter: 2147483647},
		},
		{name: "counter past int32", uri: "otpauth://hotp/Acme:bob?secret=7777777777777777&counter=4294967297", wantErr: ErrInvalidURI},
		{name: "counter just past int32", uri: "otpauth://hotp/bob?secret=7777777777777777&counter=2147483648", wantErr: ErrInvalidURI},
		{name: "unknown type", uri: "otpauth://motp/bob?secret=7777777777777777", wantErr: ErrInvalidURI},
		{name: "missing secret", uri: "otpauth://totp/bob?issuer=X", wantErr: ErrInvalidURI},
		{name: "missing label", uri: "otpauth://totp/?secret=7777777777777777", wantErr: ErrInvalidURI},
		{name: "bad secret", uri: "otpauth://totp/bob?secret=1111", wantErr: ErrDecoding},
		{name: "bad counter", uri: "otpauth://hotp/bob?secret=7777777777777777&counter=x", wantErr: ErrInvalidURI},
		{name: "sha256", uri: "otpauth://totp/bob?secret=7777777777777777&algorithm=SHA256", wantErr: ErrInvalidURI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseURI(tt.uri)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
