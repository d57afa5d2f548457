package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addInput struct {
	DisplayName string `validate:"required"`
	Secret      string `validate:"required,base32"`
	Type        string `validate:"omitempty,otptype"`
	Code        string `validate:"omitempty,numeric,len=6"`
}

func TestV10Validator_Validate(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   addInput
		wantErr map[string]string
	}{
		{
			name:  "Valid",
			input: addInput{DisplayName: "alice@example.com", Secret: "7777777777777777", Type: "HOTP", Code: "123456"},
		},
		{
			name:  "LenientSecret",
			input: addInput{DisplayName: "bob", Secret: "jbsw y3dp-ehpk 3pxp"},
		},
		{
			name:  "Missing",
			input: addInput{},
			wantErr: map[string]string{
				"display_name": "DisplayName is a required field",
				"secret":       "Secret is a required field",
			},
		},
		{
			name:  "BadRules",
			input: addInput{DisplayName: "x", Secret: "not*base32", Type: "sms"},
			wantErr: map[string]string{
				"secret": "Secret must be a non-empty base32 string",
				"type":   "Type must be one of totp or hotp",
			},
		},
		{
			name:  "SeparatorsOnly",
			input: addInput{DisplayName: "x", Secret: "- -"},
			wantErr: map[string]string{
				"secret": "Secret must be a non-empty base32 string",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			var verr V10ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantErr, verr.Values())
			assert.NotEqual(t, "validation error", verr.Error())
		})
	}
}

func TestV10ValidationError_Empty(t *testing.T) {
	assert.Equal(t, "validation error", V10ValidationError{}.Error())
}
