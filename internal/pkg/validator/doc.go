// Package validator validates request and domain structs.
//
// Business code depends on the Validator interface. The go-playground
// implementation adds the authenticator rules "base32" and "otptype".
package validator
