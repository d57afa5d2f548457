// Package otp implements the HOTP (RFC 4226) and TOTP (RFC 6238) passcode
// primitives: a lenient Base32 codec for shared secrets, an HMAC signer, the
// dynamic truncation generator and the time step counter.
//
// Provisioning URIs (otpauth://) are parsed with github.com/pquerna/otp.
package otp
