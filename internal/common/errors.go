// Package common defines shared constants and sentinel errors used across
// client and server layers of vaultkeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)

// Account lifecycle errors.
var (
	ErrOtpDispatch      = errors.New("failed to send an OTP")
	ErrDuplicateAccount = errors.New("user already exists")
	ErrUnknownAccount   = errors.New("user does not exist")
	ErrVerification     = errors.New("failed to verify OTP")
	ErrCreate           = errors.New("failed to create account")
	ErrValidation       = errors.New("validation error")
	ErrDemoLogin        = errors.New("failed to log in as demo user")
)

// Session errors.
var (
	ErrNoSession          = errors.New("no current session")
	ErrSessionResolution  = errors.New("session resolution failed")
	ErrIdentityExists     = errors.New("identity already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
