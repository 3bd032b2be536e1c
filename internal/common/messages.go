package common

import (
	"errors"
	"strings"
)

// User-facing messages. The client renders them verbatim.
const (
	MsgDuplicateAccount = "User already exists."
	MsgUnknownAccount   = "User does not exist. Please sign up."
	MsgVerification     = "Failed to verify OTP"
	MsgOtpDispatch      = "Failed to send an OTP"
	MsgGeneric          = "Failed to create account or sign in. Please try again."
	MsgDemoLogin        = "Failed to log in as demo user. Please try again in some time."
	MsgNoCurrentUser    = "no current user"
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// UserMessage maps an account lifecycle error to the message shown to the
// user. Unanticipated errors fall through to MsgGeneric.
func UserMessage(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return strings.ToUpper(verr.Error()[:1]) + verr.Error()[1:]
	case errors.Is(err, ErrDuplicateAccount):
		return MsgDuplicateAccount
	case errors.Is(err, ErrUnknownAccount):
		return MsgUnknownAccount
	case errors.Is(err, ErrVerification):
		return MsgVerification
	case errors.Is(err, ErrOtpDispatch):
		return MsgOtpDispatch
	case errors.Is(err, ErrDemoLogin):
		return MsgDemoLogin
	default:
		return MsgGeneric
	}
}
