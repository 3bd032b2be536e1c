package client

import (
	"errors"
	"net/http"
)

var (
	ErrUnavailable      = errors.New("server unavailable")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNoPendingAccount = errors.New("no sign-up or sign-in awaiting verification")
	ErrNotSignedIn      = errors.New("not signed in")
)

// APIError is a non-success answer from the server. Message is the
// server's user-facing text and is safe to print as is.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string { return e.Message }

// Unwrap lets errors.Is(err, ErrUnauthorized) match a 401.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}
