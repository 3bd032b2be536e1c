// Package metadata keeps the client's sign-in state in the local sqlite
// database: the session cookie and the account waiting for its OTP.
package metadata

import (
	"context"
)

// PendingAccount is the account a code was last requested for.
type PendingAccount struct {
	AccountID string
	Email     string
}

// Repository stores sign-in state. Absent values are reported as "" or nil
// without an error.
type Repository interface {
	Session(ctx context.Context) (string, error)
	SetSession(ctx context.Context, secret string) error
	DeleteSession(ctx context.Context) error

	PendingAccount(ctx context.Context) (*PendingAccount, error)
	// SetPendingAccount replaces any earlier pending account.
	SetPendingAccount(ctx context.Context, p PendingAccount) error
	DeletePendingAccount(ctx context.Context) error

	// Clear forgets everything, as after sign-out.
	Clear(ctx context.Context) error
}
