// Package identity implements the identity provider behind the account
// lifecycle: email one-time-code challenges, password identities and the
// sessions both of them mint.
package identity

import (
	"context"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/server/models"
)

// SessionHandle is what a successful login hands back. Secret is the bearer
// credential stored in the session cookie.
type SessionHandle struct {
	SessionID  string
	Secret     string
	IdentityID string
	ExpiresAt  time.Time
}

type Provider interface {
	// SendEmailChallenge issues a fresh code for email and returns the id of
	// the identity the challenge belongs to. An identity already registered
	// for email keeps its id; otherwise identityID is used for a new one.
	SendEmailChallenge(ctx context.Context, identityID, email string) (string, error)
	VerifyChallenge(ctx context.Context, identityID, secret string) (*SessionHandle, error)
	CreatePasswordIdentity(ctx context.Context, id, email, password string) (*models.Identity, error)
	CreatePasswordSession(ctx context.Context, email, password string) (*SessionHandle, error)
	GetCurrentIdentity(ctx context.Context, secret string) (*models.Identity, error)
	// DeleteSession revokes the session the secret refers to.
	DeleteSession(ctx context.Context, secret string) error
}
