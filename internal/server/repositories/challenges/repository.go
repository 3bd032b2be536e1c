// Package challenges stores one-time-password challenges. Only digests of
// the codes are kept.
package challenges

import (
	"context"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.Challenge) error
	// DeletePending removes every unconsumed challenge of the identity.
	DeletePending(ctx context.Context, identityID string) error
	// GetPending returns the newest unconsumed challenge of the identity.
	GetPending(ctx context.Context, identityID string) (*models.Challenge, error)
	// ClaimAttempt counts one verification attempt against the challenge and
	// returns the new count. It fails with common.ErrorNotFound when the
	// challenge is gone, consumed or already has maxAttempts attempts.
	ClaimAttempt(ctx context.Context, id string, maxAttempts int) (int, error)
	// Consume marks the challenge used. It fails with common.ErrorNotFound
	// when the challenge is missing or already consumed.
	Consume(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}
