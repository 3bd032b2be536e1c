package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	// Revoke is idempotent: revoking a revoked or unknown session is not an error.
	Revoke(ctx context.Context, id string, at time.Time) error
}
