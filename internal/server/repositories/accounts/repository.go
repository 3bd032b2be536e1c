// Package accounts declares the credential store: one record per account,
// looked up by email.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/vaultkeeper/internal/server/models"
)

// Repository stores Account records. It does not enforce email uniqueness.
type Repository interface {
	// FindByEmail returns the oldest account with this exact email, or
	// common.ErrorNotFound.
	FindByEmail(ctx context.Context, email string) (*models.Account, error)

	// Create inserts a and fills in its ID and CreatedAt.
	Create(ctx context.Context, a *models.Account) (*models.Account, error)
}
