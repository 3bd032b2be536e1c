package challenges

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Challenge) error {
	query :=
		`INSERT INTO challenges (id, identity_id, code_hash, salt, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING attempts, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, c.ID, c.IdentityID, c.CodeHash, c.Salt, c.ExpiresAt).
		Scan(&c.Attempts, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) DeletePending(ctx context.Context, identityID string) error {
	query := `DELETE FROM challenges WHERE identity_id = $1 AND consumed_at IS NULL`

	if _, err := r.db.ExecContext(ctx, query, identityID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetPending(ctx context.Context, identityID string) (*models.Challenge, error) {
	query :=
		`SELECT id, identity_id, code_hash, salt, attempts, expires_at, created_at FROM challenges
		 WHERE identity_id = $1 AND consumed_at IS NULL
		 ORDER BY created_at DESC
		 LIMIT 1
		 `

	c := &models.Challenge{}
	err := r.db.QueryRowContext(ctx, query, identityID).
		Scan(&c.ID, &c.IdentityID, &c.CodeHash, &c.Salt, &c.Attempts, &c.ExpiresAt, &c.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) ClaimAttempt(ctx context.Context, id string, maxAttempts int) (int, error) {
	query :=
		`UPDATE challenges SET attempts = attempts + 1
		 WHERE id = $1 AND attempts < $2 AND consumed_at IS NULL
		 RETURNING attempts
		 `

	var attempts int
	err := r.db.QueryRowContext(ctx, query, id, maxAttempts).Scan(&attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	return attempts, nil
}

func (r *PostgresRepository) Consume(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE challenges SET consumed_at = $2 WHERE id = $1 AND consumed_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM challenges WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
