package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
)

const (
	keySession        = "session"
	keyPendingAccount = "pending_account"
	keyPendingEmail   = "pending_email"
)

const upsertQuery = `INSERT INTO metadata (key, value) VALUES %s
	ON CONFLICT(key) DO UPDATE SET value = excluded.value`

// SQLiteRepository implements Repository over the metadata key/value table.
// It accepts a transaction as well as a plain *sql.DB.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Session(ctx context.Context) (string, error) {
	var secret string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, keySession).Scan(&secret)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session: %w", err)
	}
	return secret, nil
}

func (r *SQLiteRepository) SetSession(ctx context.Context, secret string) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(upsertQuery, "(?, ?)"), keySession, []byte(secret))
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, keySession)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// PendingAccount returns nil when no account awaits a code.
func (r *SQLiteRepository) PendingAccount(ctx context.Context) (*PendingAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value FROM metadata WHERE key IN (?, ?)`, keyPendingAccount, keyPendingEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to read pending account: %w", err)
	}
	defer rows.Close()

	p := &PendingAccount{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan pending account: %w", err)
		}
		switch key {
		case keyPendingAccount:
			p.AccountID = value
		case keyPendingEmail:
			p.Email = value
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pending account: %w", err)
	}

	if p.AccountID == "" {
		return nil, nil
	}
	return p, nil
}

func (r *SQLiteRepository) SetPendingAccount(ctx context.Context, p PendingAccount) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(upsertQuery, "(?, ?), (?, ?)"),
		keyPendingAccount, []byte(p.AccountID), keyPendingEmail, []byte(p.Email))
	if err != nil {
		return fmt.Errorf("failed to store pending account: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeletePendingAccount(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM metadata WHERE key IN (?, ?)`, keyPendingAccount, keyPendingEmail)
	if err != nil {
		return fmt.Errorf("failed to delete pending account: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata`)
	if err != nil {
		return fmt.Errorf("failed to clear metadata: %w", err)
	}
	return nil
}
