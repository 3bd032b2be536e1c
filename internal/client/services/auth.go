// Package services contains application services for the vaultkeeper CLI.
// AuthService drives the OTP sign-up and sign-in flow against the server and
// keeps the resulting session in the local metadata store.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vaultkeeper/internal/client/client"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - SignUp / SignIn: ask the server to email a code and remember which
//     account awaits it.
//   - Verify: exchange the code for a session and persist it.
//   - WhoAmI / IsDemo: describe the stored session.
//   - Demo: sign in as the shared demo account.
//   - SignOut: end the session on the server and forget it locally.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	SignUp(ctx context.Context, fullName, email string) error
	SignIn(ctx context.Context, email string) error
	Verify(ctx context.Context, code string) error
	PendingEmail(ctx context.Context) (string, error)
	WhoAmI(ctx context.Context) (*models.Me, error)
	IsDemo(ctx context.Context) (bool, error)
	Demo(ctx context.Context) (*models.Session, error)
	SignOut(ctx context.Context) error
	SignedIn(ctx context.Context) bool
	Ping(ctx context.Context) error
}

// authService is the concrete AuthService backed by a remote Client and the
// local sqlite database.
type authService struct {
	client client.Client
	db     *sql.DB
}

// NewAuthService constructs an AuthService bound to the given API client and DB.
func NewAuthService(client client.Client, db *sql.DB) AuthService {
	return &authService{client: client, db: db}
}

func (a *authService) getMetadataRepo() metadata.Repository {
	return metadata.NewSQLiteRepository(a.db)
}

func (a *authService) SignUp(ctx context.Context, fullName, email string) error {
	accountID, err := a.client.SignUp(ctx, fullName, email)
	if err != nil {
		return err
	}
	return a.savePending(ctx, accountID, email)
}

func (a *authService) SignIn(ctx context.Context, email string) error {
	accountID, err := a.client.SignIn(ctx, email)
	if err != nil {
		return err
	}
	return a.savePending(ctx, accountID, email)
}

// savePending replaces any earlier pending account.
func (a *authService) savePending(ctx context.Context, accountID, email string) error {
	return a.getMetadataRepo().SetPendingAccount(ctx, metadata.PendingAccount{AccountID: accountID, Email: email})
}

// PendingEmail returns the address a code was last sent to, or "".
func (a *authService) PendingEmail(ctx context.Context) (string, error) {
	p, err := a.getMetadataRepo().PendingAccount(ctx)
	if err != nil || p == nil {
		return "", err
	}
	return p.Email, nil
}

// Verify completes the pending sign-up or sign-in. The pending account is
// kept when the server rejects the code, so the user may try again.
func (a *authService) Verify(ctx context.Context, code string) error {
	p, err := a.getMetadataRepo().PendingAccount(ctx)
	if err != nil {
		return err
	}
	if p == nil {
		return client.ErrNoPendingAccount
	}

	s, err := a.client.Verify(ctx, p.AccountID, code)
	if err != nil {
		return err
	}

	if err := a.saveSession(ctx, s.Secret); err != nil {
		return fmt.Errorf("session saving error: %w", err)
	}
	return nil
}

// saveSession stores secret and drops the pending account in one transaction.
func (a *authService) saveSession(ctx context.Context, secret string) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.SetSession(ctx, secret); err != nil {
			return err
		}
		return repo.DeletePendingAccount(ctx)
	})
}

func (a *authService) session(ctx context.Context) (string, error) {
	secret, err := a.getMetadataRepo().Session(ctx)
	if err != nil {
		return "", err
	}
	if secret == "" {
		return "", client.ErrNotSignedIn
	}
	return secret, nil
}

// WhoAmI returns the current user. A session the server no longer accepts
// is forgotten locally.
func (a *authService) WhoAmI(ctx context.Context) (*models.Me, error) {
	secret, err := a.session(ctx)
	if err != nil {
		return nil, err
	}

	me, err := a.client.Me(ctx, secret)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			_ = a.getMetadataRepo().DeleteSession(ctx)
		}
		return nil, err
	}
	return me, nil
}

// IsDemo reports whether the stored session belongs to the demo account.
// Without a stored session the answer is false.
func (a *authService) IsDemo(ctx context.Context) (bool, error) {
	secret, err := a.session(ctx)
	if errors.Is(err, client.ErrNotSignedIn) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.client.DemoStatus(ctx, secret)
}

func (a *authService) Demo(ctx context.Context) (*models.Session, error) {
	s, err := a.client.Demo(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.saveSession(ctx, s.Secret); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return s, nil
}

// SignOut ends the session on the server when it is reachable and always
// clears local state, mirroring the server which clears the cookie even
// when revocation fails.
func (a *authService) SignOut(ctx context.Context) error {
	secret, err := a.session(ctx)
	if err != nil && !errors.Is(err, client.ErrNotSignedIn) {
		return err
	}

	var remoteErr error
	if secret != "" {
		remoteErr = a.client.SignOut(ctx, secret)
	}

	if err := a.getMetadataRepo().Clear(ctx); err != nil {
		return err
	}
	return remoteErr
}

// SignedIn reports whether a session is stored locally.
func (a *authService) SignedIn(ctx context.Context) bool {
	_, err := a.session(ctx)
	return err == nil
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}
