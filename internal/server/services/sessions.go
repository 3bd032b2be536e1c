package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/config"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/identity"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/vault"
)

// SessionService turns session handles into cookies and cookies back into
// accounts.
type SessionService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	provider      identity.Provider
	usage         vault.UsageReporter
	logger        logging.Logger
	demoEmail     string
	demoQuota     int64
	standardQuota int64
	secureCookies bool
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, p identity.Provider, u vault.UsageReporter, cfg *config.Config, l logging.Logger) *SessionService {
	return &SessionService{
		db:            db,
		repomanager:   m,
		provider:      p,
		usage:         u,
		logger:        l.With("module", "sessions"),
		demoEmail:     cfg.DemoAccountEmail,
		demoQuota:     cfg.DemoQuotaBytes,
		standardQuota: cfg.StandardQuotaBytes,
		secureCookies: cfg.SecureCookies,
	}
}

// MintCookie returns the session cookie for h. It has no expiry of its own;
// the provider decides how long the secret is honoured.
func (s *SessionService) MintCookie(h *identity.SessionHandle) *http.Cookie {
	return &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    h.Secret,
		Path:     common.RootPath,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   s.secureCookies,
	}
}

// ClearCookie returns a cookie that makes the browser drop the session.
func (s *SessionService) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     common.RootPath,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   s.secureCookies,
	}
}

// Resolve returns the account behind sc. It fails with common.ErrNoSession
// when sc carries no secret and with common.ErrSessionResolution when the
// secret is not honoured or no account matches the identity.
func (s *SessionService) Resolve(ctx context.Context, sc SessionContext) (*models.Account, error) {
	if !sc.Authenticated() {
		return nil, common.ErrNoSession
	}

	ident, err := s.provider.GetCurrentIdentity(ctx, sc.Secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrSessionResolution, err)
	}

	acc, err := s.repomanager.Accounts(s.db).FindByEmail(ctx, ident.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: no account for identity %s", common.ErrSessionResolution, ident.ID)
		}
		return nil, fmt.Errorf("%w: %w", common.ErrSessionResolution, err)
	}

	return acc, nil
}

// CurrentUser is Resolve with every failure reported as no user.
func (s *SessionService) CurrentUser(ctx context.Context, sc SessionContext) *models.Account {
	acc, err := s.Resolve(ctx, sc)
	if err != nil {
		if !errors.Is(err, common.ErrNoSession) {
			s.logger.Warn(ctx, "session not resolved", "err", err)
		}
		return nil
	}
	return acc
}

// IsDemoUser is false when there is no current user.
func (s *SessionService) IsDemoUser(ctx context.Context, sc SessionContext) bool {
	acc := s.CurrentUser(ctx, sc)
	return acc != nil && s.isDemo(acc)
}

func (s *SessionService) isDemo(acc *models.Account) bool {
	return acc.Email == s.demoEmail
}

// SignOut revokes the current session. Callers clear the cookie whatever
// it returns.
func (s *SessionService) SignOut(ctx context.Context, sc SessionContext) error {
	if !sc.Authenticated() {
		return nil
	}
	if err := s.provider.DeleteSession(ctx, sc.Secret); err != nil {
		s.logger.Warn(ctx, "session deletion failed", "err", err)
		return err
	}
	return nil
}

// Entitlements describes what acc may do with its vault. Demo accounts get
// a smaller quota and cannot share.
func (s *SessionService) Entitlements(ctx context.Context, acc *models.Account) models.Entitlements {
	e := models.Entitlements{
		MaxVaultBytes: s.standardQuota,
		CanShare:      true,
	}
	if s.isDemo(acc) {
		e.Demo = true
		e.MaxVaultBytes = s.demoQuota
		e.CanShare = false
	}

	if s.usage != nil {
		used, err := s.usage.UsedBytes(ctx, acc.AccountID)
		if err != nil {
			s.logger.Warn(ctx, "vault usage unavailable", "account_id", acc.AccountID, "err", err)
		} else {
			e.UsedVaultBytes = used
		}
	}

	return e
}
