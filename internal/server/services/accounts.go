// Package services contains the server-side business logic: the account
// lifecycle (sign-up, sign-in, OTP verification, demo login) and session
// resolution.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/avatar"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/config"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/identity"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	minFullNameLen = 2
	maxFullNameLen = 50
)

// DemoResult is the outcome of a demo login. Existing is false when this
// call provisioned the demo account.
type DemoResult struct {
	Session  *identity.SessionHandle
	Existing bool
}

// AccountService drives sign-up, sign-in and demo provisioning against the
// account store and the identity provider.
type AccountService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	provider     identity.Provider
	otp          *OtpIssuer
	logger       logging.Logger
	demoEmail    string
	demoPassword string
	demoFullName string
	avatarBase   string
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, p identity.Provider, otp *OtpIssuer, cfg *config.Config, l logging.Logger) *AccountService {
	return &AccountService{
		db:           db,
		repomanager:  m,
		provider:     p,
		otp:          otp,
		logger:       l.With("module", "accounts"),
		demoEmail:    cfg.DemoAccountEmail,
		demoPassword: cfg.DemoAccountPassword,
		demoFullName: cfg.DemoAccountFullName,
		avatarBase:   cfg.AvatarBaseURL,
	}
}

// CreateAccount registers email and sends it a code. The code goes out
// before the duplicate check fails, so an existing user still receives one.
//
// The existence check and the insert are not atomic: two concurrent calls
// for a new email can both create an account.
func (s *AccountService) CreateAccount(ctx context.Context, fullName, email string) (string, error) {
	fullName, err := validateFullName(fullName)
	if err != nil {
		return "", err
	}
	email, err = s.validateUserEmail(email)
	if err != nil {
		return "", err
	}

	existing, err := s.findAccount(ctx, email)
	if err != nil {
		return "", err
	}

	accountID, err := s.otp.Issue(ctx, email)
	if err != nil {
		return "", err
	}

	if existing != nil {
		return "", common.ErrDuplicateAccount
	}

	acc := &models.Account{
		Email:     email,
		FullName:  fullName,
		AvatarURL: avatar.PlaceholderURL(s.avatarBase, fullName),
		AccountID: accountID,
	}
	if _, err := s.repomanager.Accounts(s.db).Create(ctx, acc); err != nil {
		s.logger.Error(ctx, "account create failed", "email", email, "err", err)
		return "", fmt.Errorf("%w: %w", common.ErrCreate, err)
	}

	s.logger.Info(ctx, "account created", "account_id", accountID)
	return accountID, nil
}

// SignIn sends a code to a registered email and returns the account id
// stored for it. Unknown emails get no code.
func (s *AccountService) SignIn(ctx context.Context, email string) (string, error) {
	email, err := s.validateUserEmail(email)
	if err != nil {
		return "", err
	}

	existing, err := s.findAccount(ctx, email)
	if err != nil {
		return "", err
	}
	if existing == nil {
		return "", common.ErrUnknownAccount
	}

	if _, err := s.otp.Issue(ctx, email); err != nil {
		return "", err
	}

	return existing.AccountID, nil
}

// VerifySecret completes sign-up or sign-in.
func (s *AccountService) VerifySecret(ctx context.Context, accountID, secret string) (*identity.SessionHandle, error) {
	if accountID == "" || secret == "" {
		return nil, common.ErrVerification
	}
	return s.otp.Verify(ctx, accountID, secret)
}

// DemoLogin returns a password session for the shared demo account,
// provisioning the identity and the account on first use. A demo identity
// left without an account row, by an earlier failed attempt or a concurrent
// first login, is reused and the missing row is added.
func (s *AccountService) DemoLogin(ctx context.Context) (*DemoResult, error) {
	existing, err := s.findAccount(ctx, s.demoEmail)
	if err != nil {
		return nil, s.demoError(ctx, err)
	}

	if existing == nil {
		_, err := s.provider.CreatePasswordIdentity(ctx, uuid.NewString(), s.demoEmail, s.demoPassword)
		if err != nil && !errors.Is(err, common.ErrIdentityExists) {
			return nil, s.demoError(ctx, err)
		}
	}

	h, err := s.provider.CreatePasswordSession(ctx, s.demoEmail, s.demoPassword)
	if err != nil {
		return nil, s.demoError(ctx, err)
	}
	if existing != nil {
		return &DemoResult{Session: h, Existing: true}, nil
	}

	created, err := s.ensureDemoAccount(ctx, h.IdentityID)
	if err != nil {
		return nil, s.demoError(ctx, err)
	}
	return &DemoResult{Session: h, Existing: !created}, nil
}

// ensureDemoAccount adds the demo account row for identityID unless a
// concurrent login already did.
func (s *AccountService) ensureDemoAccount(ctx context.Context, identityID string) (bool, error) {
	existing, err := s.findAccount(ctx, s.demoEmail)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	acc := &models.Account{
		Email:     s.demoEmail,
		FullName:  s.demoFullName,
		AvatarURL: avatar.PlaceholderURL(s.avatarBase, s.demoFullName),
		AccountID: identityID,
	}
	if _, err := s.repomanager.Accounts(s.db).Create(ctx, acc); err != nil {
		return false, fmt.Errorf("%w: %w", common.ErrCreate, err)
	}
	s.logger.Info(ctx, "demo account provisioned", "account_id", identityID)
	return true, nil
}

func (s *AccountService) demoError(ctx context.Context, err error) error {
	s.logger.Error(ctx, "demo login failed", "err", err)
	return fmt.Errorf("%w: %w", common.ErrDemoLogin, err)
}

// findAccount returns nil without an error when no account has email.
func (s *AccountService) findAccount(ctx context.Context, email string) (*models.Account, error) {
	acc, err := s.repomanager.Accounts(s.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		s.logger.Error(ctx, "account lookup failed", "email", email, "err", err)
		return nil, fmt.Errorf("looking up account: %w", err)
	}
	return acc, nil
}

func validateFullName(fullName string) (string, error) {
	fullName = strings.TrimSpace(fullName)
	n := utf8.RuneCountInString(fullName)
	if n < minFullNameLen || n > maxFullNameLen {
		return "", &common.ValidationError{
			Field:  "full name",
			Reason: fmt.Sprintf("must be between %d and %d characters", minFullNameLen, maxFullNameLen),
		}
	}
	return fullName, nil
}

// validateUserEmail also refuses the demo address, which only DemoLogin
// may register.
func (s *AccountService) validateUserEmail(email string) (string, error) {
	email, err := validateEmail(email)
	if err != nil {
		return "", err
	}
	if strings.EqualFold(email, s.demoEmail) {
		return "", &common.ValidationError{Field: "email", Reason: "is reserved"}
	}
	return email, nil
}

// validateEmail accepts a bare address only, no display name.
func validateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", &common.ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	return email, nil
}
