package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/cryptox"
	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/auth"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/config"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/mailer"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const codeLength = 6

// LocalProvider keeps identities, challenges and sessions in the server's
// own database.
type LocalProvider struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	mailer      mailer.Mailer
	logger      logging.Logger

	secretKey   []byte
	sessionTTL  time.Duration
	otpTTL      time.Duration
	maxAttempts int

	now func() time.Time
}

func NewLocalProvider(db *sql.DB, m repomanager.RepositoryManager, ml mailer.Mailer, cfg *config.Config, logger logging.Logger) *LocalProvider {
	return &LocalProvider{
		db:          db,
		repomanager: m,
		mailer:      ml,
		logger:      logger,
		secretKey:   []byte(cfg.SecretKey),
		sessionTTL:  cfg.SessionValidityDuration,
		otpTTL:      cfg.OTPValidityDuration,
		maxAttempts: cfg.OTPMaxAttempts,
		now:         time.Now,
	}
}

func (p *LocalProvider) SendEmailChallenge(ctx context.Context, identityID, email string) (string, error) {
	ident, err := p.ensureIdentity(ctx, identityID, email)
	if err != nil {
		return "", err
	}

	code, err := common.RandomDigits(codeLength)
	if err != nil {
		return "", fmt.Errorf("generating code: %w", err)
	}
	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	if salt == nil {
		return "", fmt.Errorf("generating salt: %w", common.ErrorInternal)
	}

	ch := &models.Challenge{
		ID:         uuid.NewString(),
		IdentityID: ident.ID,
		CodeHash:   cryptox.DigestCode(code, salt),
		Salt:       salt,
		ExpiresAt:  p.now().Add(p.otpTTL),
	}

	err = dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := p.repomanager.Challenges(tx)
		if err := repo.DeletePending(ctx, ident.ID); err != nil {
			return err
		}
		return repo.Create(ctx, ch)
	})
	if err != nil {
		return "", fmt.Errorf("storing challenge: %w", err)
	}

	if err := p.mailer.SendOTP(ctx, email, code); err != nil {
		if delErr := p.repomanager.Challenges(p.db).Delete(ctx, ch.ID); delErr != nil {
			p.logger.Error(ctx, "failed to drop undelivered challenge", "challenge_id", ch.ID, "err", delErr)
		}
		return "", fmt.Errorf("%w: %w", common.ErrOtpDispatch, err)
	}

	return ident.ID, nil
}

// ensureIdentity returns the identity registered for email, creating an
// unverified passwordless one when there is none.
func (p *LocalProvider) ensureIdentity(ctx context.Context, identityID, email string) (*models.Identity, error) {
	repo := p.repomanager.Identities(p.db)

	ident, err := repo.GetByEmail(ctx, email)
	if err == nil {
		return ident, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	ident, err = repo.Create(ctx, &models.Identity{ID: identityID, Email: email})
	if errors.Is(err, common.ErrIdentityExists) {
		// lost a race with another challenge for the same email
		return repo.GetByEmail(ctx, email)
	}
	return ident, err
}

func (p *LocalProvider) VerifyChallenge(ctx context.Context, identityID, secret string) (*SessionHandle, error) {
	if _, err := uuid.Parse(identityID); err != nil {
		return nil, common.ErrVerification
	}

	challenges := p.repomanager.Challenges(p.db)

	ch, err := challenges.GetPending(ctx, identityID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrVerification
		}
		return nil, err
	}

	now := p.now()
	if !now.Before(ch.ExpiresAt) {
		return nil, common.ErrVerification
	}

	// the attempt is counted before the code is compared
	if _, err := challenges.ClaimAttempt(ctx, ch.ID, p.maxAttempts); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrVerification
		}
		return nil, err
	}

	if !cryptox.CheckCode(secret, ch.Salt, ch.CodeHash) {
		return nil, common.ErrVerification
	}

	var handle *SessionHandle
	err = dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := p.repomanager.Challenges(tx).Consume(ctx, ch.ID, now); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrVerification
			}
			return err
		}
		if err := p.repomanager.Identities(tx).MarkEmailVerified(ctx, identityID); err != nil {
			return err
		}
		var err error
		handle, err = p.issueSession(ctx, tx, identityID, models.ProviderEmailOTP)
		return err
	})
	if err != nil {
		return nil, err
	}

	return handle, nil
}

func (p *LocalProvider) CreatePasswordIdentity(ctx context.Context, id, email, password string) (*models.Identity, error) {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	return p.repomanager.Identities(p.db).Create(ctx, &models.Identity{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
	})
}

func (p *LocalProvider) CreatePasswordSession(ctx context.Context, email, password string) (*SessionHandle, error) {
	ident, err := p.repomanager.Identities(p.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	if len(ident.PasswordHash) == 0 || !cryptox.CheckPassword(ident.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}

	return p.issueSession(ctx, p.db, ident.ID, models.ProviderPassword)
}

func (p *LocalProvider) GetCurrentIdentity(ctx context.Context, secret string) (*models.Identity, error) {
	s, err := p.lookupSession(ctx, secret)
	if err != nil {
		return nil, err
	}

	if !s.Active(p.now()) {
		return nil, auth.ErrTokenExpired
	}

	ident, err := p.repomanager.Identities(p.db).GetByID(ctx, s.IdentityID)
	if err != nil {
		return nil, fmt.Errorf("loading identity: %w", err)
	}
	return ident, nil
}

func (p *LocalProvider) DeleteSession(ctx context.Context, secret string) error {
	s, err := p.lookupSession(ctx, secret)
	if err != nil {
		return err
	}
	return p.repomanager.Sessions(p.db).Revoke(ctx, s.ID, p.now())
}

// lookupSession validates the secret and loads the session it names.
func (p *LocalProvider) lookupSession(ctx context.Context, secret string) (*models.Session, error) {
	claims, err := auth.ParseToken(secret, p.secretKey)
	if err != nil {
		return nil, err
	}

	s, err := p.repomanager.Sessions(p.db).GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}
	if s.IdentityID != claims.Subject {
		return nil, common.ErrInvalidToken
	}
	return s, nil
}

func (p *LocalProvider) issueSession(ctx context.Context, db dbx.DBTX, identityID, provider string) (*SessionHandle, error) {
	s := &models.Session{
		ID:         uuid.NewString(),
		IdentityID: identityID,
		Provider:   provider,
		ExpiresAt:  p.now().Add(p.sessionTTL),
	}

	if err := p.repomanager.Sessions(db).Create(ctx, s); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	token, err := auth.GenerateToken(s.ID, identityID, p.secretKey, s.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("signing session: %w", err)
	}

	return &SessionHandle{
		SessionID:  s.ID,
		Secret:     token,
		IdentityID: identityID,
		ExpiresAt:  s.ExpiresAt,
	}, nil
}
