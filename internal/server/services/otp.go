package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/identity"
	"github.com/google/uuid"
)

// OtpIssuer issues email one-time codes and exchanges them for sessions.
type OtpIssuer struct {
	provider identity.Provider
	logger   logging.Logger
}

func NewOtpIssuer(p identity.Provider, l logging.Logger) *OtpIssuer {
	return &OtpIssuer{provider: p, logger: l.With("module", "otp")}
}

// Issue sends a code to email and returns the account id the code is bound to.
func (o *OtpIssuer) Issue(ctx context.Context, email string) (string, error) {
	accountID, err := o.provider.SendEmailChallenge(ctx, uuid.NewString(), email)
	if err != nil {
		o.logger.Error(ctx, "otp dispatch failed", "email", email, "err", err)
		if errors.Is(err, common.ErrOtpDispatch) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", common.ErrOtpDispatch, err)
	}
	return accountID, nil
}

// Verify exchanges secret for a session. Every failure is reported as
// common.ErrVerification so callers cannot tell a wrong code from an
// expired one.
func (o *OtpIssuer) Verify(ctx context.Context, accountID, secret string) (*identity.SessionHandle, error) {
	h, err := o.provider.VerifyChallenge(ctx, accountID, secret)
	if err != nil {
		if !errors.Is(err, common.ErrVerification) {
			o.logger.Error(ctx, "otp verification failed", "account_id", accountID, "err", err)
		}
		return nil, common.ErrVerification
	}
	return h, nil
}
