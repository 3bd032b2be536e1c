package models

import "time"

// Identity is held by the identity provider. Passwordless identities have
// no PasswordHash.
type Identity struct {
	ID            string
	Email         string
	PasswordHash  []byte
	EmailVerified bool
	CreatedAt     time.Time
}

// Challenge is a pending email OTP for an identity. Only a salted digest of
// the code is stored.
type Challenge struct {
	ID         string
	IdentityID string
	CodeHash   []byte
	Salt       []byte
	Attempts   int
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// Session providers.
const (
	ProviderEmailOTP = "email-otp"
	ProviderPassword = "password"
)

// Session is a provider-side login. The bearer secret handed to the browser
// is a signed token naming the session ID.
type Session struct {
	ID         string
	IdentityID string
	Provider   string
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	CreatedAt  time.Time
}

// Active reports whether s can still authenticate a caller at now.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
