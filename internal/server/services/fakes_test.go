package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/config"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/identity"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/challenges"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/identities"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/sessions"
)

// --- accounts store ---

type fakeAccountsRepo struct {
	mu        sync.Mutex
	rows      []*models.Account
	findErr   error
	createErr error
	// afterFind, when set, runs after every lookup and before it returns
	afterFind func()
}

func (f *fakeAccountsRepo) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	f.mu.Lock()
	var found *models.Account
	err := f.findErr
	if err == nil {
		for _, a := range f.rows {
			if a.Email == email {
				cp := *a
				found = &cp
				break
			}
		}
	}
	f.mu.Unlock()

	if f.afterFind != nil {
		f.afterFind()
	}
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, common.ErrorNotFound
	}
	return found, nil
}

func (f *fakeAccountsRepo) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	cp := *a
	cp.ID = fmt.Sprintf("row-%d", len(f.rows)+1)
	cp.CreatedAt = time.Now()
	f.rows = append(f.rows, &cp)
	return &cp, nil
}

func (f *fakeAccountsRepo) count(email string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.rows {
		if a.Email == email {
			n++
		}
	}
	return n
}

type fakeRepoManager struct {
	a *fakeAccountsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository        { return m.a }
func (m *fakeRepoManager) Identities(dbx.DBTX) identities.Repository    { return nil }
func (m *fakeRepoManager) Challenges(dbx.DBTX) challenges.Repository    { return nil }
func (m *fakeRepoManager) Sessions(dbx.DBTX) sessions.Repository        { return nil }

// --- identity provider ---

type fakeIdentity struct {
	id       string
	email    string
	password string
}

// fakeProvider mimics the identity provider in memory. Codes are recorded
// per identity so tests can play the user reading their inbox.
type fakeProvider struct {
	mu         sync.Mutex
	identities map[string]*fakeIdentity // by email
	codes      map[string]string        // identity id -> pending code
	sessions   map[string]string        // secret -> identity id
	sent       []string                 // emails a code was sent to

	sendErr          error
	createIdentErr   error
	passwordSessErr  error
	deleteSessionErr error

	// fixed ids for scenario tests; consumed in order
	identityIDs []string
	sessionIDs  []string

	seq int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		identities: map[string]*fakeIdentity{},
		codes:      map[string]string{},
		sessions:   map[string]string{},
	}
}

func (p *fakeProvider) nextID(fixed *[]string, prefix string) string {
	if len(*fixed) > 0 {
		id := (*fixed)[0]
		*fixed = (*fixed)[1:]
		return id
	}
	p.seq++
	return fmt.Sprintf("%s-%d", prefix, p.seq)
}

func (p *fakeProvider) SendEmailChallenge(_ context.Context, identityID, email string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return "", p.sendErr
	}
	ident, ok := p.identities[email]
	if !ok {
		if len(p.identityIDs) > 0 {
			identityID = p.nextID(&p.identityIDs, "ident")
		}
		ident = &fakeIdentity{id: identityID, email: email}
		p.identities[email] = ident
	}
	p.codes[ident.id] = "123456"
	p.sent = append(p.sent, email)
	return ident.id, nil
}

func (p *fakeProvider) VerifyChallenge(_ context.Context, identityID, secret string) (*identity.SessionHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	code, ok := p.codes[identityID]
	if !ok || code != secret {
		return nil, common.ErrVerification
	}
	delete(p.codes, identityID)
	return p.newSession(identityID), nil
}

func (p *fakeProvider) CreatePasswordIdentity(_ context.Context, id, email, password string) (*models.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createIdentErr != nil {
		return nil, p.createIdentErr
	}
	if _, ok := p.identities[email]; ok {
		return nil, common.ErrIdentityExists
	}
	p.identities[email] = &fakeIdentity{id: id, email: email, password: password}
	return &models.Identity{ID: id, Email: email}, nil
}

func (p *fakeProvider) CreatePasswordSession(_ context.Context, email, password string) (*identity.SessionHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.passwordSessErr != nil {
		return nil, p.passwordSessErr
	}
	ident, ok := p.identities[email]
	if !ok || ident.password == "" || ident.password != password {
		return nil, common.ErrInvalidCredentials
	}
	return p.newSession(ident.id), nil
}

func (p *fakeProvider) GetCurrentIdentity(_ context.Context, secret string) (*models.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.sessions[secret]
	if !ok {
		return nil, common.ErrInvalidToken
	}
	for _, ident := range p.identities {
		if ident.id == id {
			return &models.Identity{ID: ident.id, Email: ident.email, EmailVerified: true}, nil
		}
	}
	return nil, errors.New("identity vanished")
}

func (p *fakeProvider) DeleteSession(_ context.Context, secret string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.deleteSessionErr != nil {
		return p.deleteSessionErr
	}
	delete(p.sessions, secret)
	return nil
}

func (p *fakeProvider) newSession(identityID string) *identity.SessionHandle {
	sid := p.nextID(&p.sessionIDs, "sess")
	secret := "secret-" + sid
	p.sessions[secret] = identityID
	return &identity.SessionHandle{
		SessionID:  sid,
		Secret:     secret,
		IdentityID: identityID,
		ExpiresAt:  time.Now().Add(time.Hour),
	}
}

func (p *fakeProvider) sentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

// --- usage reporter ---

type fakeUsage struct {
	used int64
	err  error
	ids  []string
}

func (f *fakeUsage) UsedBytes(_ context.Context, accountID string) (int64, error) {
	f.ids = append(f.ids, accountID)
	return f.used, f.err
}

// --- wiring ---

type env struct {
	repo     *fakeAccountsRepo
	provider *fakeProvider
	usage    *fakeUsage
	accounts *AccountService
	sessions *SessionService
	cfg      *config.Config
}

func newEnv() *env {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	e := &env{
		repo:     &fakeAccountsRepo{},
		provider: newFakeProvider(),
		usage:    &fakeUsage{},
		cfg:      cfg,
	}
	rm := &fakeRepoManager{a: e.repo}
	otp := NewOtpIssuer(e.provider, logging.Nop())
	e.accounts = NewAccountService(nil, rm, e.provider, otp, cfg, logging.Nop())
	e.sessions = NewSessionService(nil, rm, e.provider, e.usage, cfg, logging.Nop())
	return e
}
