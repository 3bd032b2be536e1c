// Package http serves the caller-facing authentication API.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/identity"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Accounts is the account lifecycle as seen by the handlers.
type Accounts interface {
	CreateAccount(ctx context.Context, fullName, email string) (string, error)
	SignIn(ctx context.Context, email string) (string, error)
	VerifySecret(ctx context.Context, accountID, secret string) (*identity.SessionHandle, error)
	DemoLogin(ctx context.Context) (*services.DemoResult, error)
}

// Sessions mints cookies and resolves them.
type Sessions interface {
	MintCookie(h *identity.SessionHandle) *http.Cookie
	ClearCookie() *http.Cookie
	CurrentUser(ctx context.Context, sc services.SessionContext) *models.Account
	IsDemoUser(ctx context.Context, sc services.SessionContext) bool
	SignOut(ctx context.Context, sc services.SessionContext) error
	Entitlements(ctx context.Context, acc *models.Account) models.Entitlements
}

type HTTPServer struct {
	address  string
	accounts Accounts
	sessions Sessions
	logger   logging.Logger
}

func NewHTTPServer(a string, l logging.Logger, as Accounts, ss Sessions) *HTTPServer {
	return &HTTPServer{
		address:  a,
		accounts: as,
		sessions: ss,
		logger:   l.With("module", "http_server"),
	}
}

// Router builds the route table.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.accessLog)
	r.Use(s.sessionContext)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/sign-up", s.handleSignUp)
		r.Post("/sign-in", s.handleSignIn)
		r.Post("/verify", s.handleVerify)
		r.Get("/me", s.handleMe)
		r.Get("/demo-status", s.handleDemoStatus)
		r.Post("/sign-out", s.handleSignOut)
		r.Post("/demo", s.handleDemo)
	})

	return r
}

func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
