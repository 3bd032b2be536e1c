package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/server/services"
)

const maxBodyBytes = 1 << 20

type signUpRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type signInRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	AccountID string `json:"accountId"`
	Password  string `json:"password"`
}

type accountIDResponse struct {
	AccountID string `json:"accountId"`
}

type sessionIDResponse struct {
	SessionID string `json:"sessionId"`
}

type meResponse struct {
	Account      *models.Account     `json:"account"`
	Entitlements models.Entitlements `json:"entitlements"`
}

type demoStatusResponse struct {
	IsDemo bool `json:"isDemo"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *HTTPServer) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !s.decode(w, r, &req) {
		return
	}

	accountID, err := s.accounts.CreateAccount(r.Context(), req.FullName, req.Email)
	if err != nil {
		s.writeLifecycleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountIDResponse{AccountID: accountID})
}

func (s *HTTPServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !s.decode(w, r, &req) {
		return
	}

	accountID, err := s.accounts.SignIn(r.Context(), req.Email)
	if err != nil {
		s.writeLifecycleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountIDResponse{AccountID: accountID})
}

func (s *HTTPServer) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !s.decode(w, r, &req) {
		return
	}

	h, err := s.accounts.VerifySecret(r.Context(), req.AccountID, req.Password)
	if err != nil {
		s.writeLifecycleError(w, r, err)
		return
	}

	http.SetCookie(w, s.sessions.MintCookie(h))
	writeJSON(w, http.StatusOK, sessionIDResponse{SessionID: h.SessionID})
}

func (s *HTTPServer) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	acc := s.sessions.CurrentUser(ctx, services.SessionFromContext(ctx))
	if acc == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: common.MsgNoCurrentUser})
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		Account:      acc,
		Entitlements: s.sessions.Entitlements(ctx, acc),
	})
}

func (s *HTTPServer) handleDemoStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(w, http.StatusOK, demoStatusResponse{
		IsDemo: s.sessions.IsDemoUser(ctx, services.SessionFromContext(ctx)),
	})
}

// handleSignOut always ends at the sign-in page, whether or not the session
// could be revoked.
func (s *HTTPServer) handleSignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_ = s.sessions.SignOut(ctx, services.SessionFromContext(ctx))

	http.SetCookie(w, s.sessions.ClearCookie())
	http.Redirect(w, r, common.SignInPath, http.StatusSeeOther)
}

func (s *HTTPServer) handleDemo(w http.ResponseWriter, r *http.Request) {
	res, err := s.accounts.DemoLogin(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: common.MsgDemoLogin})
		return
	}

	http.SetCookie(w, s.sessions.MintCookie(res.Session))
	if res.Existing {
		http.Redirect(w, r, common.RootPath, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *HTTPServer) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}

func (s *HTTPServer) writeLifecycleError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: common.UserMessage(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrDuplicateAccount):
		return http.StatusConflict
	case errors.Is(err, common.ErrUnknownAccount):
		return http.StatusNotFound
	case errors.Is(err, common.ErrVerification):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrOtpDispatch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
