package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/client/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/netx"
)

// Client is the CLI's view of the server auth API. Calls that act on the
// current session take its secret explicitly; the client keeps no state.
type Client interface {
	Ping(ctx context.Context) error
	SignUp(ctx context.Context, fullName, email string) (string, error)
	SignIn(ctx context.Context, email string) (string, error)
	Verify(ctx context.Context, accountID, code string) (*models.Session, error)
	Me(ctx context.Context, secret string) (*models.Me, error)
	DemoStatus(ctx context.Context, secret string) (bool, error)
	Demo(ctx context.Context) (*models.Session, error)
	SignOut(ctx context.Context, secret string) error
}

// HTTPClient talks to the chi API under /api/auth.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    netx.NewClient(timeout),
	}
}

type accountIDResponse struct {
	AccountID string `json:"accountId"`
}

type sessionIDResponse struct {
	SessionID string `json:"sessionId"`
}

// do sends the request and maps transport failures to ErrUnavailable.
// The caller closes the body.
func (c *HTTPClient) do(ctx context.Context, method, path, secret string, body any) (*http.Response, error) {
	req, err := netx.NewJSONRequest(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if secret != "" {
		req.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: secret})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return resp, nil
}

// expect turns any status outside ok into an APIError.
func expect(resp *http.Response, ok ...int) error {
	for _, s := range ok {
		if resp.StatusCode == s {
			return nil
		}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: netx.ErrorMessage(resp)}
}

func sessionCookie(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == common.SessionCookieName {
			return c.Value
		}
	}
	return ""
}

// Ping reports whether the server answers its health check.
func (c *HTTPClient) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	}
	return nil
}

// SignUp registers a new account and returns the account id to verify.
func (c *HTTPClient) SignUp(ctx context.Context, fullName, email string) (string, error) {
	body := map[string]string{"fullName": fullName, "email": email}
	return c.accountID(ctx, "/api/auth/sign-up", body)
}

// SignIn starts an OTP sign-in and returns the account id to verify.
func (c *HTTPClient) SignIn(ctx context.Context, email string) (string, error) {
	return c.accountID(ctx, "/api/auth/sign-in", map[string]string{"email": email})
}

func (c *HTTPClient) accountID(ctx context.Context, path string, body any) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, path, "", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := expect(resp, http.StatusOK); err != nil {
		return "", err
	}

	var out accountIDResponse
	if err := netx.DecodeJSON(resp, &out); err != nil {
		return "", err
	}
	return out.AccountID, nil
}

// Verify exchanges the emailed code for a session.
func (c *HTTPClient) Verify(ctx context.Context, accountID, code string) (*models.Session, error) {
	body := map[string]string{"accountId": accountID, "password": code}
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/verify", "", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := expect(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var out sessionIDResponse
	if err := netx.DecodeJSON(resp, &out); err != nil {
		return nil, err
	}

	secret := sessionCookie(resp)
	if secret == "" {
		return nil, fmt.Errorf("verify: response carried no %s cookie", common.SessionCookieName)
	}
	return &models.Session{ID: out.SessionID, Secret: secret}, nil
}

// Me returns the signed-in user. A missing or stale session yields an
// error matching ErrUnauthorized.
func (c *HTTPClient) Me(ctx context.Context, secret string) (*models.Me, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/auth/me", secret, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := expect(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var me models.Me
	if err := netx.DecodeJSON(resp, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

func (c *HTTPClient) DemoStatus(ctx context.Context, secret string) (bool, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/auth/demo-status", secret, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if err := expect(resp, http.StatusOK); err != nil {
		return false, err
	}

	var out struct {
		IsDemo bool `json:"isDemo"`
	}
	if err := netx.DecodeJSON(resp, &out); err != nil {
		return false, err
	}
	return out.IsDemo, nil
}

// Demo signs in as the shared demo account. The server answers 303 when the
// account already existed and 200 when it was just provisioned.
func (c *HTTPClient) Demo(ctx context.Context) (*models.Session, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/demo", "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := expect(resp, http.StatusOK, http.StatusSeeOther); err != nil {
		return nil, err
	}

	secret := sessionCookie(resp)
	if secret == "" {
		return nil, fmt.Errorf("demo: response carried no %s cookie", common.SessionCookieName)
	}
	return &models.Session{Secret: secret, Existing: resp.StatusCode == http.StatusSeeOther}, nil
}

// SignOut asks the server to end the session. The server always redirects
// to the sign-in page, even when revocation failed on its side.
func (c *HTTPClient) SignOut(ctx context.Context, secret string) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/sign-out", secret, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return expect(resp, http.StatusSeeOther, http.StatusOK)
}
