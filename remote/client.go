// Package remote wraps the game backend's auth endpoints in typed,
// fixed-timeout round trips. The client is stateless: it holds no token and
// no session, and every expected failure mode (bad credentials, duplicate
// account, field validation) is a typed return, never a panic. Only
// transport-level failures (dial, TLS, timeout) surface as NetworkError.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds every round trip when no custom http.Client is
// supplied.
const DefaultTimeout = 15 * time.Second

// maxResponseBytes caps how much of a response body is read. The backend's
// auth payloads are small; anything larger is a server defect.
const maxResponseBytes = 1 << 20

var (
	// ErrInvalidCredentials is returned by Authenticate when the backend
	// rejects the username/password pair.
	ErrInvalidCredentials = errors.New("remote: invalid credentials")
	// ErrInvalidToken is returned by Refresh and FetchIdentity when the
	// backend rejects the presented bearer token.
	ErrInvalidToken = errors.New("remote: invalid token")
	// ErrConflict is returned by Register when the account already exists.
	// Distinct from ValidationError so callers can fall through to login.
	ErrConflict = errors.New("remote: account already exists")
)

// ValidationError reports a 422 with field-level problems. Detail is the
// backend's human-readable message(s), joined.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return "remote: validation failed: " + e.Detail
}

// NetworkError reports a transport-level failure: connection refused, TLS
// failure, timeout. These are never attributable to the caller's input.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "remote: network failure: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError reports a non-2xx status outside the expected failure modes.
type ServerError struct {
	Status int
	Detail string
}

func (e *ServerError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("remote: server error (status %d)", e.Status)
	}
	return fmt.Sprintf("remote: server error (status %d): %s", e.Status, e.Detail)
}

// Token is the credential payload issued by the token and refresh endpoints.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Identity is the backend's view of an account, as returned by
// /api/auth/me. Read-only; fetched live and never cached.
type Identity struct {
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	IsActive         bool      `json:"is_active"`
	IsSuperuser      bool      `json:"is_superuser"`
	CreatedAt        time.Time `json:"created_at"`
	SessionsCreated  int       `json:"sessions_created"`
	ActionsSubmitted int       `json:"actions_submitted"`
}

// RegisterFlags are the optional account flags accepted by the register
// endpoint. Nil fields are omitted from the request so the backend applies
// its own defaults.
type RegisterFlags struct {
	IsActive    *bool
	IsSuperuser *bool
}

// Client issues auth round trips against one backend base URL. Safe for
// concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given base URL. When httpClient is nil
// a client with [DefaultTimeout] is used.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Authenticate exchanges form-encoded credentials for a bearer token.
func (c *Client) Authenticate(ctx context.Context, username, password string) (*Token, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	switch {
	case status >= 200 && status < 300:
		return decodeToken(status, body)
	case status == http.StatusUnauthorized, status == http.StatusBadRequest:
		return nil, ErrInvalidCredentials
	default:
		return nil, serverError(status, body)
	}
}

// Register creates a remote account. A duplicate account maps to
// [ErrConflict]; field-level problems map to [*ValidationError].
func (c *Client) Register(ctx context.Context, username, email, password string, flags RegisterFlags) (*Identity, error) {
	payload := struct {
		Username    string `json:"username"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		IsActive    *bool  `json:"is_active,omitempty"`
		IsSuperuser *bool  `json:"is_superuser,omitempty"`
	}{
		Username:    username,
		Email:       email,
		Password:    password,
		IsActive:    flags.IsActive,
		IsSuperuser: flags.IsSuperuser,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/register", strings.NewReader(string(data)))
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	switch {
	case status >= 200 && status < 300:
		var ident Identity
		if err := json.Unmarshal(body, &ident); err != nil {
			return nil, serverError(status, body)
		}
		return &ident, nil
	case status == http.StatusConflict:
		return nil, ErrConflict
	case status == http.StatusUnprocessableEntity:
		detail := decodeDetail(body)
		if isDuplicateDetail(detail) {
			return nil, ErrConflict
		}
		return nil, &ValidationError{Detail: detail}
	default:
		return nil, serverError(status, body)
	}
}

// Refresh presents the existing (possibly near-expired) token and returns
// the replacement issued by the backend.
func (c *Client) Refresh(ctx context.Context, token string) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/refresh", nil)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	switch {
	case status >= 200 && status < 300:
		return decodeToken(status, body)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return nil, ErrInvalidToken
	default:
		return nil, serverError(status, body)
	}
}

// FetchIdentity returns the account snapshot for the presented token.
func (c *Client) FetchIdentity(ctx context.Context, token string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/auth/me", nil)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	switch {
	case status >= 200 && status < 300:
		var ident Identity
		if err := json.Unmarshal(body, &ident); err != nil {
			return nil, serverError(status, body)
		}
		return &ident, nil
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return nil, ErrInvalidToken
	default:
		return nil, serverError(status, body)
	}
}

// CheckExists probes whether a username is already taken on the backend.
func (c *Client) CheckExists(ctx context.Context, username string) (bool, error) {
	endpoint := c.baseURL + "/api/users/check-exists/" + url.PathEscape(username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, &NetworkError{Err: err}
	}

	status, body, err := c.do(req)
	if err != nil {
		return false, err
	}
	if status < 200 || status >= 300 {
		return false, serverError(status, body)
	}

	var out struct {
		Exists bool `json:"exists"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return false, serverError(status, body)
	}
	return out.Exists, nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, &NetworkError{Err: err}
	}
	return resp.StatusCode, body, nil
}

func decodeToken(status int, body []byte) (*Token, error) {
	var tok Token
	if err := json.Unmarshal(body, &tok); err != nil || tok.AccessToken == "" {
		return nil, serverError(status, nil)
	}
	if tok.TokenType == "" {
		tok.TokenType = "bearer"
	}
	return &tok, nil
}

// decodeDetail extracts the backend's `detail` field, which may be a plain
// string or a list of {msg} objects.
func decodeDetail(body []byte) string {
	var asString struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &asString); err == nil && asString.Detail != "" {
		return asString.Detail
	}

	var asList struct {
		Detail []struct {
			Msg string `json:"msg"`
		} `json:"detail"`
	}
	if err := json.Unmarshal(body, &asList); err == nil && len(asList.Detail) > 0 {
		msgs := make([]string, 0, len(asList.Detail))
		for _, d := range asList.Detail {
			if d.Msg != "" {
				msgs = append(msgs, d.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func isDuplicateDetail(detail string) bool {
	lower := strings.ToLower(detail)
	return strings.Contains(lower, "already exists") ||
		strings.Contains(lower, "already registered") ||
		strings.Contains(lower, "duplicate")
}

func serverError(status int, body []byte) *ServerError {
	return &ServerError{Status: status, Detail: decodeDetail(body)}
}
