package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/mkovrig/authclient"
)

const (
	pathLogin          = "/auth/login"
	pathVerifyOTP      = "/auth/verify-otp"
	pathResendOTP      = "/auth/resend-otp"
	pathRefresh        = "/auth/refresh"
	pathLogout         = "/auth/logout"
	pathMe             = "/auth/me"
	pathForgotPassword = "/auth/forgot-password"
	pathVerifyResetOTP = "/auth/verify-reset-otp"
	pathResetPassword  = "/auth/reset-password"
	pathChangePassword = "/auth/change-password"
)

// Config carries the connection settings for the HTTP backend.
type Config struct {
	// BaseURL is the API root, without a trailing slash.
	BaseURL string

	// HTTPClient overrides the transport. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Client talks to the authentication API and satisfies
// [authclient.Backend].
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a Client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("httpapi: base URL required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: cfg.BaseURL, http: hc}, nil
}

// ---- wire shapes ----

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type wireUser struct {
	ID                 string `json:"id"`
	Identifier         string `json:"identifier"`
	Email              string `json:"email"`
	Role               string `json:"role"`
	Status             string `json:"status"`
	MustChangePassword bool   `json:"must_change_password"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type loginResponse struct {
	PreAuthToken      string `json:"pre_auth_token"`
	ExpiresIn         int    `json:"expires_in"`
	ResendAvailableIn int    `json:"resend_available_in"`
	OTPSource         string `json:"otp_source"`
}

type verifyOTPRequest struct {
	PreAuthToken string `json:"pre_auth_token"`
	Code         string `json:"code"`
}

type sessionResponse struct {
	AccessToken        string   `json:"access_token"`
	RefreshToken       string   `json:"refresh_token"`
	ExpiresIn          int      `json:"expires_in"`
	MustChangePassword bool     `json:"must_change_password"`
	User               wireUser `json:"user"`
}

type resendOTPRequest struct {
	PreAuthToken string `json:"pre_auth_token"`
}

type windowResponse struct {
	ExpiresIn         int `json:"expires_in"`
	ResendAvailableIn int `json:"resend_available_in"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type verifyResetOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type resetGrantResponse struct {
	ResetToken string `json:"reset_token"`
	ExpiresIn  int    `json:"expires_in"`
}

type resetPasswordRequest struct {
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ---- Backend implementation ----

// Login exchanges credentials for a pre-auth challenge.
func (c *Client) Login(ctx context.Context, identifier, secret string) (*authclient.LoginChallenge, error) {
	var out loginResponse
	if err := c.do(ctx, http.MethodPost, pathLogin, "", loginRequest{Identifier: identifier, Password: secret}, &out); err != nil {
		return nil, err
	}
	if out.PreAuthToken == "" {
		return nil, fmt.Errorf("%w: empty pre-auth token in response", authclient.ErrServerError)
	}
	return &authclient.LoginChallenge{
		PreAuthToken:      authclient.PreAuthToken(out.PreAuthToken),
		ExpiresIn:         out.ExpiresIn,
		ResendAvailableIn: out.ResendAvailableIn,
		Source:            otpSourceFromWire(out.OTPSource),
	}, nil
}

// VerifyOTP trades the pre-auth token plus code for a session grant.
func (c *Client) VerifyOTP(ctx context.Context, token authclient.PreAuthToken, code string) (*authclient.SessionGrant, error) {
	var out sessionResponse
	if err := c.do(ctx, http.MethodPost, pathVerifyOTP, "", verifyOTPRequest{PreAuthToken: string(token), Code: code}, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" || out.RefreshToken == "" {
		return nil, fmt.Errorf("%w: incomplete session grant in response", authclient.ErrServerError)
	}
	return &authclient.SessionGrant{
		AccessToken:        out.AccessToken,
		RefreshToken:       out.RefreshToken,
		ExpiresIn:          out.ExpiresIn,
		MustChangePassword: out.MustChangePassword,
		User:               userFromWire(out.User),
	}, nil
}

// ResendOTP asks the server to issue a fresh code for the held challenge.
func (c *Client) ResendOTP(ctx context.Context, token authclient.PreAuthToken) (*authclient.ChallengeWindow, error) {
	var out windowResponse
	if err := c.do(ctx, http.MethodPost, pathResendOTP, "", resendOTPRequest{PreAuthToken: string(token)}, &out); err != nil {
		return nil, err
	}
	return &authclient.ChallengeWindow{
		ExpiresIn:         out.ExpiresIn,
		ResendAvailableIn: out.ResendAvailableIn,
	}, nil
}

// Refresh exchanges the refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*authclient.TokenGrant, error) {
	var out refreshResponse
	if err := c.do(ctx, http.MethodPost, pathRefresh, "", refreshRequest{RefreshToken: refreshToken}, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token in response", authclient.ErrServerError)
	}
	return &authclient.TokenGrant{AccessToken: out.AccessToken, ExpiresIn: out.ExpiresIn}, nil
}

// Logout revokes the refresh token server-side.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.do(ctx, http.MethodPost, pathLogout, "", logoutRequest{RefreshToken: refreshToken}, nil)
}

// CurrentUser validates the access token and returns the identity behind it.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (*authclient.User, error) {
	var out wireUser
	if err := c.do(ctx, http.MethodGet, pathMe, accessToken, nil, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: empty user id in response", authclient.ErrServerError)
	}
	user := userFromWire(out)
	return &user, nil
}

// ForgotPassword requests a reset code. The server answers success-shaped
// regardless of whether the address exists.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, pathForgotPassword, "", forgotPasswordRequest{Email: email}, nil)
}

// VerifyResetOTP trades email plus code for a single-use reset token.
func (c *Client) VerifyResetOTP(ctx context.Context, email, code string) (*authclient.ResetGrant, error) {
	var out resetGrantResponse
	if err := c.do(ctx, http.MethodPost, pathVerifyResetOTP, "", verifyResetOTPRequest{Email: email, Code: code}, &out); err != nil {
		return nil, err
	}
	if out.ResetToken == "" {
		return nil, fmt.Errorf("%w: empty reset token in response", authclient.ErrServerError)
	}
	return &authclient.ResetGrant{
		ResetToken: authclient.ResetToken(out.ResetToken),
		ExpiresIn:  out.ExpiresIn,
	}, nil
}

// ResetPassword consumes the reset token and sets the new password.
func (c *Client) ResetPassword(ctx context.Context, token authclient.ResetToken, newPassword string) error {
	return c.do(ctx, http.MethodPost, pathResetPassword, "", resetPasswordRequest{ResetToken: string(token), NewPassword: newPassword}, nil)
}

// ChangePassword rotates the password of an authenticated session.
func (c *Client) ChangePassword(ctx context.Context, accessToken, currentPassword, newPassword string) error {
	return c.do(ctx, http.MethodPost, pathChangePassword, accessToken, changePasswordRequest{CurrentPassword: currentPassword, NewPassword: newPassword}, nil)
}

// ---- transport ----

// do runs one request/response round trip. accessToken, when non-empty, is
// sent as a bearer credential. out, when non-nil, receives the decoded
// success body.
func (c *Client) do(ctx context.Context, method, path, accessToken string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpapi: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("httpapi: build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	req.Header.Set("X-Request-ID", requestID(ctx))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", authclient.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", authclient.ErrNetworkFailure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapError(resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: decode response: %v", authclient.ErrServerError, err)
		}
	}
	return nil
}

// requestID takes the caller-scoped request ID when present and mints a
// fresh one otherwise, so every call is traceable server-side.
func requestID(ctx context.Context) string {
	if id := authclient.RequestIDFromContext(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

// mapError folds the server's error code, falling back to the HTTP status,
// onto the engine's sentinels.
func mapError(status int, body []byte) error {
	var env errorEnvelope
	_ = json.Unmarshal(body, &env)

	switch env.Error.Code {
	case "invalid_credentials":
		return authclient.ErrInvalidCredentials
	case "account_blocked":
		return authclient.ErrAccountBlocked
	case "account_deactivated":
		return authclient.ErrAccountDeactivated
	case "invalid_challenge", "challenge_expired", "invalid_otp":
		return authclient.ErrInvalidChallenge
	case "refresh_invalid":
		return authclient.ErrRefreshInvalid
	case "not_authenticated":
		return authclient.ErrNotAuthenticated
	}

	// A bare 403 carries no wire code; blocked and deactivated accounts
	// always arrive with one, so this is an authorization refusal and
	// falls through to the generic server error below.
	switch {
	case status == http.StatusUnauthorized:
		return authclient.ErrNotAuthenticated
	case status >= 500:
		return fmt.Errorf("%w: status %d", authclient.ErrServerError, status)
	default:
		return fmt.Errorf("%w: status %d: %s", authclient.ErrServerError, status, env.Error.Message)
	}
}

func userFromWire(w wireUser) authclient.User {
	return authclient.User{
		ID:                 w.ID,
		Identifier:         w.Identifier,
		Email:              w.Email,
		Role:               authclient.Role(w.Role),
		Status:             statusFromWire(w.Status),
		MustChangePassword: w.MustChangePassword,
	}
}

func statusFromWire(s string) authclient.AccountStatus {
	switch s {
	case "blocked":
		return authclient.AccountBlocked
	case "deactivated":
		return authclient.AccountDeactivated
	default:
		return authclient.AccountActive
	}
}

func otpSourceFromWire(s string) authclient.OTPSource {
	if s == "welcome_email" {
		return authclient.OTPSourceWelcomeEmail
	}
	return authclient.OTPSourceEmail
}

// compile-time interface check
var _ authclient.Backend = (*Client)(nil)
