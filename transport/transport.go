// Package transport maps auth operations onto the E-Library backend's REST
// endpoints. It is stateless: every operation folds its outcome, including
// network failures and timeouts, into a Result value. No transport error
// crosses this boundary as a Go error.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yomnaalset/elibrary-go-client/users"
)

const (
	networkErrorMessage = "network error, please check your connection and try again"

	loginPath          = "/auth/login/"
	registerPath       = "/auth/register/"
	refreshPath        = "/auth/token/refresh/"
	profilePath        = "/auth/profile/"
	logoutPath         = "/auth/logout/"
	forgotPasswordPath = "/auth/forgot-password/"
)

// Result is the uniform outcome shape of every transport operation.
// Unauthorized distinguishes a rejected credential from a transient failure
// so callers can route into reactive refresh instead of retrying blindly.
type Result struct {
	Success      bool
	Message      string
	Unauthorized bool
	AccessToken  string
	RefreshToken string
	User         *users.Profile
}

// Registration carries the fields posted to the register endpoint. Password
// confirmation is validated by the caller before the request is made; the
// server performs the authoritative validation.
type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone_number,omitempty"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	Country   string `json:"country,omitempty"`
	Locale    string `json:"preferred_language,omitempty"`
}

// Config is the subset of configuration the transport needs.
type Config interface {
	GetBaseURL() string
	GetRequestTimeout() time.Duration
	GetProfileTimeout() time.Duration
}

// Client issues auth requests against the backend.
type Client struct {
	baseURL        string
	requestTimeout time.Duration
	profileTimeout time.Duration
	httpClient     *http.Client
	logger         zerolog.Logger
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client (primarily for testing).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient initializes a transport client for the configured backend.
func NewClient(cfg Config, logger zerolog.Logger, options ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("[NewClient] config is required")
	}
	if strings.TrimSpace(cfg.GetBaseURL()) == "" {
		return nil, fmt.Errorf("[NewClient] base URL is required")
	}

	client := &Client{
		baseURL:        strings.TrimRight(cfg.GetBaseURL(), "/"),
		requestTimeout: cfg.GetRequestTimeout(),
		profileTimeout: cfg.GetProfileTimeout(),
		httpClient:     &http.Client{},
		logger:         logger.With().Str("component", "transport").Logger(),
	}

	for _, opt := range options {
		opt(client)
	}

	return client, nil
}

// serverResponse is the superset of fields the backend returns across the
// auth endpoints. Unused fields unmarshal to zero values.
type serverResponse struct {
	Access  string         `json:"access"`
	Refresh string         `json:"refresh"`
	User    *users.Profile `json:"user"`
	Message string         `json:"message"`
	Detail  string         `json:"detail"`
}

// Login exchanges credentials for a token pair and the user profile.
func (c *Client) Login(ctx context.Context, email, password string) Result {
	body := map[string]string{"email": email, "password": password}
	return c.post(ctx, loginPath, "", body, c.requestTimeout)
}

// Register creates a new account. On success the backend logs the user in
// and returns a token pair alongside the created profile.
func (c *Client) Register(ctx context.Context, reg Registration) Result {
	return c.post(ctx, registerPath, "", reg, c.requestTimeout)
}

// Refresh exchanges a refresh token for a new access token. The backend may
// also rotate the refresh token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) Result {
	body := map[string]string{"refresh": refreshToken}
	return c.post(ctx, refreshPath, "", body, c.requestTimeout)
}

// GetProfile fetches the current user's profile. The timeout is short since
// profile fetches are advisory and must never hold up the session.
func (c *Client) GetProfile(ctx context.Context, accessToken string) Result {
	ctx, cancel := context.WithTimeout(ctx, c.profileTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, profilePath, accessToken, nil)
	if err != nil {
		return c.requestBuildFailure(err)
	}
	return c.do(req)
}

// UpdateProfile persists profile changes server-side. The email field is
// immutable and is never sent.
func (c *Client) UpdateProfile(ctx context.Context, accessToken string, profile users.Profile) Result {
	update := map[string]string{
		"first_name":         profile.FirstName,
		"last_name":          profile.LastName,
		"phone_number":       profile.Phone,
		"address":            profile.Address,
		"city":               profile.City,
		"country":            profile.Country,
		"preferred_language": profile.Locale,
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodPut, profilePath, accessToken, update)
	if err != nil {
		return c.requestBuildFailure(err)
	}
	return c.do(req)
}

// Logout asks the backend to invalidate the refresh token. Best effort: the
// caller clears local state regardless of the outcome.
func (c *Client) Logout(ctx context.Context, refreshToken string) Result {
	body := map[string]string{"refresh": refreshToken}
	return c.post(ctx, logoutPath, "", body, c.requestTimeout)
}

// ForgotPassword requests a password-reset email. No token interaction.
func (c *Client) ForgotPassword(ctx context.Context, email string) Result {
	body := map[string]string{"email": email}
	return c.post(ctx, forgotPasswordPath, "", body, c.requestTimeout)
}

func (c *Client) post(ctx context.Context, path, accessToken string, body any, timeout time.Duration) Result {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodPost, path, accessToken, body)
	if err != nil {
		return c.requestBuildFailure(err)
	}
	return c.do(req)
}

func (c *Client) newRequest(ctx context.Context, method, path, accessToken string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return req, nil
}

func (c *Client) requestBuildFailure(err error) Result {
	c.logger.Error().Err(err).Msg("failed to build request")
	return Result{Success: false, Message: networkErrorMessage}
}

func (c *Client) do(req *http.Request) Result {
	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("path", req.URL.Path).
			Dur("elapsed", time.Since(started)).
			Msg("request failed")
		return Result{Success: false, Message: networkErrorMessage}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("path", req.URL.Path).
			Int("status", resp.StatusCode).
			Msg("unreadable response body")
		return Result{Success: false, Message: networkErrorMessage}
	}

	var parsed serverResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &parsed); err != nil {
			c.logger.Warn().
				Err(err).
				Str("path", req.URL.Path).
				Int("status", resp.StatusCode).
				Msg("unparseable response body")
		}
	}

	message := parsed.Message
	if message == "" {
		message = parsed.Detail
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		c.logger.Debug().
			Str("path", req.URL.Path).
			Int("status", resp.StatusCode).
			Msg("request rejected")
		return Result{
			Success:      false,
			Message:      message,
			Unauthorized: resp.StatusCode == http.StatusUnauthorized,
		}
	}

	// The profile endpoint returns the profile as the top-level object
	// rather than nested under "user".
	user := parsed.User
	if user == nil && strings.HasSuffix(req.URL.Path, profilePath) && len(body) > 0 {
		var inline users.Profile
		if err := json.Unmarshal(body, &inline); err == nil && inline.ID != "" {
			user = &inline
		}
	}

	return Result{
		Success:      true,
		Message:      message,
		AccessToken:  parsed.Access,
		RefreshToken: parsed.Refresh,
		User:         user,
	}
}
