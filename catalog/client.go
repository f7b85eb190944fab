// Package catalog is a feature client for the book catalog and borrowing
// endpoints. It holds its own copy of the session's bearer token, kept
// current through a session subscription, and reports authorization
// failures back to the session manager for reactive refresh.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	clienterrors "github.com/yomnaalset/elibrary-go-client/internal/errors"
	"github.com/yomnaalset/elibrary-go-client/session"
)

const (
	booksPath      = "/library/books/"
	borrowingsPath = "/borrowings/"
)

// Book is a catalog entry as returned by the backend.
type Book struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Author    string  `json:"author"`
	Category  string  `json:"category,omitempty"`
	Price     float64 `json:"price,omitempty"`
	Available bool    `json:"is_available"`
}

// Borrowing is a borrow record for the current user.
type Borrowing struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	BookTitle string    `json:"book_title,omitempty"`
	Status    string    `json:"status"`
	DueDate   time.Time `json:"due_date,omitempty"`
}

// Sessions is the slice of the session manager the catalog client needs:
// the current token, token-change notifications, and the reactive-refresh
// entry point for rejected tokens.
type Sessions interface {
	Token() string
	Subscribe(listener func(session.Snapshot)) (unsubscribe func())
	ReportUnauthorized(ctx context.Context) error
}

// Config is the subset of configuration the catalog client needs.
type Config interface {
	GetBaseURL() string
	GetRequestTimeout() time.Duration
}

// Client issues catalog requests with the session's bearer token.
type Client struct {
	baseURL     string
	timeout     time.Duration
	httpClient  *http.Client
	sessions    Sessions
	logger      zerolog.Logger
	unsubscribe func()

	mu          sync.RWMutex
	accessToken string
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client (primarily for testing).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient initializes a catalog client subscribed to the given sessions.
// Close must be called to release the subscription.
func NewClient(cfg Config, sessions Sessions, logger zerolog.Logger, options ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("[catalog.NewClient] config is required")
	}
	if sessions == nil {
		return nil, errors.New("[catalog.NewClient] sessions is required")
	}

	client := &Client{
		baseURL:    strings.TrimRight(cfg.GetBaseURL(), "/"),
		timeout:    cfg.GetRequestTimeout(),
		httpClient: &http.Client{},
		sessions:   sessions,
		logger:     logger.With().Str("component", "catalog").Logger(),
	}

	for _, opt := range options {
		opt(client)
	}

	client.setToken(sessions.Token())
	client.unsubscribe = sessions.Subscribe(func(snap session.Snapshot) {
		client.setToken(snap.AccessToken)
	})

	return client, nil
}

// Close releases the session subscription.
func (c *Client) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

func (c *Client) setToken(accessToken string) {
	c.mu.Lock()
	c.accessToken = accessToken
	c.mu.Unlock()
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// ListBooks returns the catalog.
func (c *Client) ListBooks(ctx context.Context) ([]Book, error) {
	var page struct {
		Results []Book `json:"results"`
	}
	if err := c.get(ctx, booksPath, &page); err != nil {
		return nil, errors.Wrap(err, "[catalog.ListBooks]")
	}
	return page.Results, nil
}

// ListBorrowings returns the current user's borrow records.
func (c *Client) ListBorrowings(ctx context.Context) ([]Borrowing, error) {
	var page struct {
		Results []Borrowing `json:"results"`
	}
	if err := c.get(ctx, borrowingsPath, &page); err != nil {
		return nil, errors.Wrap(err, "[catalog.ListBorrowings]")
	}
	return page.Results, nil
}

// get issues an authorized GET. A 401 is reported to the session manager;
// if the refresh recovers the session, the request is retried once with the
// new token.
func (c *Client) get(ctx context.Context, path string, out any) error {
	err := c.getOnce(ctx, path, out)
	if !clienterrors.Is(err, clienterrors.ErrNotAuthenticated) {
		return err
	}

	c.logger.Debug().Str("path", path).Msg("token rejected, requesting refresh")
	refreshErr := c.sessions.ReportUnauthorized(ctx)
	if refreshErr != nil && !clienterrors.Is(refreshErr, clienterrors.ErrRefreshInProgress) {
		return err
	}
	return c.getOnce(ctx, path, out)
}

func (c *Client) getOnce(ctx context.Context, path string, out any) error {
	accessToken := c.token()
	if accessToken == "" {
		return clienterrors.ErrNotAuthenticated
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return clienterrors.Wrapf(clienterrors.ErrNetwork, "%s", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return clienterrors.ErrNotAuthenticated
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
