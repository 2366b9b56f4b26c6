// Package secuapi is the REST adapter for the social-security backend's
// authentication endpoints. It implements authguard.Backend against
// POST /auth/login and POST /auth/register and maps the backend's HTTP
// statuses to the sentinel errors the state machine understands.
package secuapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	authguard "github.com/medassur/authguard-go"
)

// Client calls the backend authentication endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// compile-time check
var _ authguard.Backend = (*Client)(nil)

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// NewClient creates a backend client for the API at baseURL
// (e.g. "https://api.example.com/api").
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// tokenResponse is the success body of both auth endpoints.
type tokenResponse struct {
	Token string `json:"token"`
}

// errorResponse is the best-effort failure body.
type errorResponse struct {
	Message string `json:"message"`
}

// Login exchanges credentials for a bearer token.
// 401 → ErrBadCredentials, 403 → ErrAccessRefused; other failures keep
// the backend's message when one is present.
func (c *Client) Login(ctx context.Context, creds authguard.Credentials) (string, error) {
	tok, status, msg, err := c.post(ctx, "/auth/login", creds)
	if err != nil {
		return "", err
	}
	if tok != "" {
		return tok, nil
	}

	c.logger.Info("login rejected", "status", status)
	switch status {
	case http.StatusUnauthorized:
		return "", authguard.ErrBadCredentials
	case http.StatusForbidden:
		return "", authguard.ErrAccessRefused
	default:
		if msg != "" {
			return "", fmt.Errorf("secuapi: login failed: %s", msg)
		}
		return "", fmt.Errorf("secuapi: login failed with status %d", status)
	}
}

// Register creates an account and returns the freshly issued token.
// 409 → ErrAccountExists; 400 is inspected for the backend's duplicate
// messages to distinguish username-taken from email-taken.
func (c *Client) Register(ctx context.Context, reg authguard.Registration) (string, error) {
	tok, status, msg, err := c.post(ctx, "/auth/register", reg)
	if err != nil {
		return "", err
	}
	if tok != "" {
		return tok, nil
	}

	c.logger.Info("registration rejected", "status", status)
	switch status {
	case http.StatusConflict:
		return "", authguard.ErrAccountExists
	case http.StatusBadRequest:
		return "", classifyDuplicate(msg)
	case http.StatusForbidden:
		return "", authguard.ErrAccessRefused
	default:
		if msg != "" {
			return "", fmt.Errorf("secuapi: registration failed: %s", msg)
		}
		return "", fmt.Errorf("secuapi: registration failed with status %d", status)
	}
}

// classifyDuplicate turns the backend's 400 message into a specific
// duplicate error when it differentiates, generic otherwise. The
// backend writes French messages ("nom d'utilisateur", "email").
func classifyDuplicate(msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "utilisateur") && !strings.Contains(lower, "compte"):
		return authguard.ErrUsernameTaken
	case strings.Contains(lower, "username"):
		return authguard.ErrUsernameTaken
	case strings.Contains(lower, "email"):
		return authguard.ErrEmailTaken
	case strings.Contains(lower, "compte"), strings.Contains(lower, "existe"):
		return authguard.ErrAccountExists
	case msg != "":
		return fmt.Errorf("secuapi: registration rejected: %s", msg)
	default:
		return authguard.ErrAccountExists
	}
}

// post sends body as JSON and returns either a token (2xx with a token
// field) or the failure status and best-effort message. Transport-level
// failures are returned as errors.
func (c *Client) post(ctx context.Context, path string, body any) (token string, status int, msg string, err error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", 0, "", fmt.Errorf("secuapi: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return "", 0, "", fmt.Errorf("secuapi: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, "", fmt.Errorf("secuapi: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", 0, "", fmt.Errorf("secuapi: read response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var tr tokenResponse
		if err := json.Unmarshal(raw, &tr); err == nil && tr.Token != "" {
			return tr.Token, resp.StatusCode, "", nil
		}
		// Some deployments return the bare token string.
		if s := strings.TrimSpace(string(raw)); s != "" && !strings.HasPrefix(s, "{") {
			return strings.Trim(s, `"`), resp.StatusCode, "", nil
		}
		return "", resp.StatusCode, "", authguard.ErrInvalidResponse
	}

	var er errorResponse
	_ = json.Unmarshal(raw, &er)
	return "", resp.StatusCode, er.Message, nil
}
