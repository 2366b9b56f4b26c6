// Package authguard implements the client-side authentication and
// authorization guard of the social-security management front-end:
// token persistence, unverified payload decoding, session derivation,
// the auth state machine, and role-based route-guard decisions.
//
// The guard never verifies token signatures; it treats the payload as
// advisory until the backend rejects it. All real authorization
// enforcement happens server-side — the guard is a UX convenience, not
// a security boundary.
//
// Collaborators are injected, making the package independent of any
// specific storage or transport:
//
//	auth, err := authguard.New(
//	    authguard.WithStore(store.NewFile(path)),
//	    authguard.WithBackend(secuapi.NewClient(baseURL)),
//	    authguard.WithDeriver(token.NewDecoder()),
//	)
package authguard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/medassur/authguard-go/audit"
	"github.com/medassur/authguard-go/metrics"
)

// Authenticator is the authentication state machine. It holds the
// single shared auth state and exposes the restore, login, register and
// logout transitions. All methods are safe for concurrent use; login
// and register are not meant to overlap — callers should disable the
// trigger while State().Loading is true.
type Authenticator struct {
	store   TokenStore
	backend Backend
	deriver SessionDeriver
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   *audit.Logger

	mu    sync.Mutex
	state State

	restoreGroup singleflight.Group
}

// Option configures the Authenticator.
type Option func(*Authenticator)

// WithStore sets the token persistence boundary. Required.
func WithStore(s TokenStore) Option {
	return func(a *Authenticator) { a.store = s }
}

// WithBackend sets the external authentication collaborator. Required.
func WithBackend(b Backend) Option {
	return func(a *Authenticator) { a.backend = b }
}

// WithDeriver sets the session derivation implementation. Required.
func WithDeriver(d SessionDeriver) Option {
	return func(a *Authenticator) { a.deriver = d }
}

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Authenticator) { a.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Authenticator) { a.metrics = m }
}

// WithAudit sets the audit event logger.
func WithAudit(l *audit.Logger) Option {
	return func(a *Authenticator) { a.audit = l }
}

// New creates an Authenticator. The initial state is loading: callers
// should run Restore before consulting State, and the route guard
// renders a waiting indicator until the restore settles.
func New(opts ...Option) (*Authenticator, error) {
	a := &Authenticator{
		state: State{Loading: true},
	}
	for _, o := range opts {
		o(a)
	}

	if a.store == nil {
		return nil, fmt.Errorf("authguard: a TokenStore is required")
	}
	if a.backend == nil {
		return nil, fmt.Errorf("authguard: a Backend is required")
	}
	if a.deriver == nil {
		return nil, fmt.Errorf("authguard: a SessionDeriver is required")
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.metrics == nil {
		a.metrics = metrics.New(false)
	}
	return a, nil
}

// State returns a snapshot of the current auth state.
func (a *Authenticator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Restore attempts to rebuild the session from the persisted token.
// It always settles the state machine: whatever happens, Loading ends
// false. Concurrent callers share a single restore. The returned state
// is the settled state.
func (a *Authenticator) Restore(ctx context.Context) State {
	v, _, _ := a.restoreGroup.Do("restore", func() (any, error) {
		return a.restore(ctx), nil
	})
	return v.(State)
}

func (a *Authenticator) restore(ctx context.Context) State {
	tok, err := a.store.Get(ctx)
	if err != nil {
		// Unreadable storage counts as no session: clear and settle.
		a.logger.Warn("token store read failed during restore", "error", err)
		a.removeToken(ctx)
		a.metrics.Restore("invalid")
		return a.settle(State{})
	}

	if tok == "" {
		a.metrics.Restore("unauthenticated")
		return a.settle(State{})
	}

	if a.deriver.IsExpired(tok) {
		a.logger.Info("persisted token expired, logging out")
		a.removeToken(ctx)
		a.metrics.Restore("expired")
		a.auditEvent(ctx, audit.Event{Action: "restore", Result: "failure", Details: "token expired"})
		return a.settle(State{})
	}

	user := a.deriver.DeriveUser(tok)
	if user == nil {
		a.logger.Warn("persisted token did not yield a session, logging out")
		a.removeToken(ctx)
		a.metrics.Restore("invalid")
		a.metrics.TokenDecodeFailure()
		a.auditEvent(ctx, audit.Event{Action: "restore", Result: "failure", Details: "token underivable"})
		return a.settle(State{})
	}

	a.logger.Info("session restored", "username", user.Username, "roles", user.Roles)
	a.metrics.Restore("authenticated")
	a.auditEvent(ctx, audit.Event{Action: "restore", Result: "success", Username: user.Username})
	return a.settle(State{Authenticated: true, User: user, Token: tok})
}

// Login authenticates against the backend, persists the issued token
// and derives the session. On failure the state machine settles in the
// error state and the error is also returned, so the calling surface
// can react (keep the form editable, stop a spinner) independently.
func (a *Authenticator) Login(ctx context.Context, creds Credentials) error {
	a.begin()
	a.metrics.AuthAttempt("login")

	tok, err := a.backend.Login(ctx, creds)
	if err != nil {
		a.fail(err, "Connection failed, please try again")
		a.metrics.AuthFailure("login", failureReason(err))
		a.auditEvent(ctx, audit.Event{Action: "login", Result: "failure", Username: creds.Username, Error: err.Error()})
		return err
	}

	return a.adopt(ctx, "login", creds.Username, tok)
}

// Register creates an account through the backend and signs the new
// user in with the issued token. Input is validated locally first; the
// backend remains authoritative.
func (a *Authenticator) Register(ctx context.Context, reg Registration) error {
	if err := reg.Validate(); err != nil {
		a.mu.Lock()
		a.state.Err = err.Error()
		a.mu.Unlock()
		return err
	}

	a.begin()
	a.metrics.AuthAttempt("register")

	tok, err := a.backend.Register(ctx, reg)
	if err != nil {
		a.fail(err, "Registration failed, please try again")
		a.metrics.AuthFailure("register", failureReason(err))
		a.auditEvent(ctx, audit.Event{Action: "register", Result: "failure", Username: reg.Username, Error: err.Error()})
		return err
	}

	return a.adopt(ctx, "register", reg.Username, tok)
}

// adopt persists a freshly issued token and settles authenticated, or
// rolls everything back if the token yields no session.
func (a *Authenticator) adopt(ctx context.Context, method, username, tok string) error {
	if err := a.store.Save(ctx, tok); err != nil {
		// The in-memory session is still valid; the next restart will
		// simply ask for a fresh login.
		a.logger.Warn("token store write failed", "error", err)
	}

	user := a.deriver.DeriveUser(tok)
	if user == nil {
		a.removeToken(ctx)
		a.fail(ErrInvalidResponse, "")
		a.metrics.AuthFailure(method, "underivable_token")
		a.metrics.TokenDecodeFailure()
		return ErrInvalidResponse
	}

	a.mu.Lock()
	a.state = State{Authenticated: true, User: user, Token: tok}
	a.mu.Unlock()

	a.logger.Info("authenticated", "method", method, "username", user.Username, "roles", user.Roles)
	a.auditEvent(ctx, audit.Event{Action: method, Result: "success", Username: username})
	return nil
}

// Logout clears the persisted token and settles unauthenticated.
// It never fails and is idempotent.
func (a *Authenticator) Logout(ctx context.Context) {
	a.removeToken(ctx)

	a.mu.Lock()
	wasAuthenticated := a.state.Authenticated
	username := ""
	if a.state.User != nil {
		username = a.state.User.Username
	}
	a.state = State{}
	a.mu.Unlock()

	if wasAuthenticated {
		a.logger.Info("logged out", "username", username)
		a.auditEvent(ctx, audit.Event{Action: "logout", Result: "success", Username: username})
	}
}

// ClearError resets the error message without touching any other field.
// Safe to call at any time, including when there is no error.
func (a *Authenticator) ClearError() {
	a.mu.Lock()
	a.state.Err = ""
	a.mu.Unlock()
}

// --- internal transitions ---

// begin marks an attempt in flight: loading on, error cleared.
func (a *Authenticator) begin() {
	a.mu.Lock()
	a.state.Loading = true
	a.state.Err = ""
	a.mu.Unlock()
}

// fail settles the error state. msg overrides the mapped message when
// the error has no specific mapping; empty msg keeps the mapped one.
func (a *Authenticator) fail(err error, fallback string) {
	if fallback == "" {
		fallback = "Something went wrong, please try again"
	}
	a.mu.Lock()
	a.state = State{Err: userMessage(err, fallback)}
	a.mu.Unlock()
}

// settle replaces the state wholesale with Loading off.
func (a *Authenticator) settle(s State) State {
	s.Loading = false
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
	return s
}

func (a *Authenticator) removeToken(ctx context.Context) {
	if err := a.store.Remove(ctx); err != nil {
		a.logger.Warn("token store remove failed", "error", err)
	}
}

func (a *Authenticator) auditEvent(ctx context.Context, e audit.Event) {
	if a.audit == nil {
		return
	}
	if e.RequestID == "" {
		e.RequestID = audit.RequestID(ctx)
	}
	a.audit.Log(e)
}

// failureReason labels a backend error for metrics.
func failureReason(err error) string {
	switch {
	case err == nil:
		return "none"
	default:
		return userMessageReason(err)
	}
}

func userMessageReason(err error) string {
	switch {
	case errors.Is(err, ErrBadCredentials):
		return "bad_credentials"
	case errors.Is(err, ErrAccessRefused):
		return "access_refused"
	case errors.Is(err, ErrUsernameTaken):
		return "username_taken"
	case errors.Is(err, ErrEmailTaken):
		return "email_taken"
	case errors.Is(err, ErrAccountExists):
		return "account_exists"
	case errors.Is(err, ErrInvalidResponse):
		return "invalid_response"
	default:
		return "unknown"
	}
}
