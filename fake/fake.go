// Package fake provides an in-memory Backend that mints real HS256
// tokens, for tests and wiring demos. No network calls, no external
// dependencies.
//
// Use fake.NewBackend with a few accounts and pair it with
// store.NewMemory and token.NewDecoder to exercise the full auth flow
// in a unit test.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	authguard "github.com/medassur/authguard-go"
)

// Secret signs every token the fake backend issues. Exported so tests
// can verify fake tokens with the verify package.
var Secret = []byte("fake-backend-signing-secret")

type account struct {
	password string
	userID   int64
	email    string
	roles    []authguard.Role
	personne *authguard.Personne
}

// Backend is an in-memory authguard.Backend.
type Backend struct {
	mu       sync.Mutex
	accounts map[string]*account
	ttl      time.Duration
	nextID   int64
}

// compile-time check
var _ authguard.Backend = (*Backend)(nil)

// Option configures the fake backend.
type Option func(*Backend)

// WithAccount seeds an account the fake backend will authenticate.
func WithAccount(username, password string, userID int64, roles ...authguard.Role) Option {
	return func(b *Backend) {
		b.accounts[username] = &account{
			password: password,
			userID:   userID,
			roles:    roles,
		}
	}
}

// WithTokenTTL sets the lifetime of issued tokens. Default: 1 hour.
func WithTokenTTL(ttl time.Duration) Option {
	return func(b *Backend) { b.ttl = ttl }
}

// NewBackend creates a fake backend.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		accounts: make(map[string]*account),
		ttl:      time.Hour,
		nextID:   1000,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Login issues a token for a seeded account, or ErrBadCredentials.
func (b *Backend) Login(ctx context.Context, creds authguard.Credentials) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.accounts[creds.Username]
	if !ok || acc.password != creds.Password {
		return "", authguard.ErrBadCredentials
	}
	return b.mint(creds.Username, acc), nil
}

// Register creates an account and signs the new user in. Duplicate
// usernames and emails are rejected the way the real backend rejects
// them.
func (b *Backend) Register(ctx context.Context, reg authguard.Registration) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.accounts[reg.Username]; ok {
		return "", authguard.ErrUsernameTaken
	}
	for _, acc := range b.accounts {
		if acc.email != "" && acc.email == reg.Email {
			return "", authguard.ErrEmailTaken
		}
	}

	roles := reg.Roles
	if len(roles) == 0 {
		roles = []authguard.Role{authguard.RoleUser}
	}

	b.nextID++
	acc := &account{
		password: reg.Password,
		userID:   b.nextID,
		email:    reg.Email,
		roles:    roles,
		personne: &authguard.Personne{
			ID:     b.nextID,
			Nom:    reg.Nom,
			Prenom: reg.Prenom,
			Email:  reg.Email,
		},
	}
	b.accounts[reg.Username] = acc
	return b.mint(reg.Username, acc), nil
}

func (b *Backend) mint(username string, acc *account) string {
	return MintToken(username, acc.userID, acc.roles, acc.personne, time.Now().Add(b.ttl))
}

// MintToken signs an HS256 token carrying the guard's recognized
// claims. Tests use it to fabricate arbitrary payloads.
func MintToken(username string, userID int64, roles []authguard.Role, personne *authguard.Personne, exp time.Time) string {
	claims := jwt.MapClaims{
		"sub":   username,
		"exp":   exp.Unix(),
		"iat":   time.Now().Unix(),
		"jti":   uuid.NewString(),
		"roles": roles,
	}
	if userID != 0 {
		claims["userId"] = userID
	}
	if personne != nil {
		claims["personne"] = personne
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString(Secret)
	if err != nil {
		// HS256 signing of marshalable claims cannot fail at runtime.
		panic(err)
	}
	return s
}

// MintClaims signs an HS256 token from raw claims, for payloads outside
// the recognized shape.
func MintClaims(claims jwt.MapClaims) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString(Secret)
	if err != nil {
		panic(err)
	}
	return s
}
