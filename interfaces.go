package authguard

import "context"

// TokenStore persists the bearer token across process restarts.
// It is a pure key-value boundary: no validation happens at this layer.
// Implementations: store/ (memory, file, redis).
type TokenStore interface {
	// Save persists the token, overwriting any prior value.
	Save(ctx context.Context, token string) error

	// Get returns the persisted token, or "" if absent.
	Get(ctx context.Context) (string, error)

	// Remove deletes the persisted token. Idempotent.
	Remove(ctx context.Context) error
}

// Backend is the external authentication collaborator. Both calls return
// a freshly issued bearer token on success. Failures carry one of the
// sentinel errors from errors.go when the cause is known.
// Implementations: secuapi/ (REST), fake/ (testing).
type Backend interface {
	Login(ctx context.Context, creds Credentials) (string, error)
	Register(ctx context.Context, reg Registration) (string, error)
}

// SessionDeriver turns a bearer token into a session.
//
// The default implementation (token/) decodes the payload without
// verifying the signature: the guard built on it is a UX convenience,
// and the backend remains the authoritative check. verify/ provides a
// signature-checking alternative for server-side deployments.
type SessionDeriver interface {
	// DeriveUser returns the session encoded in the token, or nil if the
	// token is malformed or cannot yield a usable session. Never panics.
	DeriveUser(token string) *User

	// IsExpired reports whether the token's expiry has passed. Tokens
	// that cannot be decoded or carry no expiry are expired (fail closed).
	IsExpired(token string) bool
}
