// Package verify provides a signature-checking SessionDeriver.
//
// Use it instead of token.Decoder when the guard runs server-side next
// to the token issuer and shares its HS256 secret: sessions are then
// only derived from tokens the issuer actually signed. The guard
// contract is unchanged — derivation is still total and fail-closed.
package verify

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	authguard "github.com/medassur/authguard-go"
	"github.com/medassur/authguard-go/token"
)

// Deriver implements authguard.SessionDeriver with HS256 signature
// verification against a shared secret.
type Deriver struct {
	secret  []byte
	decoder *token.Decoder
	now     func() time.Time
}

// compile-time check
var _ authguard.SessionDeriver = (*Deriver)(nil)

// Option configures the Deriver.
type Option func(*Deriver)

// WithNow sets the clock used for expiry checks. For tests.
func WithNow(now func() time.Time) Option {
	return func(d *Deriver) { d.now = now }
}

// NewDeriver creates a Deriver that accepts only tokens signed with
// secret.
func NewDeriver(secret []byte, opts ...Option) *Deriver {
	d := &Deriver{secret: secret, now: time.Now}
	for _, o := range opts {
		o(d)
	}
	d.decoder = token.NewDecoder(token.WithNow(func() time.Time { return d.now() }))
	return d
}

// check parses and verifies the token signature. Expiry is checked
// separately so IsExpired and DeriveUser keep their distinct contracts.
func (d *Deriver) check(raw string) bool {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithoutClaimsValidation(),
	)
	tok, err := parser.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return d.secret, nil
	})
	return err == nil && tok.Valid
}

// DeriveUser returns the session encoded in the token, or nil if the
// signature does not verify or the payload yields no session.
func (d *Deriver) DeriveUser(raw string) *authguard.User {
	if !d.check(raw) {
		return nil
	}
	return d.decoder.DeriveUser(raw)
}

// IsExpired reports whether the token is expired. Tokens that fail
// signature verification are expired (fail closed).
func (d *Deriver) IsExpired(raw string) bool {
	if !d.check(raw) {
		return true
	}
	return d.decoder.IsExpired(raw)
}
