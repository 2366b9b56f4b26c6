// Package token decodes bearer tokens without verifying their
// signature and derives sessions from them.
//
// The token is treated as an opaque three-part dot-separated string;
// only the payload segment is read, and only as advisory data — the
// backend rejects tampered tokens with a 401. Decoding is total: any
// malformed input yields nil, never a panic.
package token

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	authguard "github.com/medassur/authguard-go"
)

// Decoder implements authguard.SessionDeriver by decoding the payload
// segment of a token. The zero value is not usable; call NewDecoder.
type Decoder struct {
	now func() time.Time
}

// compile-time check
var _ authguard.SessionDeriver = (*Decoder)(nil)

// Option configures the Decoder.
type Option func(*Decoder)

// WithNow sets the clock used for expiry checks. For tests.
func WithNow(now func() time.Time) Option {
	return func(d *Decoder) { d.now = now }
}

// NewDecoder creates a Decoder using the wall clock.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{now: time.Now}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Decode parses the payload segment of a token into a Payload.
// Returns nil if the token has no payload segment, the segment is not
// valid base64url, the decoded bytes are not valid UTF-8, or the text
// is not valid JSON of the expected shape.
func (d *Decoder) Decode(raw string) *authguard.Payload {
	parts := strings.Split(raw, ".")
	if len(parts) < 2 {
		return nil
	}

	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil
	}
	if !utf8.Valid(data) {
		return nil
	}

	var p authguard.Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil
	}
	return &p
}

// IsExpired reports whether the token's expiry instant has passed.
// A token that cannot be decoded or that carries no expiry is expired
// (fail closed). Expiry is compared in whole seconds; a token whose exp
// equals the current second is still valid.
func (d *Decoder) IsExpired(raw string) bool {
	p := d.Decode(raw)
	if p == nil || p.Exp == 0 {
		return true
	}
	return p.Exp < d.now().Unix()
}

// DeriveUser builds a session from the token's payload. The username
// comes from the sub claim, falling back to username; a payload with
// neither yields no session. Absent roles become an empty set, never
// nil. Returns nil on any failure.
func (d *Decoder) DeriveUser(raw string) *authguard.User {
	p := d.Decode(raw)
	if p == nil {
		return nil
	}

	username := p.Sub
	if username == "" {
		username = p.Username
	}
	if username == "" {
		return nil
	}

	roles := p.Roles
	if roles == nil {
		roles = []authguard.Role{}
	}

	return &authguard.User{
		ID:       p.UserID,
		Username: username,
		Roles:    roles,
		Personne: p.Personne,
	}
}
