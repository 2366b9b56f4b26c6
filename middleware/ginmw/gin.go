// Package ginmw provides Gin HTTP middleware applying the route-guard
// contract per request.
//
// Server-side there is no pending restore: the session is derived from
// the request's bearer token synchronously, so the guard's waiting
// outcome never occurs here. Browser-style routes get redirects with a
// "from" query parameter; API-style routes get JSON statuses.
package ginmw

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	authguard "github.com/medassur/authguard-go"
	"github.com/medassur/authguard-go/audit"
	"github.com/medassur/authguard-go/guard"
	"github.com/medassur/authguard-go/metrics"
)

// Context keys for storing session data in gin.Context.
const (
	KeyUser  = "authguard_user"
	KeyRoles = "authguard_roles"
	KeyToken = "authguard_token"
)

// CookieName is the fallback token source when no Authorization header
// is present.
const CookieName = "auth_token"

// Option configures guard middleware behavior.
type Option func(*config)

type config struct {
	guardCfg      guard.Config
	excludedPaths map[string]bool
	metrics       *metrics.Metrics
	audit         *audit.Logger
	api           bool
}

// WithGuardConfig sets the redirect surfaces.
func WithGuardConfig(cfg guard.Config) Option {
	return func(c *config) { c.guardCfg = cfg }
}

// WithExcludedPaths sets paths that skip the guard (e.g. health checks).
func WithExcludedPaths(paths ...string) Option {
	return func(c *config) {
		for _, p := range paths {
			c.excludedPaths[p] = true
		}
	}
}

// WithMetrics records guard decisions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// WithAudit records guard denials as audit events.
func WithAudit(l *audit.Logger) Option {
	return func(c *config) { c.audit = l }
}

// ForAPI makes the middleware respond with 401/403 JSON instead of
// redirects, for XHR and API routes.
func ForAPI() Option {
	return func(c *config) { c.api = true }
}

// Guard returns Gin middleware that derives the session from the
// request token and applies the guard decision. required is the
// route's role restriction; empty means any authenticated visitor.
// On Render, the session is stored in the context (see GetUser).
func Guard(deriver authguard.SessionDeriver, required []authguard.Role, opts ...Option) gin.HandlerFunc {
	cfg := &config{excludedPaths: make(map[string]bool)}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.metrics == nil {
		cfg.metrics = metrics.New(false)
	}

	return func(c *gin.Context) {
		if cfg.excludedPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		state := stateFromRequest(c, deriver)
		decision := guard.Decide(cfg.guardCfg, state, required, c.Request.URL.RequestURI())
		cfg.metrics.GuardDecision(decision.Outcome.String())

		switch decision.Outcome {
		case guard.Render:
			c.Set(KeyUser, state.User)
			c.Set(KeyRoles, state.User.Roles)
			c.Set(KeyToken, state.Token)
			c.Next()
		case guard.RedirectLogin:
			if cfg.api {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
				return
			}
			target := decision.RedirectTo
			if decision.From != "" {
				target += "?from=" + url.QueryEscape(decision.From)
			}
			c.Redirect(http.StatusFound, target)
			c.Abort()
		case guard.RedirectDenied:
			auditDenied(cfg.audit, c, state)
			if cfg.api {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
				return
			}
			c.Redirect(http.StatusFound, decision.RedirectTo)
			c.Abort()
		default:
			// Wait cannot occur server-side; treat defensively as no session.
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		}
	}
}

// stateFromRequest builds a settled auth state from the request's
// bearer token: header first, cookie fallback.
func stateFromRequest(c *gin.Context, deriver authguard.SessionDeriver) authguard.State {
	tok := extractBearerToken(c.Request)
	if tok == "" {
		if cookie, err := c.Cookie(CookieName); err == nil {
			tok = cookie
		}
	}
	if tok == "" || deriver.IsExpired(tok) {
		return authguard.State{}
	}

	user := deriver.DeriveUser(tok)
	if user == nil {
		return authguard.State{}
	}
	return authguard.State{Authenticated: true, User: user, Token: tok}
}

func auditDenied(l *audit.Logger, c *gin.Context, state authguard.State) {
	if l == nil {
		return
	}
	username := ""
	if state.User != nil {
		username = state.User.Username
	}
	l.Log(audit.Event{
		Action:    "guard_denied",
		Result:    "denied",
		Username:  username,
		Details:   c.Request.URL.RequestURI(),
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		RequestID: audit.RequestID(c.Request.Context()),
	})
}

// GetUser returns the session stored by Guard, or nil.
func GetUser(c *gin.Context) *authguard.User {
	v, ok := c.Get(KeyUser)
	if !ok {
		return nil
	}
	u, _ := v.(*authguard.User)
	return u
}

// GetRoles returns the session's roles stored by Guard.
func GetRoles(c *gin.Context) []authguard.Role {
	v, ok := c.Get(KeyRoles)
	if !ok {
		return nil
	}
	r, _ := v.([]authguard.Role)
	return r
}

// GetToken returns the raw bearer token stored by Guard.
func GetToken(c *gin.Context) string {
	v, ok := c.Get(KeyToken)
	if !ok {
		return ""
	}
	t, _ := v.(string)
	return t
}

func extractBearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
