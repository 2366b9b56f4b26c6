// Package guard decides whether a requested view may render or must
// redirect, based on the current auth state and the roles a route
// requires. The decision logic is pure so that any runtime — a UI shell
// polling the state machine, an HTTP middleware, a gRPC interceptor —
// can apply the same contract.
package guard

import authguard "github.com/medassur/authguard-go"

// Outcome is the result of a guard decision.
type Outcome int

const (
	// Wait renders a neutral waiting indicator: the initial session
	// restore has not settled yet, so no redirect may happen.
	Wait Outcome = iota

	// Render shows the requested content.
	Render

	// RedirectLogin sends the visitor to the login surface, carrying
	// the originally requested location for a post-login bounce-back.
	RedirectLogin

	// RedirectDenied sends the visitor to the access-denied surface.
	RedirectDenied
)

// String returns the outcome label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case Wait:
		return "wait"
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect_login"
	case RedirectDenied:
		return "redirect_denied"
	default:
		return "unknown"
	}
}

// Decision is a guard verdict. RedirectTo is set for the redirect
// outcomes; From carries the originally requested location on
// RedirectLogin so the login flow can return the visitor there.
type Decision struct {
	Outcome    Outcome
	RedirectTo string
	From       string
}

// Config holds the redirect surfaces.
type Config struct {
	// LoginPath is where unauthenticated visitors are sent. Default "/login".
	LoginPath string

	// DeniedPath is where authenticated but unauthorized visitors are
	// sent. Default "/access-denied".
	DeniedPath string
}

func (c Config) withDefaults() Config {
	if c.LoginPath == "" {
		c.LoginPath = "/login"
	}
	if c.DeniedPath == "" {
		c.DeniedPath = "/access-denied"
	}
	return c
}

// Decide applies the guard contract to the current auth state.
// required is the route's role restriction; empty means any
// authenticated visitor may enter. requested is the location being
// navigated to.
//
// The order of the checks is load-bearing: the waiting check MUST come
// before the authentication check, otherwise every page refresh
// bounces authenticated users to login before the restore completes.
func Decide(cfg Config, state authguard.State, required []authguard.Role, requested string) Decision {
	cfg = cfg.withDefaults()

	if state.Loading && state.User == nil {
		return Decision{Outcome: Wait}
	}

	if !state.Authenticated || state.User == nil {
		return Decision{
			Outcome:    RedirectLogin,
			RedirectTo: cfg.LoginPath,
			From:       requested,
		}
	}

	if len(required) > 0 && !authguard.HasAnyRole(state.User.Roles, required) {
		return Decision{Outcome: RedirectDenied, RedirectTo: cfg.DeniedPath}
	}

	return Decision{Outcome: Render}
}
