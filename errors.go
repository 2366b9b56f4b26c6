package authguard

import "errors"

// Sentinel errors returned by Backend implementations and surfaced by
// the Authenticator. Call sites can branch on them with errors.Is; the
// Authenticator maps them to the user-facing messages below.
var (
	// ErrBadCredentials maps from HTTP 401 on login.
	ErrBadCredentials = errors.New("authguard: invalid username or password")

	// ErrAccessRefused maps from HTTP 403.
	ErrAccessRefused = errors.New("authguard: access refused")

	// ErrUsernameTaken maps from HTTP 400 on register when the backend
	// names the username as the duplicate.
	ErrUsernameTaken = errors.New("authguard: username already in use")

	// ErrEmailTaken maps from HTTP 400 on register when the backend
	// names the email as the duplicate.
	ErrEmailTaken = errors.New("authguard: email already in use")

	// ErrAccountExists maps from HTTP 409 on register, or a 400 that
	// reports a duplicate without differentiating.
	ErrAccountExists = errors.New("authguard: an account with these details already exists")

	// ErrInvalidResponse signals a 2xx response whose body did not carry
	// a token, or a token from which no session could be derived.
	ErrInvalidResponse = errors.New("authguard: could not read user information from response")
)

// userMessage renders err as a human-readable inline message.
// Unknown errors collapse to a generic retry message so transport
// details never reach the user.
func userMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, ErrBadCredentials):
		return "Invalid username or password"
	case errors.Is(err, ErrAccessRefused):
		return "Access refused"
	case errors.Is(err, ErrUsernameTaken):
		return "This username is already in use"
	case errors.Is(err, ErrEmailTaken):
		return "This email is already in use"
	case errors.Is(err, ErrAccountExists):
		return "An account with these details already exists"
	case errors.Is(err, ErrInvalidResponse):
		return "Could not read user information, please try again"
	default:
		return fallback
	}
}
