package authguard

// Role is a named permission group used for coarse-grained access control.
// The set is closed and follows the backend's naming convention.
type Role string

const (
	RoleAdmin   Role = "ROLE_ADMIN"
	RoleUser    Role = "ROLE_USER"
	RoleAssure  Role = "ROLE_ASSURE"
	RoleMedecin Role = "ROLE_MEDECIN"
)

// Personne is the optional person profile linked to an account
// (the insured person or doctor behind the login).
type Personne struct {
	ID     int64  `json:"id"`
	Nom    string `json:"nom"`
	Prenom string `json:"prenom"`
	Email  string `json:"email"`
}

// Payload is the decoded claims segment of a bearer token.
// Unknown claims are ignored; absent optional claims keep their zero value.
type Payload struct {
	Sub      string    `json:"sub"`
	Username string    `json:"username"`
	Exp      int64     `json:"exp"`
	Roles    []Role    `json:"roles"`
	UserID   int64     `json:"userId"`
	Personne *Personne `json:"personne"`
}

// User is the in-memory session derived from a valid token.
type User struct {
	// ID is the numeric account id. 0 means the backend did not supply
	// one; the id is display-only and never sent back.
	ID       int64
	Username string
	Roles    []Role
	Personne *Personne
}

// State is a snapshot of the authentication state machine.
//
// Invariants: Authenticated is true if and only if User is non-nil.
// Loading is true only during the initial restore or an in-flight
// login/register call. Err is cleared on every new attempt.
type State struct {
	Authenticated bool
	User          *User
	Token         string
	Loading       bool
	Err           string
}

// Credentials is a login request.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is an account creation request.
// Roles may be omitted; the backend assigns ROLE_USER by default.
type Registration struct {
	Username string `json:"username" validate:"required,min=3,max=50,username_charset"`
	Password string `json:"password" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Nom      string `json:"nom" validate:"required"`
	Prenom   string `json:"prenom" validate:"required"`
	Roles    []Role `json:"roles,omitempty"`
}
