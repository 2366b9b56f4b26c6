package authguard_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authguard "github.com/medassur/authguard-go"
	"github.com/medassur/authguard-go/audit"
	"github.com/medassur/authguard-go/fake"
	"github.com/medassur/authguard-go/store"
	"github.com/medassur/authguard-go/token"
)

func newAuthenticator(t *testing.T, st authguard.TokenStore, backend authguard.Backend) *authguard.Authenticator {
	t.Helper()
	a, err := authguard.New(
		authguard.WithStore(st),
		authguard.WithBackend(backend),
		authguard.WithDeriver(token.NewDecoder()),
	)
	require.NoError(t, err)
	return a
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := authguard.New()
	require.Error(t, err)

	_, err = authguard.New(authguard.WithStore(store.NewMemory()))
	require.Error(t, err)

	_, err = authguard.New(
		authguard.WithStore(store.NewMemory()),
		authguard.WithBackend(fake.NewBackend()),
	)
	require.Error(t, err)
}

func TestInitialStateIsLoading(t *testing.T) {
	a := newAuthenticator(t, store.NewMemory(), fake.NewBackend())

	st := a.State()
	assert.True(t, st.Loading, "state must be loading before the restore settles")
	assert.False(t, st.Authenticated)
	assert.Nil(t, st.User)
}

func TestRestore_NoToken(t *testing.T) {
	a := newAuthenticator(t, store.NewMemory(), fake.NewBackend())

	st := a.Restore(context.Background())

	assert.False(t, st.Loading)
	assert.False(t, st.Authenticated)
	assert.Nil(t, st.User)
	assert.Empty(t, st.Err)
}

func TestRestore_ValidToken(t *testing.T) {
	// Scenario: the store holds {sub: alice, exp: +1h, roles: [ROLE_ADMIN]}.
	mem := store.NewMemory()
	tok := fake.MintToken("alice", 1, []authguard.Role{authguard.RoleAdmin}, nil, time.Now().Add(time.Hour))
	require.NoError(t, mem.Save(context.Background(), tok))

	a := newAuthenticator(t, mem, fake.NewBackend())
	st := a.Restore(context.Background())

	require.True(t, st.Authenticated)
	require.NotNil(t, st.User)
	assert.Equal(t, "alice", st.User.Username)
	assert.Contains(t, st.User.Roles, authguard.RoleAdmin)
	assert.Equal(t, tok, st.Token)
	assert.False(t, st.Loading)
}

func TestRestore_ExpiredTokenClearsStore(t *testing.T) {
	// Scenario: the store holds a token that expired an hour ago.
	mem := store.NewMemory()
	tok := fake.MintToken("alice", 1, []authguard.Role{authguard.RoleAdmin}, nil, time.Now().Add(-time.Hour))
	require.NoError(t, mem.Save(context.Background(), tok))

	a := newAuthenticator(t, mem, fake.NewBackend())
	st := a.Restore(context.Background())

	assert.False(t, st.Authenticated)
	assert.Empty(t, st.Err, "expired tokens are silent, no error banner")

	left, err := mem.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, left, "the store must no longer contain the token")
}

func TestRestore_GarbageTokenClearsStore(t *testing.T) {
	mem := store.NewMemory()
	require.NoError(t, mem.Save(context.Background(), "not-a-token"))

	a := newAuthenticator(t, mem, fake.NewBackend())
	st := a.Restore(context.Background())

	assert.False(t, st.Authenticated)
	assert.False(t, st.Loading)

	left, _ := mem.Get(context.Background())
	assert.Empty(t, left)
}

type faultyStore struct{ authguard.TokenStore }

func (f faultyStore) Get(ctx context.Context) (string, error) {
	return "", errors.New("storage unavailable")
}

func TestRestore_StoreFaultSettlesUnauthenticated(t *testing.T) {
	a := newAuthenticator(t, faultyStore{store.NewMemory()}, fake.NewBackend())

	st := a.Restore(context.Background())

	assert.False(t, st.Loading, "a fault must never leave the state loading")
	assert.False(t, st.Authenticated)
}

func TestLogin_Success(t *testing.T) {
	mem := store.NewMemory()
	backend := fake.NewBackend(
		fake.WithAccount("dr.house", "Doctor123!", 7, authguard.RoleMedecin, authguard.RoleUser),
	)
	a := newAuthenticator(t, mem, backend)
	a.Restore(context.Background())

	err := a.Login(context.Background(), authguard.Credentials{Username: "dr.house", Password: "Doctor123!"})
	require.NoError(t, err)

	st := a.State()
	require.True(t, st.Authenticated)
	assert.Equal(t, "dr.house", st.User.Username)
	assert.Equal(t, int64(7), st.User.ID)
	assert.Contains(t, st.User.Roles, authguard.RoleMedecin)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Err)

	saved, err := mem.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, st.Token, saved, "the issued token must be persisted")
}

func TestLogin_BadCredentials(t *testing.T) {
	backend := fake.NewBackend(fake.WithAccount("alice", "Secret1!", 1, authguard.RoleUser))
	a := newAuthenticator(t, store.NewMemory(), backend)
	a.Restore(context.Background())

	err := a.Login(context.Background(), authguard.Credentials{Username: "alice", Password: "wrong"})
	require.ErrorIs(t, err, authguard.ErrBadCredentials, "the failure must reach the caller")

	st := a.State()
	assert.False(t, st.Authenticated)
	assert.Nil(t, st.User)
	assert.False(t, st.Loading)
	assert.Equal(t, "Invalid username or password", st.Err)
}

func TestLogin_ClearsPreviousError(t *testing.T) {
	backend := fake.NewBackend(fake.WithAccount("alice", "Secret1!", 1, authguard.RoleUser))
	a := newAuthenticator(t, store.NewMemory(), backend)
	a.Restore(context.Background())

	_ = a.Login(context.Background(), authguard.Credentials{Username: "alice", Password: "wrong"})
	require.NotEmpty(t, a.State().Err)

	err := a.Login(context.Background(), authguard.Credentials{Username: "alice", Password: "Secret1!"})
	require.NoError(t, err)
	assert.Empty(t, a.State().Err)
	assert.True(t, a.State().Authenticated)
}

type underivableBackend struct{}

func (underivableBackend) Login(ctx context.Context, _ authguard.Credentials) (string, error) {
	return "three.bogus.parts", nil
}

func (underivableBackend) Register(ctx context.Context, _ authguard.Registration) (string, error) {
	return "three.bogus.parts", nil
}

func TestLogin_UnderivableTokenRollsBack(t *testing.T) {
	mem := store.NewMemory()
	a := newAuthenticator(t, mem, underivableBackend{})
	a.Restore(context.Background())

	err := a.Login(context.Background(), authguard.Credentials{Username: "alice", Password: "x"})
	require.ErrorIs(t, err, authguard.ErrInvalidResponse)

	st := a.State()
	assert.False(t, st.Authenticated)
	assert.NotEmpty(t, st.Err)

	left, _ := mem.Get(context.Background())
	assert.Empty(t, left, "an unusable token must not stay persisted")
}

func TestRegister_Success(t *testing.T) {
	backend := fake.NewBackend()
	a := newAuthenticator(t, store.NewMemory(), backend)
	a.Restore(context.Background())

	err := a.Register(context.Background(), authguard.Registration{
		Username: "new.user",
		Password: "Str0ng!pass",
		Email:    "new@example.com",
		Nom:      "Nouveau",
		Prenom:   "Utilisateur",
	})
	require.NoError(t, err)

	st := a.State()
	require.True(t, st.Authenticated)
	assert.Equal(t, "new.user", st.User.Username)
	assert.Contains(t, st.User.Roles, authguard.RoleUser, "backend assigns ROLE_USER by default")
	require.NotNil(t, st.User.Personne)
	assert.Equal(t, "Nouveau", st.User.Personne.Nom)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	backend := fake.NewBackend(fake.WithAccount("taken", "Secret1!", 1, authguard.RoleUser))
	a := newAuthenticator(t, store.NewMemory(), backend)
	a.Restore(context.Background())

	err := a.Register(context.Background(), authguard.Registration{
		Username: "taken",
		Password: "Str0ng!pass",
		Email:    "other@example.com",
		Nom:      "X",
		Prenom:   "Y",
	})
	require.ErrorIs(t, err, authguard.ErrUsernameTaken)
	assert.Equal(t, "This username is already in use", a.State().Err)
}

func TestRegister_InvalidInputDoesNotCallBackend(t *testing.T) {
	a := newAuthenticator(t, store.NewMemory(), fake.NewBackend())
	a.Restore(context.Background())

	err := a.Register(context.Background(), authguard.Registration{Username: "x", Password: "weak"})
	require.Error(t, err)
	assert.False(t, a.State().Authenticated)
	assert.NotEmpty(t, a.State().Err)
}

func TestLogout_Idempotent(t *testing.T) {
	mem := store.NewMemory()
	backend := fake.NewBackend(fake.WithAccount("alice", "Secret1!", 1, authguard.RoleUser))
	a := newAuthenticator(t, mem, backend)
	a.Restore(context.Background())

	require.NoError(t, a.Login(context.Background(), authguard.Credentials{Username: "alice", Password: "Secret1!"}))

	a.Logout(context.Background())
	st := a.State()
	assert.False(t, st.Authenticated)
	assert.Nil(t, st.User)
	assert.Empty(t, st.Token)
	assert.Empty(t, st.Err)

	left, _ := mem.Get(context.Background())
	assert.Empty(t, left)

	// Logging out again changes nothing and produces no error.
	a.Logout(context.Background())
	assert.Equal(t, st, a.State())
}

func TestAuditEvents(t *testing.T) {
	var mu sync.Mutex
	var events []audit.Event
	auditor := audit.New(16, audit.WithHandler(func(e audit.Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}))

	mem := store.NewMemory()
	tok := fake.MintToken("alice", 1, []authguard.Role{authguard.RoleAdmin}, nil, time.Now().Add(time.Hour))
	require.NoError(t, mem.Save(context.Background(), tok))

	backend := fake.NewBackend(fake.WithAccount("alice", "Secret1!", 1, authguard.RoleAdmin))
	a, err := authguard.New(
		authguard.WithStore(mem),
		authguard.WithBackend(backend),
		authguard.WithDeriver(token.NewDecoder()),
		authguard.WithAudit(auditor),
	)
	require.NoError(t, err)

	a.Restore(context.Background())
	_ = a.Login(context.Background(), authguard.Credentials{Username: "alice", Password: "wrong"})
	require.NoError(t, a.Login(context.Background(), authguard.Credentials{Username: "alice", Password: "Secret1!"}))
	a.Logout(context.Background())

	require.NoError(t, auditor.Close())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 4)

	assert.Equal(t, "restore", events[0].Action)
	assert.Equal(t, "success", events[0].Result)
	assert.Equal(t, "alice", events[0].Username)

	assert.Equal(t, "login", events[1].Action)
	assert.Equal(t, "failure", events[1].Result)
	assert.NotEmpty(t, events[1].Error)

	assert.Equal(t, "login", events[2].Action)
	assert.Equal(t, "success", events[2].Result)

	assert.Equal(t, "logout", events[3].Action)
	assert.Equal(t, "alice", events[3].Username)
}

func TestClearError(t *testing.T) {
	backend := fake.NewBackend()
	a := newAuthenticator(t, store.NewMemory(), backend)
	a.Restore(context.Background())

	_ = a.Login(context.Background(), authguard.Credentials{Username: "ghost", Password: "x"})
	require.NotEmpty(t, a.State().Err)

	a.ClearError()
	assert.Empty(t, a.State().Err)

	// Safe with no error present.
	a.ClearError()
	assert.Empty(t, a.State().Err)
}
