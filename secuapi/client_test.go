package secuapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authguard "github.com/medassur/authguard-go"
	"github.com/medassur/authguard-go/secuapi"
)

func authServer(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(status)
		if body != nil {
			_ = json.NewEncoder(w).Encode(body)
		}
	}))
}

func TestLogin_Success(t *testing.T) {
	srv := authServer(t, http.StatusOK, map[string]string{"token": "a.b.c"})
	defer srv.Close()

	c := secuapi.NewClient(srv.URL)
	tok, err := c.Login(context.Background(), authguard.Credentials{Username: "alice", Password: "pw"})

	require.NoError(t, err)
	assert.Equal(t, "a.b.c", tok)
}

func TestLogin_BareTokenBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("a.b.c"))
	}))
	defer srv.Close()

	c := secuapi.NewClient(srv.URL)
	tok, err := c.Login(context.Background(), authguard.Credentials{})

	require.NoError(t, err)
	assert.Equal(t, "a.b.c", tok)
}

func TestLogin_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, nil, authguard.ErrBadCredentials},
		{"forbidden", http.StatusForbidden, nil, authguard.ErrAccessRefused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := authServer(t, tt.status, tt.body)
			defer srv.Close()

			c := secuapi.NewClient(srv.URL)
			_, err := c.Login(context.Background(), authguard.Credentials{})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLogin_GenericFailureKeepsMessage(t *testing.T) {
	srv := authServer(t, http.StatusBadGateway, map[string]string{"message": "maintenance en cours"})
	defer srv.Close()

	c := secuapi.NewClient(srv.URL)
	_, err := c.Login(context.Background(), authguard.Credentials{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "maintenance en cours")
}

func TestLogin_MissingTokenInResponse(t *testing.T) {
	srv := authServer(t, http.StatusOK, map[string]string{"unexpected": "shape"})
	defer srv.Close()

	c := secuapi.NewClient(srv.URL)
	_, err := c.Login(context.Background(), authguard.Credentials{})
	assert.ErrorIs(t, err, authguard.ErrInvalidResponse)
}

func TestRegister_DuplicateMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		wantErr error
	}{
		{"conflict", http.StatusConflict, "", authguard.ErrAccountExists},
		{"username taken fr", http.StatusBadRequest, "Ce nom d'utilisateur est déjà utilisé", authguard.ErrUsernameTaken},
		{"username taken en", http.StatusBadRequest, "username already exists", authguard.ErrUsernameTaken},
		{"email taken", http.StatusBadRequest, "Cet email est déjà utilisé", authguard.ErrEmailTaken},
		{"account exists", http.StatusBadRequest, "Un compte existe déjà avec ces informations", authguard.ErrAccountExists},
		{"bare 400", http.StatusBadRequest, "", authguard.ErrAccountExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body any
			if tt.message != "" {
				body = map[string]string{"message": tt.message}
			}
			srv := authServer(t, tt.status, body)
			defer srv.Close()

			c := secuapi.NewClient(srv.URL)
			_, err := c.Register(context.Background(), authguard.Registration{Username: "x"})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegister_Success(t *testing.T) {
	srv := authServer(t, http.StatusCreated, map[string]string{"token": "x.y.z"})
	defer srv.Close()

	c := secuapi.NewClient(srv.URL)
	tok, err := c.Register(context.Background(), authguard.Registration{Username: "new"})

	require.NoError(t, err)
	assert.Equal(t, "x.y.z", tok)
}

func TestTransportFailure(t *testing.T) {
	c := secuapi.NewClient("http://127.0.0.1:1") // nothing listens here

	_, err := c.Login(context.Background(), authguard.Credentials{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, authguard.ErrBadCredentials)
}
