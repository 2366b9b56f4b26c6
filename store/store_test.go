package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	authguard "github.com/medassur/authguard-go"
	"github.com/medassur/authguard-go/store"
)

func exerciseStore(t *testing.T, s authguard.TokenStore) {
	t.Helper()
	ctx := context.Background()

	// Empty store reads as absent, not as an error.
	tok, err := s.Get(ctx)
	if err != nil {
		t.Fatalf("Get on empty store: %v", err)
	}
	if tok != "" {
		t.Fatalf("expected empty token, got %q", tok)
	}

	// Remove on an empty store is fine.
	if err := s.Remove(ctx); err != nil {
		t.Fatalf("Remove on empty store: %v", err)
	}

	if err := s.Save(ctx, "first.token.value"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	tok, err = s.Get(ctx)
	if err != nil || tok != "first.token.value" {
		t.Fatalf("Get after Save = %q, %v", tok, err)
	}

	// Save overwrites.
	if err := s.Save(ctx, "second.token.value"); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	tok, _ = s.Get(ctx)
	if tok != "second.token.value" {
		t.Fatalf("expected overwritten token, got %q", tok)
	}

	if err := s.Remove(ctx); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	tok, err = s.Get(ctx)
	if err != nil || tok != "" {
		t.Fatalf("Get after Remove = %q, %v", tok, err)
	}

	// Remove twice: idempotent.
	if err := s.Remove(ctx); err != nil {
		t.Fatalf("second Remove: %v", err)
	}
}

func TestMemory(t *testing.T) {
	exerciseStore(t, store.NewMemory())
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "token")
	exerciseStore(t, store.NewFile(path))
}

func TestFile_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	f := store.NewFile(path)

	if err := f.Save(context.Background(), "secret.token.here"); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("token file mode = %o, want 600", perm)
	}
}

func TestFile_TrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("a.b.c\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tok, err := store.NewFile(path).Get(context.Background())
	if err != nil || tok != "a.b.c" {
		t.Fatalf("Get = %q, %v", tok, err)
	}
}
