package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	authguard "github.com/medassur/authguard-go"
)

// File persists the token in a single file, the local-storage analog
// for CLI and desktop consumers. The file is created with 0600 since
// it holds a bearer credential.
type File struct {
	path string
}

// compile-time check
var _ authguard.TokenStore = (*File)(nil)

// NewFile creates a file-backed store at path. Parent directories are
// created on the first Save.
func NewFile(path string) *File {
	return &File{path: path}
}

// Save persists the token, overwriting any prior value.
func (f *File) Save(ctx context.Context, token string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("store: create token dir: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("store: write token: %w", err)
	}
	return nil
}

// Get returns the persisted token, or "" if the file does not exist.
func (f *File) Get(ctx context.Context) (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("store: read token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Remove deletes the token file. Idempotent.
func (f *File) Remove(ctx context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("store: remove token: %w", err)
	}
	return nil
}
