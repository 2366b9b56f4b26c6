// Package store provides TokenStore implementations: a process-local
// memory store, a file store for CLI and desktop consumers, and a
// Redis store for multi-instance deployments.
//
// Every store is a pure key-value boundary holding a single opaque
// string; no token validation happens here.
package store

import (
	"context"
	"sync"

	authguard "github.com/medassur/authguard-go"
)

// Memory is an in-process TokenStore. Suitable for tests and for
// processes whose session should not outlive them.
type Memory struct {
	mu    sync.RWMutex
	token string
}

// compile-time check
var _ authguard.TokenStore = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Save persists the token, overwriting any prior value.
func (m *Memory) Save(ctx context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

// Get returns the persisted token, or "" if absent.
func (m *Memory) Get(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

// Remove deletes the persisted token. Idempotent.
func (m *Memory) Remove(ctx context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}
