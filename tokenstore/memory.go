// Package tokenstore provides token persistence backends for the client:
// an in-memory store for tests and short-lived processes, and a bun-backed
// store that survives restarts.
package tokenstore

import (
	"context"
	"sync"

	mediagrab "github.com/mediagrab/go-mediagrab"
)

// Memory keeps the token in process memory.
type Memory struct {
	mu    sync.RWMutex
	token string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Get returns the stored token or ErrTokenNotFound.
func (m *Memory) Get(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.token == "" {
		return "", mediagrab.ErrTokenNotFound
	}

	return m.token, nil
}

// Set replaces the stored token.
func (m *Memory) Set(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = token
	return nil
}

// Clear removes the stored token. Clearing an empty store is a no-op.
func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = ""
	return nil
}
