// Package credentials owns the single bearer credential of the running client.
//
// The credential is an opaque token. Everything that needs it (the HTTP
// client, the session manager) reads and writes through a Store and never
// keeps a copy for longer than one operation.
package credentials

import (
	"context"
	"sync"
)

// Store is a durable single-slot register. Get returns "" when no credential
// is present. No validation happens here.
type Store interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the credential for the lifetime of the process only.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *MemoryStore) Set(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}
