// Package vault abstracts custody of private-key material.
//
// The SDK never logs or returns secret material to a client-facing layer;
// everything sensitive produced during generation is handed here immediately.
package vault

import (
	"context"
	"fmt"
	"sync"
)

// Vault is the secret store the identity service writes key material to.
type Vault interface {
	// StoreSecret writes the secret material for an identifier.
	StoreSecret(ctx context.Context, id string, secret map[string]any) error
	// RetrieveSecret reads previously stored material.
	RetrieveSecret(ctx context.Context, id string) (map[string]any, error)
}

// Memory is an in-process Vault used for tests and local development.
type Memory struct {
	mu      sync.RWMutex
	secrets map[string]map[string]any
}

// NewMemory creates an empty in-memory vault.
func NewMemory() *Memory {
	return &Memory{secrets: make(map[string]map[string]any)}
}

// StoreSecret implements Vault.
func (m *Memory) StoreSecret(_ context.Context, id string, secret map[string]any) error {
	if id == "" {
		return fmt.Errorf("secret id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[id] = secret
	return nil
}

// RetrieveSecret implements Vault.
func (m *Memory) RetrieveSecret(_ context.Context, id string) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	secret, ok := m.secrets[id]
	if !ok {
		return nil, fmt.Errorf("no secret stored for %s", id)
	}
	return secret, nil
}
