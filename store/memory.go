// Package store provides an in-memory record store satisfying the
// persistence interfaces of the identity, schema, and credential packages.
//
// Identities are keyed by DID string, schemas and credentials by their
// (ledger-assigned) ids. Concurrent writes for the same identifier are not
// deduplicated; that remains a caller responsibility.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/registrykit/go-identity-sdk/anchor"
	"github.com/registrykit/go-identity-sdk/apierrors"
	"github.com/registrykit/go-identity-sdk/did"
	"github.com/registrykit/go-identity-sdk/schema"
)

// Memory is a thread-safe in-process record store.
type Memory struct {
	mu          sync.RWMutex
	documents   map[string]*did.Document
	schemas     map[string]*schema.Record
	credentials map[string]*anchor.CredentialRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		documents:   make(map[string]*did.Document),
		schemas:     make(map[string]*schema.Record),
		credentials: make(map[string]*anchor.CredentialRecord),
	}
}

// SaveDocument stores a DID document keyed by its id.
func (m *Memory) SaveDocument(_ context.Context, doc *did.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("document id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[doc.ID] = doc
	return nil
}

// GetDocument returns the document for a DID string.
func (m *Memory) GetDocument(_ context.Context, id string) (*did.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, apierrors.NotFoundf("DID: %s not found", id)
	}
	return doc, nil
}

// SaveSchema stores a schema record keyed by its id.
func (m *Memory) SaveSchema(_ context.Context, record *schema.Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("schema id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemas[record.ID] = record
	return nil
}

// GetSchema returns the schema record for an id.
func (m *Memory) GetSchema(_ context.Context, id string) (*schema.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.schemas[id]
	if !ok {
		return nil, apierrors.NotFoundf("schema %s not found", id)
	}
	return record, nil
}

// SaveCredential stores a credential record keyed by its id.
func (m *Memory) SaveCredential(_ context.Context, record *anchor.CredentialRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("credential id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credentials[record.ID] = record
	return nil
}

// GetCredential returns the credential record for an id.
func (m *Memory) GetCredential(_ context.Context, id string) (*anchor.CredentialRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.credentials[id]
	if !ok {
		return nil, apierrors.NotFoundf("credential %s not found", id)
	}
	return record, nil
}
