package schema_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/registrykit/go-identity-sdk/anchor"
	"github.com/registrykit/go-identity-sdk/apierrors"
	"github.com/registrykit/go-identity-sdk/did"
	"github.com/registrykit/go-identity-sdk/schema"
	"github.com/registrykit/go-identity-sdk/store"
)

type mockBackend struct {
	anchorSchemaCalls int
	anchorSchema      func(map[string]any) (*anchor.SchemaAnchor, error)
}

func (m *mockBackend) AnchorDID(context.Context, *did.GenerateDescriptor) (*anchor.DIDAnchor, error) {
	return nil, errors.New("not scripted")
}

func (m *mockBackend) AnchorSchema(_ context.Context, payload map[string]any) (*anchor.SchemaAnchor, error) {
	m.anchorSchemaCalls++
	return m.anchorSchema(payload)
}

func (m *mockBackend) AnchorCredential(context.Context, *anchor.IssueCredentialRequest) (*anchor.CredentialRecord, error) {
	return nil, errors.New("not scripted")
}

func (m *mockBackend) VerifyCredential(context.Context, map[string]any) (anchor.VerificationResult, error) {
	return nil, errors.New("not scripted")
}

func validPayload() map[string]any {
	return map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type":    "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
		},
		"required": []any{"name"},
	}
}

func TestCreateAnchorlessSchema(t *testing.T) {
	records := store.NewMemory()
	service := schema.NewService(anchor.NewFactory(&mockBackend{}), records)

	record, err := service.Create(context.Background(), validPayload(), "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(record.ID, "did:schema:"))
	assert.Equal(t, anchor.StatusPending, record.BlockchainStatus)

	stored, err := service.Get(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, record, stored)
}

func TestCreateAnchoredSchema(t *testing.T) {
	backend := &mockBackend{
		anchorSchema: func(payload map[string]any) (*anchor.SchemaAnchor, error) {
			return &anchor.SchemaAnchor{SchemaID: "schema:cord:5x9", Raw: []byte(`{"schemaId":"schema:cord:5x9"}`)}, nil
		},
	}
	records := store.NewMemory()
	service := schema.NewService(anchor.NewFactory(backend), records)

	record, err := service.Create(context.Background(), validPayload(), "cord")
	require.NoError(t, err)

	assert.Equal(t, "schema:cord:5x9", record.ID, "ledger-assigned id becomes the canonical id")
	assert.Equal(t, anchor.StatusAnchored, record.BlockchainStatus)
	assert.Equal(t, 1, backend.anchorSchemaCalls)
}

func TestCreateSchemaAnchorFailure(t *testing.T) {
	backend := &mockBackend{
		anchorSchema: func(map[string]any) (*anchor.SchemaAnchor, error) {
			return nil, apierrors.Anchor(errors.New("boom"), 502, "", "failed to anchor schema to CORD blockchain")
		},
	}
	records := store.NewMemory()
	service := schema.NewService(anchor.NewFactory(backend), records)

	_, err := service.Create(context.Background(), validPayload(), "cord")
	assert.True(t, apierrors.Is(err, apierrors.KindAnchor))
}

func TestCreateSchemaUnknownMethod(t *testing.T) {
	backend := &mockBackend{}
	service := schema.NewService(anchor.NewFactory(backend), store.NewMemory())

	_, err := service.Create(context.Background(), validPayload(), "hyperledger")
	assert.True(t, apierrors.Is(err, apierrors.KindUnsupportedMethod))
	assert.Equal(t, 0, backend.anchorSchemaCalls)
}

func TestCreateSchemaInvalidPayload(t *testing.T) {
	service := schema.NewService(anchor.NewFactory(&mockBackend{}), store.NewMemory())

	_, err := service.Create(context.Background(), map[string]any{
		"type":       "object",
		"properties": map[string]any{"name": map[string]any{"type": 42}},
	}, "")
	assert.True(t, apierrors.Is(err, apierrors.KindValidation))

	_, err = service.Create(context.Background(), nil, "")
	assert.True(t, apierrors.Is(err, apierrors.KindValidation))
}
