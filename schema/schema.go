// Package schema manages versioned credential schemas and their anchoring
// state.
package schema

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/registrykit/go-identity-sdk/anchor"
	"github.com/registrykit/go-identity-sdk/apierrors"
)

// Record is a credential schema as persisted by the record store, keyed by
// its ledger-assigned id once anchored.
type Record struct {
	ID               string          `json:"id"`
	Schema           map[string]any  `json:"schema"`
	BlockchainStatus anchor.Status   `json:"blockchainStatus"`
	AnchorResponse   json.RawMessage `json:"-"`
}

// Store persists and retrieves schema records.
type Store interface {
	SaveSchema(ctx context.Context, record *Record) error
	GetSchema(ctx context.Context, id string) (*Record, error)
}

// Service validates, anchors, and stores credential schemas.
type Service struct {
	factory *anchor.Factory
	store   Store
}

// NewService creates a schema Service.
func NewService(factory *anchor.Factory, store Store) *Service {
	return &Service{factory: factory, store: store}
}

// Create validates the schema payload, anchors it when a blockchain method
// is supplied, and persists the resulting record.
//
// Without a method the record keeps a locally-assigned id and stays PENDING;
// with one, the ledger-assigned id becomes the schema's canonical id and the
// status moves to ANCHORED.
func (s *Service) Create(ctx context.Context, payload map[string]any, method string) (*Record, error) {
	if len(payload) == 0 {
		return nil, apierrors.Validationf("schema payload is required")
	}
	if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(payload)); err != nil {
		return nil, apierrors.Wrap(apierrors.KindValidation, err, "schema payload is not a valid JSON Schema")
	}

	backend, err := s.factory.GetBackend(method)
	if err != nil {
		return nil, err
	}

	record := &Record{
		Schema:           payload,
		BlockchainStatus: anchor.StatusPending,
	}

	if backend == nil {
		record.ID = "did:schema:" + uuid.NewString()
	} else {
		result, err := backend.AnchorSchema(ctx, payload)
		if err != nil {
			return nil, err
		}
		record.ID = result.SchemaID
		record.BlockchainStatus = anchor.StatusAnchored
		record.AnchorResponse = result.Raw
	}

	if err := s.store.SaveSchema(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist schema %s: %w", record.ID, err)
	}

	glog.V(1).Infof("created schema %s (%s)", record.ID, record.BlockchainStatus)
	return record, nil
}

// Get returns the stored schema record for an id.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.store.GetSchema(ctx, id)
}
