// Package credential orchestrates credential issuance, anchoring, and
// verification.
package credential

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/registrykit/go-identity-sdk/anchor"
	"github.com/registrykit/go-identity-sdk/apierrors"
	"github.com/registrykit/go-identity-sdk/canonical"
	"github.com/registrykit/go-identity-sdk/schema"
)

// Store persists and retrieves credential records, keyed by credential id.
type Store interface {
	SaveCredential(ctx context.Context, record *anchor.CredentialRecord) error
	GetCredential(ctx context.Context, id string) (*anchor.CredentialRecord, error)
}

// SchemaStore looks up stored schema records for pre-anchor validation.
type SchemaStore interface {
	GetSchema(ctx context.Context, id string) (*schema.Record, error)
}

// Pipeline sequences credential issuance: validate the schema reference,
// anchor through the selected backend, persist the merged record.
type Pipeline struct {
	factory *anchor.Factory
	store   Store
	schemas SchemaStore
	status  *StatusClient
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithSchemaStore enables validation of credentials against their stored
// schema before anchoring.
func WithSchemaStore(schemas SchemaStore) PipelineOption {
	return func(p *Pipeline) { p.schemas = schemas }
}

// WithStatusClient enables status-list revocation checks during
// verification.
func WithStatusClient(status *StatusClient) PipelineOption {
	return func(p *Pipeline) { p.status = status }
}

// NewPipeline creates a Pipeline over the given collaborators.
func NewPipeline(factory *anchor.Factory, store Store, options ...PipelineOption) *Pipeline {
	p := &Pipeline{factory: factory, store: store}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Issue anchors and persists a credential.
//
// A missing credentialSchemaId fails validation before the backend is ever
// invoked. Without a blockchain method the record is issued locally and
// stays PENDING.
func (p *Pipeline) Issue(ctx context.Context, req *anchor.IssueCredentialRequest) (*anchor.CredentialRecord, error) {
	if req == nil || len(req.Credential) == 0 {
		return nil, apierrors.Validationf("credential payload is required")
	}

	backend, err := p.factory.GetBackend(req.Method)
	if err != nil {
		return nil, err
	}

	var record *anchor.CredentialRecord
	if backend != nil {
		if req.CredentialSchemaID == "" {
			glog.Error("credential schema id is required for anchoring but is missing")
			return nil, apierrors.Validationf("Cord Schema ID is missing")
		}
		if err := p.validateAgainstSchema(ctx, req); err != nil {
			return nil, err
		}

		record, err = backend.AnchorCredential(ctx, req)
		if err != nil {
			return nil, err
		}
		stampDigest(record)
	} else {
		record = localRecord(req)
	}

	if err := p.store.SaveCredential(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist credential %s: %w", record.ID, err)
	}

	glog.V(1).Infof("issued credential %s (%s)", record.ID, record.BlockchainStatus)
	return record, nil
}

// VerifyCredentialByID resolves a stored credential and delegates its
// verification to the backend for the given method. When a status client is
// wired and the credential carries a status entry, revocation is checked
// first.
func (p *Pipeline) VerifyCredentialByID(ctx context.Context, id, method string) (anchor.VerificationResult, error) {
	record, err := p.store.GetCredential(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.status != nil {
		if statusEntry, ok := record.Signed["credentialStatus"].(map[string]any); ok {
			revoked, err := p.status.IsRevoked(ctx, statusEntry)
			if err != nil {
				return nil, err
			}
			if revoked {
				return nil, apierrors.New(apierrors.KindVerificationFailed, "credential %s is revoked", id)
			}
		}
	}

	backend, err := p.factory.GetBackend(method)
	if err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, apierrors.Validationf("a blockchain method is required to verify credential %s", id)
	}

	envelope := record.Signed
	if envelope == nil {
		return nil, apierrors.Validationf("credential %s has no verifiable envelope", id)
	}

	return backend.VerifyCredential(ctx, envelope)
}

// stampDigest records the canonical RDF digest of the signed envelope on the
// record. The digest is advisory tamper evidence; a canonicalization failure
// must not lose an already-anchored credential, so it is logged and the
// record keeps an empty digest.
func stampDigest(record *anchor.CredentialRecord) {
	if record.Signed == nil {
		return
	}

	digest, err := canonical.DigestDocument(record.Signed)
	if err != nil {
		glog.Errorf("failed to compute digest for credential %s: %v", record.ID, err)
		return
	}
	record.Digest = digest
}

// validateAgainstSchema validates the credential against its stored schema
// payload when a schema store is wired. The schema reference must name an
// existing record.
func (p *Pipeline) validateAgainstSchema(ctx context.Context, req *anchor.IssueCredentialRequest) error {
	if p.schemas == nil {
		return nil
	}

	record, err := p.schemas.GetSchema(ctx, req.CredentialSchemaID)
	if err != nil {
		return err
	}

	schemaLoader := gojsonschema.NewGoLoader(record.Schema)
	credentialLoader := gojsonschema.NewGoLoader(req.Credential)
	result, err := gojsonschema.Validate(schemaLoader, credentialLoader)
	if err != nil {
		return apierrors.Wrap(apierrors.KindValidation, err, "schema validation failed")
	}
	if !result.Valid() {
		return apierrors.Validationf("credential does not satisfy schema %s: %v", req.CredentialSchemaID, result.Errors())
	}
	return nil
}

// localRecord builds an unanchored credential record from the request
// fields. Signing is out of scope here, so the record stays PENDING.
func localRecord(req *anchor.IssueCredentialRequest) *anchor.CredentialRecord {
	cred := req.Credential

	record := &anchor.CredentialRecord{
		ID:               "urn:uuid:" + uuid.NewString(),
		Issuer:           stringField(cred, "issuer"),
		IssuanceDate:     stringField(cred, "issuanceDate"),
		ExpirationDate:   stringField(cred, "expirationDate"),
		CredentialSchema: req.CredentialSchemaID,
		Tags:             req.Tags,
		BlockchainStatus: anchor.StatusPending,
	}
	if record.IssuanceDate == "" {
		record.IssuanceDate = time.Now().UTC().Format(time.RFC3339)
	}
	if subject, ok := cred["credentialSubject"].(map[string]any); ok {
		record.Subject = subject
		record.SubjectID = stringField(subject, "id")
	}
	return record
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
