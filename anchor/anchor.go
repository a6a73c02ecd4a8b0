// Package anchor defines the contract every ledger integration satisfies and
// the normalized shapes a ledger write produces.
//
// Backend instances are process-scoped singletons with no per-request state
// and are safe for concurrent use. Anchoring writes are not retried: a ledger
// write's side effect cannot be assumed absent on failure, so callers wanting
// retries must implement idempotency themselves. Verification is read-only
// and may be retried freely.
package anchor

import (
	"context"
	"encoding/json"

	"github.com/registrykit/go-identity-sdk/did"
)

// Status is the anchoring state of a record.
type Status string

// Anchoring states. A record moves from StatusPending to StatusAnchored only
// after a successful backend call and never reverts.
const (
	StatusPending  Status = "PENDING"
	StatusAnchored Status = "ANCHORED"
)

// Backend is the contract every ledger integration must satisfy.
type Backend interface {
	// AnchorDID durably records a DID on the ledger and returns the
	// ledger-produced document with its key material.
	AnchorDID(ctx context.Context, descriptor *did.GenerateDescriptor) (*DIDAnchor, error)

	// AnchorSchema durably records a credential schema and returns the
	// ledger-assigned schema id.
	AnchorSchema(ctx context.Context, schema map[string]any) (*SchemaAnchor, error)

	// AnchorCredential anchors a credential and returns the merged record
	// ready for persistence.
	AnchorCredential(ctx context.Context, req *IssueCredentialRequest) (*CredentialRecord, error)

	// VerifyCredential checks a verifiable credential against the ledger.
	// It has no ledger side effects and is safe to retry.
	VerifyCredential(ctx context.Context, credential map[string]any) (VerificationResult, error)
}

// DIDAnchor is a ledger's response to a DID anchoring write. It is only
// produced by a successful Backend call.
type DIDAnchor struct {
	Document     *did.Document  `json:"document"`
	Mnemonic     string         `json:"mnemonic,omitempty"`
	DelegateKeys map[string]any `json:"delegateKeys,omitempty"`
}

// SchemaAnchor is a ledger's response to a schema anchoring write.
type SchemaAnchor struct {
	SchemaID string          `json:"schemaId"`
	Raw      json.RawMessage `json:"-"`
}

// IssueCredentialRequest is the input to credential anchoring.
type IssueCredentialRequest struct {
	// Credential holds the unsigned credential fields.
	Credential map[string]any `json:"credential"`
	// CredentialSchemaID references an anchored schema. Required before any
	// ledger call is attempted.
	CredentialSchemaID string `json:"credentialSchemaId"`
	// Tags are caller-supplied metadata merged into the final record.
	Tags []string `json:"tags,omitempty"`
	// Method selects the ledger backend for this issuance. Empty means no
	// anchoring.
	Method string `json:"method,omitempty"`
}

// CredentialRecord is an issued credential as persisted by the record store.
type CredentialRecord struct {
	ID               string         `json:"id"`
	Type             []string       `json:"type,omitempty"`
	Issuer           string         `json:"issuer"`
	IssuanceDate     string         `json:"issuanceDate"`
	ExpirationDate   string         `json:"expirationDate,omitempty"`
	Subject          map[string]any `json:"subject"`
	SubjectID        string         `json:"subjectId,omitempty"`
	Proof            map[string]any `json:"proof,omitempty"`
	CredentialSchema string         `json:"credential_schema"`
	Signed           map[string]any `json:"signed,omitempty"`
	// Digest is the hex SHA-256 of the signed envelope's canonical RDF form.
	// Advisory tamper evidence; absent when the envelope cannot be
	// canonicalized.
	Digest           string   `json:"digest,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	BlockchainStatus Status   `json:"blockchainStatus"`
}

// VerificationResult is the payload returned by a ledger verification call.
type VerificationResult map[string]any
