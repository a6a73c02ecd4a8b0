package credential_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/registrykit/go-identity-sdk/anchor"
	"github.com/registrykit/go-identity-sdk/apierrors"
	"github.com/registrykit/go-identity-sdk/config"
	"github.com/registrykit/go-identity-sdk/credential"
	"github.com/registrykit/go-identity-sdk/did"
	"github.com/registrykit/go-identity-sdk/schema"
	"github.com/registrykit/go-identity-sdk/store"
)

type mockBackend struct {
	anchorCredentialCalls int
	anchorCredential      func(*anchor.IssueCredentialRequest) (*anchor.CredentialRecord, error)
	verifyCalls           int
	verify                func(map[string]any) (anchor.VerificationResult, error)
}

func (m *mockBackend) AnchorDID(context.Context, *did.GenerateDescriptor) (*anchor.DIDAnchor, error) {
	return nil, errors.New("not scripted")
}

func (m *mockBackend) AnchorSchema(context.Context, map[string]any) (*anchor.SchemaAnchor, error) {
	return nil, errors.New("not scripted")
}

func (m *mockBackend) AnchorCredential(_ context.Context, req *anchor.IssueCredentialRequest) (*anchor.CredentialRecord, error) {
	m.anchorCredentialCalls++
	return m.anchorCredential(req)
}

func (m *mockBackend) VerifyCredential(_ context.Context, vc map[string]any) (anchor.VerificationResult, error) {
	m.verifyCalls++
	return m.verify(vc)
}

func anchoredRecord(req *anchor.IssueCredentialRequest) (*anchor.CredentialRecord, error) {
	return &anchor.CredentialRecord{
		ID:               "cred:cord:7x1",
		Issuer:           "did:cord:issuer",
		IssuanceDate:     "2026-08-01T00:00:00Z",
		Subject:          map[string]any{"id": "did:rcw:subject"},
		SubjectID:        "did:rcw:subject",
		CredentialSchema: req.CredentialSchemaID,
		Signed:           map[string]any{"id": "cred:cord:7x1"},
		Tags:             req.Tags,
		BlockchainStatus: anchor.StatusAnchored,
	}, nil
}

func TestIssueMissingSchemaID(t *testing.T) {
	backend := &mockBackend{}
	pipeline := credential.NewPipeline(anchor.NewFactory(backend), store.NewMemory())

	_, err := pipeline.Issue(context.Background(), &anchor.IssueCredentialRequest{
		Credential: map[string]any{"credentialSubject": map[string]any{}},
		Method:     "cord",
	})
	assert.True(t, apierrors.Is(err, apierrors.KindValidation))
	assert.Equal(t, 0, backend.anchorCredentialCalls, "the backend is never invoked")
}

func TestIssueAnchored(t *testing.T) {
	backend := &mockBackend{anchorCredential: anchoredRecord}
	records := store.NewMemory()
	pipeline := credential.NewPipeline(anchor.NewFactory(backend), records)

	record, err := pipeline.Issue(context.Background(), &anchor.IssueCredentialRequest{
		Credential:         map[string]any{"credentialSubject": map[string]any{"id": "did:rcw:subject"}},
		CredentialSchemaID: "schema:cord:5x9",
		Tags:               []string{"training"},
		Method:             "cord",
	})
	require.NoError(t, err)

	assert.Equal(t, "cred:cord:7x1", record.ID)
	assert.Equal(t, anchor.StatusAnchored, record.BlockchainStatus)
	assert.Equal(t, []string{"training"}, record.Tags)

	stored, err := records.GetCredential(context.Background(), "cred:cord:7x1")
	require.NoError(t, err)
	assert.Equal(t, record, stored)
}

func TestIssueAnchoredStampsDigest(t *testing.T) {
	backend := &mockBackend{
		anchorCredential: func(req *anchor.IssueCredentialRequest) (*anchor.CredentialRecord, error) {
			record, _ := anchoredRecord(req)
			record.Signed = map[string]any{
				"@context": map[string]any{"name": "http://schema.org/name"},
				"name":     "Asha",
			}
			return record, nil
		},
	}
	records := store.NewMemory()
	pipeline := credential.NewPipeline(anchor.NewFactory(backend), records)

	issue := func() *anchor.CredentialRecord {
		record, err := pipeline.Issue(context.Background(), &anchor.IssueCredentialRequest{
			Credential:         map[string]any{"credentialSubject": map[string]any{}},
			CredentialSchemaID: "schema:cord:5x9",
			Method:             "cord",
		})
		require.NoError(t, err)
		return record
	}

	first := issue()
	assert.Len(t, first.Digest, 64)

	// The digest is a function of the signed envelope alone.
	assert.Equal(t, first.Digest, issue().Digest)

	stored, err := records.GetCredential(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Digest, stored.Digest)
}

func TestIssueAnchorFailureNotPersisted(t *testing.T) {
	backend := &mockBackend{
		anchorCredential: func(*anchor.IssueCredentialRequest) (*anchor.CredentialRecord, error) {
			return nil, apierrors.Anchor(errors.New("boom"), 502, "", "error anchoring credential")
		},
	}
	records := store.NewMemory()
	pipeline := credential.NewPipeline(anchor.NewFactory(backend), records)

	_, err := pipeline.Issue(context.Background(), &anchor.IssueCredentialRequest{
		Credential:         map[string]any{"credentialSubject": map[string]any{}},
		CredentialSchemaID: "schema:cord:5x9",
		Method:             "cord",
	})
	assert.True(t, apierrors.Is(err, apierrors.KindAnchor))

	_, err = records.GetCredential(context.Background(), "cred:cord:7x1")
	assert.True(t, apierrors.Is(err, apierrors.KindNotFound))
}

func TestIssueAnchorless(t *testing.T) {
	pipeline := credential.NewPipeline(anchor.NewFactory(&mockBackend{}), store.NewMemory())

	record, err := pipeline.Issue(context.Background(), &anchor.IssueCredentialRequest{
		Credential: map[string]any{
			"issuer":            "did:rcw:issuer",
			"credentialSubject": map[string]any{"id": "did:rcw:subject", "name": "Asha"},
		},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(record.ID, "urn:uuid:"))
	assert.Equal(t, anchor.StatusPending, record.BlockchainStatus)
	assert.Equal(t, "did:rcw:issuer", record.Issuer)
	assert.Equal(t, "did:rcw:subject", record.SubjectID)
	assert.NotEmpty(t, record.IssuanceDate)
}

func TestIssueValidatesAgainstStoredSchema(t *testing.T) {
	records := store.NewMemory()
	require.NoError(t, records.SaveSchema(context.Background(), &schema.Record{
		ID: "schema:cord:5x9",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"credentialSubject": map[string]any{
					"type":     "object",
					"required": []any{"name"},
				},
			},
		},
		BlockchainStatus: anchor.StatusAnchored,
	}))

	backend := &mockBackend{anchorCredential: anchoredRecord}
	pipeline := credential.NewPipeline(anchor.NewFactory(backend), records,
		credential.WithSchemaStore(records))

	// Subject without the required field fails before the backend runs.
	_, err := pipeline.Issue(context.Background(), &anchor.IssueCredentialRequest{
		Credential:         map[string]any{"credentialSubject": map[string]any{"id": "x"}},
		CredentialSchemaID: "schema:cord:5x9",
		Method:             "cord",
	})
	assert.True(t, apierrors.Is(err, apierrors.KindValidation))
	assert.Equal(t, 0, backend.anchorCredentialCalls)

	// A conforming credential goes through.
	_, err = pipeline.Issue(context.Background(), &anchor.IssueCredentialRequest{
		Credential:         map[string]any{"credentialSubject": map[string]any{"id": "x", "name": "Asha"}},
		CredentialSchemaID: "schema:cord:5x9",
		Method:             "cord",
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, backend.anchorCredentialCalls)
}

func TestIssueUnknownSchemaReference(t *testing.T) {
	records := store.NewMemory()
	backend := &mockBackend{anchorCredential: anchoredRecord}
	pipeline := credential.NewPipeline(anchor.NewFactory(backend), records,
		credential.WithSchemaStore(records))

	_, err := pipeline.Issue(context.Background(), &anchor.IssueCredentialRequest{
		Credential:         map[string]any{"credentialSubject": map[string]any{}},
		CredentialSchemaID: "schema:cord:missing",
		Method:             "cord",
	})
	assert.True(t, apierrors.Is(err, apierrors.KindNotFound))
	assert.Equal(t, 0, backend.anchorCredentialCalls)
}

func TestVerifyCredentialByID(t *testing.T) {
	backend := &mockBackend{
		anchorCredential: anchoredRecord,
		verify: func(vc map[string]any) (anchor.VerificationResult, error) {
			assert.Equal(t, "cred:cord:7x1", vc["id"])
			return anchor.VerificationResult{"verified": true}, nil
		},
	}
	records := store.NewMemory()
	pipeline := credential.NewPipeline(anchor.NewFactory(backend), records)

	_, err := pipeline.Issue(context.Background(), &anchor.IssueCredentialRequest{
		Credential:         map[string]any{"credentialSubject": map[string]any{}},
		CredentialSchemaID: "schema:cord:5x9",
		Method:             "cord",
	})
	require.NoError(t, err)

	result, err := pipeline.VerifyCredentialByID(context.Background(), "cred:cord:7x1", "cord")
	require.NoError(t, err)
	assert.Equal(t, true, result["verified"])
	assert.Equal(t, 1, backend.verifyCalls)
}

func TestVerifyCredentialByIDNotFound(t *testing.T) {
	pipeline := credential.NewPipeline(anchor.NewFactory(&mockBackend{}), store.NewMemory())

	_, err := pipeline.VerifyCredentialByID(context.Background(), "cred:cord:absent", "cord")
	assert.True(t, apierrors.Is(err, apierrors.KindNotFound))
	assert.Contains(t, err.Error(), "cred:cord:absent")
}

func TestVerifyCredentialByIDBackendRejects(t *testing.T) {
	backend := &mockBackend{
		anchorCredential: anchoredRecord,
		verify: func(map[string]any) (anchor.VerificationResult, error) {
			return nil, apierrors.VerificationFailed(http.StatusBadRequest, "", "Cord verification failed")
		},
	}
	records := store.NewMemory()
	pipeline := credential.NewPipeline(anchor.NewFactory(backend), records)

	_, err := pipeline.Issue(context.Background(), &anchor.IssueCredentialRequest{
		Credential:         map[string]any{"credentialSubject": map[string]any{}},
		CredentialSchemaID: "schema:cord:5x9",
		Method:             "cord",
	})
	require.NoError(t, err)

	_, err = pipeline.VerifyCredentialByID(context.Background(), "cred:cord:7x1", "cord")
	assert.True(t, apierrors.Is(err, apierrors.KindVerificationFailed))
}

// encodedList builds the gzip + base64url bitstring of a status list.
func encodedList(t *testing.T, bits []byte) string {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write(bits)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return base64.RawURLEncoding.EncodeToString(buf.Bytes())
}

func TestVerifyCredentialByIDRevoked(t *testing.T) {
	// Bit 3 set: the credential at statusListIndex 3 is revoked.
	list := encodedList(t, []byte{0b0000_1000})
	statusServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"credentialSubject": map[string]any{
					"statusPurpose": "revocation",
					"encodedList":   list,
				},
			},
		}))
	}))
	t.Cleanup(statusServer.Close)

	backend := &mockBackend{
		anchorCredential: func(req *anchor.IssueCredentialRequest) (*anchor.CredentialRecord, error) {
			record, _ := anchoredRecord(req)
			record.Signed["credentialStatus"] = map[string]any{
				"statusListCredential": statusServer.URL,
				"statusListIndex":      "3",
			}
			return record, nil
		},
		verify: func(map[string]any) (anchor.VerificationResult, error) {
			return anchor.VerificationResult{"verified": true}, nil
		},
	}
	records := store.NewMemory()
	pipeline := credential.NewPipeline(anchor.NewFactory(backend), records,
		credential.WithStatusClient(credential.NewStatusClient(config.New())))

	_, err := pipeline.Issue(context.Background(), &anchor.IssueCredentialRequest{
		Credential:         map[string]any{"credentialSubject": map[string]any{}},
		CredentialSchemaID: "schema:cord:5x9",
		Method:             "cord",
	})
	require.NoError(t, err)

	_, err = pipeline.VerifyCredentialByID(context.Background(), "cred:cord:7x1", "cord")
	assert.True(t, apierrors.Is(err, apierrors.KindVerificationFailed))
	assert.Contains(t, err.Error(), "revoked")
	assert.Equal(t, 0, backend.verifyCalls, "revoked credentials never reach the ledger")
}

func TestStatusClientHonorsConfiguredTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(slow.Close)

	client := credential.NewStatusClient(config.New(config.WithHTTPTimeout(20 * time.Millisecond)))
	_, err := client.IsRevoked(context.Background(), map[string]any{
		"statusListCredential": slow.URL,
		"statusListIndex":      "0",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to call status list credential endpoint")
}
