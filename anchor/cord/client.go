// Package cord implements the anchor.Backend contract against a CORD issuer
// agent reachable over HTTP.
//
// The client maps the agent's JSON response envelopes into the SDK's own
// result shapes and translates transport and ledger failures into the
// apierrors taxonomy. Anchoring writes are never retried here: the agent
// does not guarantee idempotency for writes.
package cord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/golang/glog"

	"github.com/registrykit/go-identity-sdk/anchor"
	"github.com/registrykit/go-identity-sdk/apierrors"
	"github.com/registrykit/go-identity-sdk/did"
)

// Client talks to the CORD issuer agent. It is stateless beyond its
// transport client and safe for concurrent use.
type Client struct {
	agentBaseURL  string
	verifyBaseURL string
	httpClient    *http.Client
}

var _ anchor.Backend = (*Client)(nil)

// AnchorDID anchors a DID on the CORD chain via the issuer agent.
//
// The descriptor's method must be "cord"; the factory already routes by
// method, this check is defense in depth.
func (c *Client) AnchorDID(ctx context.Context, descriptor *did.GenerateDescriptor) (*anchor.DIDAnchor, error) {
	if descriptor == nil || descriptor.Method != string(anchor.MethodCord) {
		return nil, apierrors.Validationf(`invalid method: only "cord" is allowed for anchoring to Cord`)
	}

	status, body, err := c.postJSON(ctx, c.agentBaseURL+"/did/create/", descriptor)
	if err != nil {
		glog.Errorf("error anchoring DID to CORD blockchain: %v", err)
		return nil, apierrors.Anchor(err, 0, "", "failed to anchor DID to CORD blockchain")
	}
	if status < 200 || status >= 300 {
		glog.Errorf("error anchoring DID to CORD blockchain: status %d body %s", status, body)
		return nil, apierrors.Anchor(nil, status, string(body), "failed to anchor DID to CORD blockchain")
	}

	var envelope struct {
		Result anchor.DIDAnchor `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Result.Document == nil {
		glog.Errorf("malformed DID anchoring response from CORD agent: %v body %s", err, body)
		return nil, apierrors.Anchor(err, status, string(body), "malformed DID anchoring response")
	}

	return &envelope.Result, nil
}

// AnchorSchema anchors a credential schema and returns the ledger-assigned
// schema id together with the raw agent response.
func (c *Client) AnchorSchema(ctx context.Context, schema map[string]any) (*anchor.SchemaAnchor, error) {
	status, body, err := c.postJSON(ctx, c.agentBaseURL+"/schema", schema)
	if err != nil {
		glog.Errorf("error anchoring schema to CORD blockchain: %v", err)
		return nil, apierrors.Anchor(err, 0, "", "failed to anchor schema to CORD blockchain")
	}
	if status < 200 || status >= 300 {
		glog.Errorf("error anchoring schema to CORD blockchain: status %d body %s", status, body)
		return nil, apierrors.Anchor(nil, status, string(body), "failed to anchor schema to CORD blockchain")
	}

	var result anchor.SchemaAnchor
	if err := json.Unmarshal(body, &result); err != nil || result.SchemaID == "" {
		glog.Errorf("malformed schema anchoring response from CORD agent: %v body %s", err, body)
		return nil, apierrors.Anchor(err, status, string(body), "malformed schema anchoring response")
	}
	result.Raw = json.RawMessage(body)

	return &result, nil
}

// AnchorCredential anchors an unsigned credential and merges the returned
// verifiable-credential envelope with the caller-supplied tags and schema
// reference into the final record.
func (c *Client) AnchorCredential(ctx context.Context, req *anchor.IssueCredentialRequest) (*anchor.CredentialRecord, error) {
	if req == nil || req.CredentialSchemaID == "" {
		return nil, apierrors.Validationf("Cord Schema ID is missing")
	}

	credentialPayload := make(map[string]any, len(req.Credential)+1)
	for k, v := range req.Credential {
		credentialPayload[k] = v
	}
	credentialPayload["schemaId"] = req.CredentialSchemaID

	status, body, err := c.postJSON(ctx, c.agentBaseURL+"/cred", map[string]any{
		"credential": credentialPayload,
	})
	if err != nil {
		glog.Errorf("error anchoring credential: %v", err)
		return nil, apierrors.Anchor(err, 0, "", "error anchoring credential")
	}
	if status < 200 || status >= 300 {
		glog.Errorf("error anchoring credential: status %d body %s", status, body)
		return nil, apierrors.Anchor(nil, status, string(body), "error anchoring credential: %s", upstreamDetail(body))
	}

	var envelope struct {
		Result struct {
			VC map[string]any `json:"vc"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Result.VC == nil {
		glog.Errorf("malformed credential anchoring response from CORD agent: %v body %s", err, body)
		return nil, apierrors.Anchor(err, status, string(body), "malformed credential anchoring response")
	}

	return mergeAnchoredCredential(req, envelope.Result.VC), nil
}

// VerifyCredential posts the full verifiable credential to the verification
// middleware. Safe to retry; it has no ledger side effects.
func (c *Client) VerifyCredential(ctx context.Context, credential map[string]any) (anchor.VerificationResult, error) {
	status, body, err := c.postJSON(ctx, c.verifyBaseURL+"/credentials/verify", credential)
	if err != nil {
		glog.Errorf("error calling Cord verification API: %v", err)
		return nil, apierrors.Anchor(err, 0, "", "error verifying credential on Cord")
	}
	if status != http.StatusOK {
		glog.Errorf("Cord verification failed: status %d body %s", status, body)
		return nil, apierrors.VerificationFailed(status, string(body), "Cord verification failed")
	}

	var result anchor.VerificationResult
	if err := json.Unmarshal(body, &result); err != nil {
		glog.Errorf("malformed verification response from Cord: %v body %s", err, body)
		return nil, apierrors.Anchor(err, status, string(body), "malformed verification response")
	}

	return result, nil
}

// postJSON issues one POST with a JSON body and returns the response status
// and body. A returned error means the request never completed; HTTP error
// statuses are left to the caller.
func (c *Client) postJSON(ctx context.Context, url string, payload any) (int, []byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to call %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return resp.StatusCode, body, nil
}

// mergeAnchoredCredential extracts the anchored fields from the returned
// verifiable-credential envelope and merges them with locally-known metadata.
func mergeAnchoredCredential(req *anchor.IssueCredentialRequest, vc map[string]any) *anchor.CredentialRecord {
	record := &anchor.CredentialRecord{
		ID:               stringField(vc, "id"),
		Issuer:           stringField(vc, "issuer"),
		IssuanceDate:     stringField(vc, "issuanceDate"),
		ExpirationDate:   stringField(vc, "validUntil"),
		Proof:            mapField(vc, "proof"),
		Subject:          mapField(vc, "credentialSubject"),
		CredentialSchema: req.CredentialSchemaID,
		Signed:           vc,
		Tags:             req.Tags,
		BlockchainStatus: anchor.StatusAnchored,
	}
	record.SubjectID = stringField(record.Subject, "id")

	if types, ok := req.Credential["type"].([]string); ok {
		record.Type = types
	} else if raw, ok := req.Credential["type"].([]any); ok {
		for _, t := range raw {
			if s, ok := t.(string); ok {
				record.Type = append(record.Type, s)
			}
		}
	}

	return record
}

// upstreamDetail pulls the agent's error detail out of a failure body when
// one is present.
func upstreamDetail(body []byte) string {
	var payload struct {
		Details string `json:"details"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Details != "" {
		return payload.Details
	}
	return string(body)
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func mapField(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]any)
	return v
}
