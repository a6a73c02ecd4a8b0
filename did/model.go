// Package did provides the W3C DID document model shared by the identity,
// anchoring, and credential packages.
package did

import (
	"fmt"
	"strings"

	"github.com/registrykit/go-identity-sdk/canonical"
)

// Context entries included in every generated DID document.
var DefaultContext = []string{
	"https://www.w3.org/ns/did/v1",
	"https://w3id.org/security/suites/ed25519-2020/v1",
}

// Document is a resolvable identity descriptor.
type Document struct {
	Context              []string             `json:"@context,omitempty"`
	ID                   string               `json:"id"`
	AlsoKnownAs          []string             `json:"alsoKnownAs,omitempty"`
	VerificationMethod   []VerificationMethod `json:"verificationMethod,omitempty"`
	Authentication       []string             `json:"authentication,omitempty"`
	AssertionMethod      []string             `json:"assertionMethod,omitempty"`
	KeyAgreement         []string             `json:"keyAgreement,omitempty"`
	CapabilityDelegation []string             `json:"capabilityDelegation,omitempty"`
	Service              []Service            `json:"service,omitempty"`
	DocumentMetadata     map[string]any       `json:"didDocumentMetadata,omitempty"`
}

// VerificationMethod is one cryptographic key bound to an identity.
type VerificationMethod struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Controller         string `json:"controller"`
	PublicKeyMultibase string `json:"publicKeyMultibase,omitempty"`
}

// Service is one service endpoint entry in a DID document.
type Service struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	ServiceEndpoint any    `json:"serviceEndpoint"`
}

// Hash calculates the Keccak256 hash of the canonicalized document.
//
// Each document hashes to a unique value used as a tamper check in document
// metadata.
func (d *Document) Hash() (string, error) {
	h, err := canonical.HashDocument(d)
	if err != nil {
		return "", fmt.Errorf("failed to hash DID document: %w", err)
	}
	return h, nil
}

// Validate checks the structural invariants of the document: a non-empty id
// and every reference-list entry naming a verification method present in the
// document or a resolvable external one (an id with its own DID part).
func (d *Document) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("document id is required")
	}

	known := make(map[string]struct{}, len(d.VerificationMethod))
	for _, vm := range d.VerificationMethod {
		if vm.PublicKeyMultibase == "" {
			return fmt.Errorf("verification method %s has no public key", vm.ID)
		}
		known[vm.ID] = struct{}{}
	}

	for _, refs := range [][]string{d.Authentication, d.AssertionMethod, d.KeyAgreement, d.CapabilityDelegation} {
		for _, ref := range refs {
			if _, ok := known[ref]; ok {
				continue
			}
			// External references carry their own DID before the fragment.
			if didPart, _, found := strings.Cut(ref, "#"); !found || didPart == "" || didPart == d.ID {
				return fmt.Errorf("reference %s does not name a verification method in the document", ref)
			}
		}
	}
	return nil
}
