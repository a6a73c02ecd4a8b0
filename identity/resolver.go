package identity

import (
	"context"
	"strings"

	"github.com/registrykit/go-identity-sdk/apierrors"
	"github.com/registrykit/go-identity-sdk/config"
	"github.com/registrykit/go-identity-sdk/did"
)

// Resolver resolves identifier strings back to documents.
type Resolver struct {
	cfg   *config.Config
	store DocumentStore
}

// NewResolver creates a Resolver over the given store.
func NewResolver(cfg *config.Config, store DocumentStore) *Resolver {
	return &Resolver{cfg: cfg, store: store}
}

// Resolve returns the document for an identifier. Identifiers under the
// configured web-DID prefix go through the web-resolution path; everything
// else is a direct record-store lookup.
func (r *Resolver) Resolve(ctx context.Context, id string) (*did.Document, error) {
	if r.cfg.WebDIDPrefix != "" && strings.HasPrefix(id, r.cfg.WebDIDPrefix) {
		return r.ResolveWeb(ctx, strings.TrimPrefix(id, r.cfg.WebDIDPrefix))
	}
	return r.lookup(ctx, id)
}

// ResolveWeb resolves a web DID from its suffix under the configured base
// prefix.
func (r *Resolver) ResolveWeb(ctx context.Context, suffix string) (*did.Document, error) {
	id, err := r.WebDIDForID(suffix)
	if err != nil {
		return nil, err
	}
	return r.lookup(ctx, id)
}

// WebDIDForID builds the full web DID for a suffix. Fails when no base
// prefix is configured.
func (r *Resolver) WebDIDForID(id string) (string, error) {
	if r.cfg == nil || r.cfg.WebDIDPrefix == "" {
		return "", apierrors.Configurationf("Web did base url not found")
	}
	return r.cfg.WebDIDPrefix + id, nil
}

func (r *Resolver) lookup(ctx context.Context, id string) (*did.Document, error) {
	doc, err := r.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := verifyDocumentHash(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// verifyDocumentHash recomputes the content hash stamped into document
// metadata at generation time and rejects documents that no longer match.
func verifyDocumentHash(doc *did.Document) error {
	if doc.DocumentMetadata == nil {
		return nil
	}
	stored, ok := doc.DocumentMetadata["hash"].(string)
	if !ok || stored == "" {
		return nil
	}

	unhashed := *doc
	unhashed.DocumentMetadata = nil
	computed, err := unhashed.Hash()
	if err != nil {
		return err
	}
	if computed != stored {
		return apierrors.Validationf("document %s failed its content hash check", doc.ID)
	}
	return nil
}
