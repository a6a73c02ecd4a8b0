// Package identity issues and resolves DID documents.
//
// Generation selects one of three mutually exclusive strategies by method:
// key-derived with the configured default tag, ledger-anchored through a
// blockchain backend, or web-hosted with no ledger interaction.
package identity

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/registrykit/go-identity-sdk/anchor"
	"github.com/registrykit/go-identity-sdk/apierrors"
	"github.com/registrykit/go-identity-sdk/config"
	"github.com/registrykit/go-identity-sdk/did"
	"github.com/registrykit/go-identity-sdk/keys"
	"github.com/registrykit/go-identity-sdk/vault"
)

// DocumentStore persists and retrieves DID documents, keyed by DID string.
type DocumentStore interface {
	SaveDocument(ctx context.Context, doc *did.Document) error
	GetDocument(ctx context.Context, id string) (*did.Document, error)
}

// Generator builds DID documents.
type Generator struct {
	cfg     *config.Config
	factory *anchor.Factory
	store   DocumentStore
	vault   vault.Vault
}

// NewGenerator creates a Generator over the given collaborators.
func NewGenerator(cfg *config.Config, factory *anchor.Factory, store DocumentStore, v vault.Vault) *Generator {
	return &Generator{cfg: cfg, factory: factory, store: store, vault: v}
}

// GenerateDID builds, secures, and persists a DID document for the
// descriptor.
//
// Key material never leaves this call: it is written to the vault before the
// record store write is attempted. For ledger-anchored methods the ledger
// write happens first; a vault or persistence failure after a successful
// anchor still fails the overall call and is not compensated.
func (g *Generator) GenerateDID(ctx context.Context, descriptor *did.GenerateDescriptor) (*did.Document, error) {
	if descriptor == nil {
		return nil, apierrors.Validationf("generation descriptor is required")
	}

	var (
		doc *did.Document
		err error
	)

	switch {
	case descriptor.Method == "web":
		doc, err = g.generateWebDID(ctx, descriptor)
	default:
		// Anchoring applies to any method the factory accepts; every other
		// tag falls back to the key-derived strategy with that tag in the
		// identifier.
		backend, factoryErr := g.factory.GetBackend(descriptor.Method)
		if backend != nil && factoryErr == nil {
			doc, err = g.generateAnchoredDID(ctx, descriptor, backend)
		} else {
			doc, err = g.generateKeyDerivedDID(ctx, descriptor)
		}
	}
	if err != nil {
		return nil, err
	}

	if err := g.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to persist DID document %s: %w", doc.ID, err)
	}

	glog.V(1).Infof("generated DID %s", doc.ID)
	return doc, nil
}

// generateKeyDerivedDID implements the default strategy: a fresh key pair
// and a deterministic identifier under the requested (or default) short
// method tag. No network call.
func (g *Generator) generateKeyDerivedDID(ctx context.Context, descriptor *did.GenerateDescriptor) (*did.Document, error) {
	tag := descriptor.Method
	if tag == "" {
		tag = g.defaultMethod()
	}

	material, err := keys.Generate(descriptor.KeyPairType)
	if err != nil {
		return nil, err
	}

	id := descriptor.ID
	if id == "" {
		id = fmt.Sprintf("did:%s:%s", tag, uuid.NewString())
	}

	return g.assembleAndSecure(ctx, id, material, descriptor)
}

// generateAnchoredDID implements the ledger strategy: the backend's document
// is taken verbatim and the returned mnemonic and delegate keys go to the
// vault before anything is persisted.
func (g *Generator) generateAnchoredDID(ctx context.Context, descriptor *did.GenerateDescriptor, backend anchor.Backend) (*did.Document, error) {
	result, err := backend.AnchorDID(ctx, descriptor)
	if err != nil {
		return nil, err
	}
	if result == nil || result.Document == nil {
		return nil, apierrors.New(apierrors.KindAnchor, "ledger returned no DID document")
	}
	if err := result.Document.Validate(); err != nil {
		glog.Errorf("ledger returned an invalid DID document: %v", err)
		return nil, apierrors.Wrap(apierrors.KindValidation, err, "ledger returned an invalid DID document")
	}

	secret := map[string]any{
		"mnemonic":     result.Mnemonic,
		"delegateKeys": result.DelegateKeys,
	}
	if err := g.vault.StoreSecret(ctx, result.Document.ID, secret); err != nil {
		// The ledger write already happened; the anchor is not rolled back.
		glog.Errorf("failed to store ledger key material for %s: %v", result.Document.ID, err)
		return nil, apierrors.Vault(err, "failed to store ledger key material for %s", result.Document.ID)
	}

	return result.Document, nil
}

// generateWebDID implements the web-hosted strategy: identifier from the
// resolvable base prefix plus an explicit override or fresh suffix. No
// ledger interaction.
func (g *Generator) generateWebDID(ctx context.Context, descriptor *did.GenerateDescriptor) (*did.Document, error) {
	prefix := g.cfg.WebDIDPrefix
	if descriptor.WebDIDBaseURL != "" {
		p, err := WebDIDPrefixFromURL(descriptor.WebDIDBaseURL)
		if err != nil {
			return nil, err
		}
		prefix = p
	}
	if prefix == "" {
		return nil, apierrors.Configurationf("Web did base url not found")
	}

	material, err := keys.Generate(descriptor.KeyPairType)
	if err != nil {
		return nil, err
	}

	var id string
	switch {
	case strings.HasPrefix(descriptor.ID, "did:web:"):
		id = descriptor.ID
	case descriptor.ID != "":
		id = prefix + descriptor.ID
	default:
		id = prefix + uuid.NewString()
	}

	return g.assembleAndSecure(ctx, id, material, descriptor)
}

// assembleAndSecure builds the document around one verification method and
// hands the private material to the vault.
func (g *Generator) assembleAndSecure(ctx context.Context, id string, material *keys.Material, descriptor *did.GenerateDescriptor) (*did.Document, error) {
	keyID := id + "#key-0"

	doc := &did.Document{
		Context:     did.DefaultContext,
		ID:          id,
		AlsoKnownAs: descriptor.AlsoKnownAs,
		Service:     descriptor.Services,
		VerificationMethod: []did.VerificationMethod{{
			ID:                 keyID,
			Type:               string(material.VerificationMethodType),
			Controller:         id,
			PublicKeyMultibase: material.PublicKeyMultibase,
		}},
		Authentication:  []string{keyID},
		AssertionMethod: []string{keyID},
	}

	hash, err := doc.Hash()
	if err != nil {
		return nil, err
	}
	doc.DocumentMetadata = map[string]any{"hash": hash}

	secret := map[string]any{
		"privateKey": material.PrivateKeyHex,
		"keyType":    string(material.VerificationMethodType),
	}
	if err := g.vault.StoreSecret(ctx, id, secret); err != nil {
		glog.Errorf("failed to store key material for %s: %v", id, err)
		return nil, apierrors.Vault(err, "failed to store key material for %s", id)
	}

	return doc, nil
}

func (g *Generator) defaultMethod() string {
	if g.cfg != nil && g.cfg.DefaultMethod != "" {
		return g.cfg.DefaultMethod
	}
	return config.DefaultMethod
}

// WebDIDPrefixFromURL converts a hosted base URL into a web-DID base prefix,
// e.g. "https://registry.example.com/identity" becomes
// "did:web:registry.example.com:identity:".
func WebDIDPrefixFromURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return "", apierrors.Validationf("invalid web DID base url: %s", baseURL)
	}

	prefix := "did:web:" + u.Host
	path := strings.Trim(u.Path, "/")
	if path != "" {
		prefix += ":" + strings.ReplaceAll(path, "/", ":")
	}
	return prefix + ":", nil
}
