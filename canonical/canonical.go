// Package canonical provides JSON-LD canonicalization and digest helpers
// used for document hashing and credential tamper checks.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/piprate/json-gold/ld"
)

// defaultDocumentLoader is a shared caching loader to prevent repeated
// remote context fetches across calls.
var defaultDocumentLoader ld.DocumentLoader

func init() {
	innerLoader := ld.NewDefaultDocumentLoader(nil)
	defaultDocumentLoader = ld.NewCachingDocumentLoader(innerLoader)
}

// CanonicalizeDocument canonicalizes a document using URDNA2015 and returns
// the normalized n-quads representation.
func CanonicalizeDocument(doc map[string]any) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("failed to canonicalize document: document is nil")
	}

	processor := ld.NewJsonLdProcessor()
	options := ld.NewJsonLdOptions("")
	options.Format = "application/n-quads"
	options.Algorithm = ld.AlgorithmURDNA2015
	options.DocumentLoader = defaultDocumentLoader

	canonicalized, err := processor.Normalize(doc, options)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize document: %w", err)
	}

	return []byte(canonicalized.(string)), nil
}

// DigestDocument canonicalizes a JSON-LD document with URDNA2015 and returns
// the lowercase hex SHA-256 digest of the normalized form. Two documents that
// differ only in key order or in equivalent context framings share a digest.
func DigestDocument(doc map[string]any) (string, error) {
	normalized, err := CanonicalizeDocument(doc)
	if err != nil {
		return "", err
	}

	digest, err := ComputeDigest(normalized)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(digest), nil
}

// ComputeDigest computes the SHA-256 digest of the input data.
func ComputeDigest(data []byte) ([]byte, error) {
	if data == nil {
		return nil, fmt.Errorf("failed to compute digest: input data is nil")
	}
	hash := sha256.Sum256(data)
	return hash[:], nil
}

// HashDocument marshals a value to JSON, canonicalizes the key order, and
// returns the lowercase hex Keccak256 hash of the result.
//
// Canonicalization here is plain-JSON rather than JSON-LD so documents
// without remote contexts hash deterministically and without network access.
func HashDocument(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	// Round-trip through a map so key order is canonical.
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", fmt.Errorf("failed to decode document: %w", err)
	}
	toHash, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to re-encode document: %w", err)
	}

	hash := crypto.Keccak256Hash(toHash)
	return strings.ToLower(hash.Hex()), nil
}
