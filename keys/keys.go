// Package keys generates key pairs and multibase-encoded public keys for the
// verification-key types supported by the identity service.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/multiformats/go-multibase"

	"github.com/registrykit/go-identity-sdk/apierrors"
)

// VerificationKeyType tags the cryptographic scheme of a verification method.
type VerificationKeyType string

// Supported verification-key types.
const (
	Ed25519VerificationKey2020        VerificationKeyType = "Ed25519VerificationKey2020"
	Ed25519VerificationKey2018        VerificationKeyType = "Ed25519VerificationKey2018"
	RsaVerificationKey2018            VerificationKeyType = "RsaVerificationKey2018"
	EcdsaSecp256k1VerificationKey2019 VerificationKeyType = "EcdsaSecp256k1VerificationKey2019"
)

// DefaultKeyType is used when a generation request names no key-pair type.
const DefaultKeyType = Ed25519VerificationKey2020

const rsaKeyBits = 2048

// ed25519Multicodec is the multicodec header for ed25519 public keys,
// required by the Ed25519VerificationKey2020 suite.
var ed25519Multicodec = []byte{0xed, 0x01}

// Material is the result of generating a key pair.
//
// PrivateKeyHex is handed to the secret vault by the caller and must never
// be logged or returned to a client-facing layer.
type Material struct {
	VerificationMethodType VerificationKeyType
	PublicKeyMultibase     string
	PrivateKeyHex          string
}

// Generate produces key material for the requested verification-key type.
// An empty type selects DefaultKeyType; an unknown type fails with a
// validation error.
func Generate(keyType VerificationKeyType) (*Material, error) {
	if keyType == "" {
		keyType = DefaultKeyType
	}

	switch keyType {
	case Ed25519VerificationKey2020, Ed25519VerificationKey2018:
		return generateEd25519(keyType)
	case RsaVerificationKey2018:
		return generateRSA()
	case EcdsaSecp256k1VerificationKey2019:
		return generateSecp256k1()
	default:
		return nil, apierrors.Validationf("unsupported key pair type: %s", keyType)
	}
}

func generateEd25519(keyType VerificationKeyType) (*Material, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}

	keyBytes := []byte(pub)
	if keyType == Ed25519VerificationKey2020 {
		keyBytes = append(append([]byte{}, ed25519Multicodec...), keyBytes...)
	}

	encoded, err := multibase.Encode(multibase.Base58BTC, keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode public key: %w", err)
	}

	return &Material{
		VerificationMethodType: keyType,
		PublicKeyMultibase:     encoded,
		PrivateKeyHex:          "0x" + hex.EncodeToString(priv),
	}, nil
}

func generateRSA() (*Material, error) {
	priv, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate rsa key: %w", err)
	}

	pubBytes, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rsa public key: %w", err)
	}
	privBytes, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rsa private key: %w", err)
	}

	encoded, err := multibase.Encode(multibase.Base58BTC, pubBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode public key: %w", err)
	}

	return &Material{
		VerificationMethodType: RsaVerificationKey2018,
		PublicKeyMultibase:     encoded,
		PrivateKeyHex:          "0x" + hex.EncodeToString(privBytes),
	}, nil
}

func generateSecp256k1() (*Material, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate secp256k1 key: %w", err)
	}

	encoded, err := multibase.Encode(multibase.Base58BTC, priv.PubKey().SerializeCompressed())
	if err != nil {
		return nil, fmt.Errorf("failed to encode public key: %w", err)
	}

	return &Material{
		VerificationMethodType: EcdsaSecp256k1VerificationKey2019,
		PublicKeyMultibase:     encoded,
		PrivateKeyHex:          "0x" + hex.EncodeToString(priv.Serialize()),
	}, nil
}
