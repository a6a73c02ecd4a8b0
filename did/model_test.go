package did_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/registrykit/go-identity-sdk/did"
)

func validDocument() *did.Document {
	return &did.Document{
		ID: "did:rcw:1",
		VerificationMethod: []did.VerificationMethod{{
			ID:                 "did:rcw:1#key-0",
			Type:               "Ed25519VerificationKey2020",
			Controller:         "did:rcw:1",
			PublicKeyMultibase: "zABC",
		}},
		Authentication:  []string{"did:rcw:1#key-0"},
		AssertionMethod: []string{"did:rcw:1#key-0"},
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validDocument().Validate())
}

func TestValidateMissingID(t *testing.T) {
	doc := validDocument()
	doc.ID = ""
	assert.Error(t, doc.Validate())
}

func TestValidateEmptyPublicKey(t *testing.T) {
	doc := validDocument()
	doc.VerificationMethod[0].PublicKeyMultibase = ""
	assert.Error(t, doc.Validate())
}

func TestValidateDanglingReference(t *testing.T) {
	doc := validDocument()
	doc.Authentication = []string{"did:rcw:1#key-9"}
	assert.Error(t, doc.Validate())
}

func TestValidateExternalReference(t *testing.T) {
	doc := validDocument()
	doc.KeyAgreement = []string{"did:rcw:other#key-0"}
	assert.NoError(t, doc.Validate())
}

func TestHashIsStable(t *testing.T) {
	doc := validDocument()

	first, err := doc.Hash()
	require.NoError(t, err)
	second, err := doc.Hash()
	require.NoError(t, err)

	assert.Equal(t, first, second)

	doc.VerificationMethod[0].PublicKeyMultibase = "zDEF"
	third, err := doc.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}
