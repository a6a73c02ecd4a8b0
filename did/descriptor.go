package did

import "github.com/registrykit/go-identity-sdk/keys"

// GenerateDescriptor is the input to DID creation. The same shape is posted
// verbatim to a ledger agent when the method requires anchoring.
type GenerateDescriptor struct {
	// Method selects the generation strategy. Empty means the configured
	// default tag; "web" selects the web-hosted strategy and never touches
	// a ledger.
	Method string `json:"method,omitempty"`
	// Services are copied unchanged into the generated document.
	Services []Service `json:"services,omitempty"`
	// AlsoKnownAs is copied verbatim into the generated document.
	AlsoKnownAs []string `json:"alsoKnownAs,omitempty"`
	// KeyPairType selects the verification-key type; empty means the
	// default type.
	KeyPairType keys.VerificationKeyType `json:"keyPairType,omitempty"`
	// WebDIDBaseURL overrides the configured web-DID base prefix for this
	// request. Only meaningful when Method is "web".
	WebDIDBaseURL string `json:"webDidBaseUrl,omitempty"`
	// ID is an explicit identifier override.
	ID string `json:"id,omitempty"`
}
