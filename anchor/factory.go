package anchor

import "github.com/registrykit/go-identity-sdk/apierrors"

// Method tags a ledger backend.
type Method string

// MethodCord is the only ledger backend currently shipped.
const MethodCord Method = "cord"

// Factory resolves a Backend by method name. It is pure dispatch over a
// fixed, closed set of tags: extending to a new ledger means adding one case
// here and one Backend implementation, never modifying callers.
type Factory struct {
	cord Backend
}

// NewFactory creates a Factory over the given CORD backend.
func NewFactory(cord Backend) *Factory {
	return &Factory{cord: cord}
}

// GetBackend resolves the backend for a method name.
//
// An absent or empty method returns (nil, nil) to signal that no anchoring
// was requested; any other unknown value is an unsupported-method error.
func (f *Factory) GetBackend(method string) (Backend, error) {
	if method == "" {
		return nil, nil
	}

	switch Method(method) {
	case MethodCord:
		return f.cord, nil
	default:
		return nil, apierrors.UnsupportedMethodf("unsupported blockchain method: %s", method)
	}
}
