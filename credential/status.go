package credential

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/registrykit/go-identity-sdk/config"
)

// StatusClient fetches status-list credentials and checks revocation bits.
type StatusClient struct {
	httpClient *http.Client
}

// NewStatusClient creates a status client using the configured HTTP timeout.
func NewStatusClient(cfg *config.Config) *StatusClient {
	return &StatusClient{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// statusListResponse models the credential returned by a status list
// endpoint. Only the fields needed for revocation checks are typed.
type statusListResponse struct {
	Data struct {
		CredentialSubject statusListSubject `json:"credentialSubject"`
	} `json:"data"`
}

type statusListSubject struct {
	EncodedList   string `json:"encodedList"`
	StatusPurpose string `json:"statusPurpose"`
}

// IsRevoked checks a credentialStatus entry against its status list. The
// entry must carry a statusListCredential URL and a statusListIndex.
func (c *StatusClient) IsRevoked(ctx context.Context, statusEntry map[string]any) (bool, error) {
	listURL, _ := statusEntry["statusListCredential"].(string)
	if listURL == "" {
		return false, fmt.Errorf("credentialStatus has no statusListCredential URL")
	}
	position, err := statusIndex(statusEntry)
	if err != nil {
		return false, err
	}

	subject, err := c.fetchStatusList(ctx, listURL)
	if err != nil {
		return false, err
	}

	// Only revocation lists are handled here.
	if subject.StatusPurpose != "revocation" {
		return false, nil
	}

	bits, err := decodeEncodedList(subject.EncodedList)
	if err != nil {
		return false, err
	}

	byteIndex := position / 8
	bitIndex := position % 8
	if byteIndex >= len(bits) {
		return false, fmt.Errorf("status position %d is outside the status list", position)
	}
	return (bits[byteIndex]>>bitIndex)&1 == 1, nil
}

func (c *StatusClient) fetchStatusList(ctx context.Context, listURL string) (*statusListSubject, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status list request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call status list credential endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status list credential API returned non-200 status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read status list credential response body: %w", err)
	}

	var result statusListResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status list credential JSON: %w", err)
	}
	return &result.Data.CredentialSubject, nil
}

// decodeEncodedList decodes the base64url, gzip-compressed bitstring of a
// status list credential.
func decodeEncodedList(encoded string) ([]byte, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode status list bitstring: %w", err)
	}

	gz, err := gzip.NewReader(bytes.NewBuffer(compressed))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress status list bitstring: %w", err)
	}
	defer gz.Close()

	return io.ReadAll(gz)
}

func statusIndex(statusEntry map[string]any) (int, error) {
	switch v := statusEntry["statusListIndex"].(type) {
	case float64:
		return int(v), nil
	case string:
		var position int
		if _, err := fmt.Sscanf(v, "%d", &position); err != nil {
			return 0, fmt.Errorf("invalid statusListIndex %q", v)
		}
		return position, nil
	default:
		return 0, fmt.Errorf("credentialStatus has no statusListIndex")
	}
}
