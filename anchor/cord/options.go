package cord

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/registrykit/go-identity-sdk/config"
)

// Option is a functional option type for configuring the Client.
type Option func(*Client)

// WithHTTPClient replaces the transport client. Timeout and cancellation are
// the responsibility of the supplied client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient creates a CORD anchoring client from the process configuration.
//
// The default transport is instrumented with otelhttp and bounded by the
// configured HTTP timeout.
func NewClient(cfg *config.Config, options ...Option) *Client {
	c := &Client{
		agentBaseURL:  cfg.IssuerAgentBaseURL,
		verifyBaseURL: cfg.VerificationBaseURL,
		httpClient: &http.Client{
			Timeout:   cfg.HTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}

	for _, opt := range options {
		opt(c)
	}
	return c
}
