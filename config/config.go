// Package config holds the process-wide configuration consumed by the SDK.
//
// Configuration is constructed once at process start and passed into each
// component constructor; no component reads ambient environment state
// directly.
package config

import (
	"strings"
	"time"
)

// Default configuration constants.
//
// These values can be overridden using configuration options when creating
// a Config instance.
const (
	// DefaultMethod is the short method tag used when a generation request
	// carries no method of its own (e.g. "did:rcw:<suffix>").
	DefaultMethod = "rcw"
	// DefaultHTTPTimeout bounds every call to the issuer agent and the
	// verification middleware.
	DefaultHTTPTimeout = 10 * time.Second
)

// Config holds configuration for identity, schema, and credential operations.
//
// Important notes:
//   - IssuerAgentBaseURL is required for any ledger-anchored operation.
//   - VerificationBaseURL is required for credential verification.
//   - WebDIDPrefix is required for web-DID generation and resolution unless
//     the generation request supplies its own base URL.
type Config struct {
	// IssuerAgentBaseURL is the base URL of the ledger issuer agent.
	IssuerAgentBaseURL string
	// VerificationBaseURL is the base URL of the verification middleware.
	VerificationBaseURL string
	// WebDIDPrefix is the base prefix for web DIDs
	// (e.g. "did:web:example.com:identity:").
	WebDIDPrefix string
	// DefaultMethod is the method tag applied when a generation request has
	// no method. Defaults to DefaultMethod.
	DefaultMethod string
	// HTTPTimeout bounds outbound HTTP calls. Defaults to DefaultHTTPTimeout.
	HTTPTimeout time.Duration
}

// Option is a functional option type for configuring Config.
type Option func(*Config)

// New creates a Config with defaults applied, then runs the given options.
func New(options ...Option) *Config {
	cfg := &Config{
		DefaultMethod: DefaultMethod,
		HTTPTimeout:   DefaultHTTPTimeout,
	}
	for _, opt := range options {
		opt(cfg)
	}
	return cfg
}

// WithIssuerAgentBaseURL sets the issuer agent base URL.
func WithIssuerAgentBaseURL(u string) Option {
	return func(c *Config) { c.IssuerAgentBaseURL = strings.TrimSuffix(u, "/") }
}

// WithVerificationBaseURL sets the verification middleware base URL.
func WithVerificationBaseURL(u string) Option {
	return func(c *Config) { c.VerificationBaseURL = strings.TrimSuffix(u, "/") }
}

// WithWebDIDPrefix sets the web-DID base prefix.
func WithWebDIDPrefix(p string) Option {
	return func(c *Config) { c.WebDIDPrefix = p }
}

// WithDefaultMethod sets the method tag used when a request has none.
func WithDefaultMethod(m string) Option {
	return func(c *Config) { c.DefaultMethod = m }
}

// WithHTTPTimeout sets the outbound HTTP timeout.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Config) { c.HTTPTimeout = d }
}
