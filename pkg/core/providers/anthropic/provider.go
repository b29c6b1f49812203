// Package anthropic implements the Claude Messages API provider.
package anthropic

import (
	"context"
	"net/http"

	"github.com/pico-voice/pico-skill/pkg/core"
)

const (
	// DefaultBaseURL is the default Anthropic API endpoint.
	DefaultBaseURL = "https://api.anthropic.com"

	// APIVersion is the required Anthropic API version header.
	APIVersion = "2023-06-01"

	// DefaultMaxTokens keeps voice answers short.
	DefaultMaxTokens = 60
)

// Provider implements core.Provider against the Anthropic Messages API.
type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(p *Provider) { p.baseURL = url }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// New creates a new Anthropic provider.
func New(apiKey string, opts ...Option) *Provider {
	p := &Provider{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "anthropic"
}

// CreateMessage sends one request to Anthropic and extracts the answer text.
// System-role prompt entries are lifted into the request's system field, as
// the Messages API requires.
func (p *Provider) CreateMessage(ctx context.Context, req *core.Request) (string, error) {
	anthReq := buildRequest(req)

	respBody, err := p.doRequest(ctx, anthReq)
	if err != nil {
		return "", err
	}

	return extractText(respBody)
}
