// Package openai implements the OpenAI Chat Completions provider. Response
// text extraction tolerates both the Chat Completions envelope and the
// Responses API envelope, which the same nominal API family has shipped at
// different times.
package openai

import (
	"context"
	"net/http"

	"github.com/pico-voice/pico-skill/pkg/core"
)

const (
	// DefaultBaseURL is the default OpenAI API endpoint.
	DefaultBaseURL = "https://api.openai.com"

	// DefaultMaxTokens keeps voice answers short.
	DefaultMaxTokens = 120
)

// Provider implements core.Provider against the OpenAI API.
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

// New creates a new OpenAI provider.
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
	return "openai"
}

// CreateMessage sends one request to OpenAI and extracts the answer text.
func (p *Provider) CreateMessage(ctx context.Context, req *core.Request) (string, error) {
	chatReq := buildRequest(req)

	respBody, err := p.doRequest(ctx, chatReq)
	if err != nil {
		return "", err
	}

	return extractText(respBody)
}
