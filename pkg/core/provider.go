package core

import "context"

// Message roles on the upstream wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry of the prompt sent upstream.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the provider-agnostic upstream request. Each provider maps it
// onto its own wire format.
type Request struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature *float64
}

// Provider is a single upstream LLM service.
type Provider interface {
	// Name returns the provider identifier (e.g. "anthropic", "openai").
	Name() string

	// CreateMessage sends one non-streaming request and extracts the
	// response text. An empty string with a nil error means the upstream
	// answered with no usable text.
	CreateMessage(ctx context.Context, req *Request) (string, error)
}

// ProviderRegistry manages the configured providers.
type ProviderRegistry interface {
	Register(provider Provider)
	Get(name string) (Provider, bool)
	List() []string
}

type defaultRegistry struct {
	providers map[string]Provider
}

// NewProviderRegistry creates an empty provider registry.
func NewProviderRegistry() ProviderRegistry {
	return &defaultRegistry{providers: make(map[string]Provider)}
}

func (r *defaultRegistry) Register(provider Provider) {
	r.providers[provider.Name()] = provider
}

func (r *defaultRegistry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

func (r *defaultRegistry) List() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
