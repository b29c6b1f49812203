package anthropic

import (
	"strings"

	"github.com/pico-voice/pico-skill/pkg/core"
)

// anthropicRequest is the Messages API request format.
type anthropicRequest struct {
	Model       string        `json:"model"`
	Messages    []messageJSON `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

// messageJSON is the wire format for a message.
type messageJSON struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// buildRequest maps the provider-agnostic request onto the Messages API.
// System-role entries cannot appear in the message list; they are
// concatenated into the top-level system field in order.
func buildRequest(req *core.Request) *anthropicRequest {
	out := &anthropicRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if out.MaxTokens <= 0 {
		out.MaxTokens = DefaultMaxTokens
	}

	var system []string
	for _, m := range req.Messages {
		if m.Role == core.RoleSystem {
			if s := strings.TrimSpace(m.Content); s != "" {
				system = append(system, s)
			}
			continue
		}
		out.Messages = append(out.Messages, messageJSON{Role: m.Role, Content: m.Content})
	}
	out.System = strings.Join(system, "\n")
	return out
}
