package anthropic

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pico-voice/pico-skill/pkg/core"
)

// anthropicResponse matches the Messages API response format; only the text
// content blocks matter here.
type anthropicResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Role    string `json:"role"`
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// extractText concatenates the text blocks of the response.
func extractText(body []byte) (string, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// anthropicError is the error envelope returned by the API.
type anthropicError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// parseError maps an error response onto the core error taxonomy.
func (p *Provider) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var anthErr anthropicError
	if err := json.Unmarshal(body, &anthErr); err != nil {
		return core.NewProviderError("anthropic", fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}

	var errType core.ErrorType
	switch anthErr.Error.Type {
	case "invalid_request_error":
		errType = core.ErrInvalidRequest
	case "authentication_error", "permission_error":
		errType = core.ErrAuthentication
	case "rate_limit_error":
		errType = core.ErrRateLimit
	case "overloaded_error":
		errType = core.ErrOverloaded
	case "api_error":
		errType = core.ErrAPI
	default:
		errType = core.ErrProvider
	}

	return &core.Error{Type: errType, Message: anthErr.Error.Message}
}
