package openai

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pico-voice/pico-skill/pkg/core"
)

// chatResponse covers both envelope shapes this API family has shipped:
// the Chat Completions "choices" shape and the Responses API "output"
// shape, plus the convenience top-level output_text field.
type chatResponse struct {
	ID         string `json:"id"`
	Model      string `json:"model"`
	OutputText string `json:"output_text"`
	Choices    []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// extractText pulls the answer text out of the response, falling through
// the known envelope shapes in fixed priority order: output_text first,
// then choices[0].message.content, then output[].content[].text. No match
// yields "" and a nil error; the dispatcher treats that as a failure.
func extractText(body []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if s := strings.TrimSpace(resp.OutputText); s != "" {
		return s, nil
	}

	if len(resp.Choices) > 0 {
		if s := strings.TrimSpace(resp.Choices[0].Message.Content); s != "" {
			return s, nil
		}
	}

	var b strings.Builder
	for _, item := range resp.Output {
		if item.Type != "" && item.Type != "message" {
			continue
		}
		for _, c := range item.Content {
			if c.Type == "" || c.Type == "text" || c.Type == "output_text" {
				b.WriteString(c.Text)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// openaiError is the error envelope returned by the API.
type openaiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// parseError maps an error response onto the core error taxonomy.
func (p *Provider) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var oaErr openaiError
	if err := json.Unmarshal(body, &oaErr); err != nil || oaErr.Error.Message == "" {
		return core.NewProviderError("openai", fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}

	var errType core.ErrorType
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		errType = core.ErrRateLimit
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		errType = core.ErrAuthentication
	case resp.StatusCode >= 500:
		errType = core.ErrAPI
	case oaErr.Error.Type == "invalid_request_error":
		errType = core.ErrInvalidRequest
	default:
		errType = core.ErrProvider
	}

	return &core.Error{Type: errType, Message: oaErr.Error.Message, Code: oaErr.Error.Code}
}
