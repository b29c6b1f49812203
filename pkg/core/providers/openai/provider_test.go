package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pico-voice/pico-skill/pkg/core"
)

func testRequest() *core.Request {
	return &core.Request{
		Model: "gpt-test",
		Messages: []core.ChatMessage{
			{Role: core.RoleSystem, Content: "persona"},
			{Role: core.RoleUser, Content: "question"},
		},
	}
}

func TestCreateMessageSendsChatCompletionsRequest(t *testing.T) {
	t.Parallel()

	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer srv.Close()

	p := New("test-key", WithBaseURL(srv.URL))
	text, err := p.CreateMessage(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if text != "hello" {
		t.Errorf("text = %q", text)
	}
	if got.Model != "gpt-test" || len(got.Messages) != 2 {
		t.Errorf("request = %+v", got)
	}
	if got.MaxTokens != DefaultMaxTokens {
		t.Errorf("max_tokens = %d, want default %d", got.MaxTokens, DefaultMaxTokens)
	}
}

func TestExtractTextEnvelopePriority(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "output_text wins over choices",
			body: `{"output_text":"top level","choices":[{"message":{"content":"from choices"}}]}`,
			want: "top level",
		},
		{
			name: "choices win over output",
			body: `{"choices":[{"message":{"content":"from choices"}}],"output":[{"type":"message","content":[{"type":"text","text":"from output"}]}]}`,
			want: "from choices",
		},
		{
			name: "output blocks concatenate",
			body: `{"output":[{"type":"message","content":[{"type":"output_text","text":"part one "},{"type":"text","text":"part two"}]}]}`,
			want: "part one part two",
		},
		{
			name: "non-message output items skipped",
			body: `{"output":[{"type":"reasoning","content":[{"type":"text","text":"hidden"}]},{"type":"message","content":[{"type":"text","text":"visible"}]}]}`,
			want: "visible",
		},
		{
			name: "nothing usable",
			body: `{"id":"x"}`,
			want: "",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := extractText([]byte(tc.body))
			if err != nil {
				t.Fatalf("extractText: %v", err)
			}
			if got != tc.want {
				t.Errorf("extractText = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCreateMessageMapsErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		body   string
		want   core.ErrorType
	}{
		{http.StatusTooManyRequests, `{"error":{"type":"rate_limit_error","message":"slow down"}}`, core.ErrRateLimit},
		{http.StatusUnauthorized, `{"error":{"type":"invalid_api_key","message":"bad key"}}`, core.ErrAuthentication},
		{http.StatusInternalServerError, `{"error":{"type":"server_error","message":"boom"}}`, core.ErrAPI},
		{http.StatusBadRequest, `{"error":{"type":"invalid_request_error","message":"bad"}}`, core.ErrInvalidRequest},
	}
	for _, tc := range cases {
		tc := tc
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			w.Write([]byte(tc.body))
		}))

		p := New("k", WithBaseURL(srv.URL))
		_, err := p.CreateMessage(context.Background(), testRequest())
		srv.Close()

		var apiErr *core.Error
		if !errors.As(err, &apiErr) {
			t.Fatalf("status %d: error = %v, want *core.Error", tc.status, err)
		}
		if apiErr.Type != tc.want {
			t.Errorf("status %d: type = %q, want %q", tc.status, apiErr.Type, tc.want)
		}
	}
}

func TestCreateMessageNonJSONErrorBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream gone"))
	}))
	defer srv.Close()

	p := New("k", WithBaseURL(srv.URL))
	_, err := p.CreateMessage(context.Background(), testRequest())

	var apiErr *core.Error
	if !errors.As(err, &apiErr) || apiErr.Type != core.ErrProvider {
		t.Errorf("error = %v, want provider_error", err)
	}
}
