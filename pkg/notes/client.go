package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	// DefaultBaseURL is the default Notion API endpoint.
	DefaultBaseURL = "https://api.notion.com"

	// DefaultVersion is the Notion-Version header value.
	DefaultVersion = "2022-06-28"

	// BlockChunkRunes is the per-block body limit; longer content is split
	// into multiple paragraph blocks.
	BlockChunkRunes = 2000

	// blocksPageSize bounds how many child blocks one read fetches.
	blocksPageSize = 20
)

// textBlockTypes are the block types whose rich_text is read back as body
// text.
var textBlockTypes = map[string]bool{
	"paragraph": true, "heading_1": true, "heading_2": true, "heading_3": true,
	"to_do": true, "bulleted_list_item": true, "numbered_list_item": true,
	"quote": true, "callout": true, "toggle": true,
}

// Client talks to the Notion REST API.
type Client struct {
	token      string
	version    string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithVersion overrides the Notion-Version header.
func WithVersion(v string) Option {
	return func(c *Client) { c.version = v }
}

// WithHTTPClient overrides the HTTP client. The client's timeout is the
// call bound; there is no retrying.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a note-service client.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		version:    DefaultVersion,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Content-Type", "application/json")
}

// Search returns up to limit pages, most recently edited first.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]PageRef, error) {
	if limit <= 0 {
		limit = 3
	}
	payload := map[string]any{
		"query":     query,
		"page_size": limit,
		"filter":    map[string]string{"value": "page", "property": "object"},
		"sort":      map[string]string{"direction": "descending", "timestamp": "last_edited_time"},
	}

	var out struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := c.post(ctx, "/v1/search", payload, &out); err != nil {
		return nil, err
	}

	refs := make([]PageRef, 0, limit)
	for _, raw := range out.Results {
		if len(refs) == limit {
			break
		}
		var page struct {
			Object     string                     `json:"object"`
			ID         string                     `json:"id"`
			URL        string                     `json:"url"`
			Properties map[string]json.RawMessage `json:"properties"`
		}
		if err := json.Unmarshal(raw, &page); err != nil || page.Object != "page" {
			continue
		}
		refs = append(refs, PageRef{ID: page.ID, Title: pageTitle(page.Properties), URL: page.URL})
	}
	return refs, nil
}

// ReadFirstText returns the page's leading text, blocks joined with a
// separator, capped at maxChars runes.
func (c *Client) ReadFirstText(ctx context.Context, pageID string, maxChars int) (string, error) {
	if maxChars <= 0 {
		maxChars = 300
	}
	path := fmt.Sprintf("/v1/blocks/%s/children?page_size=%d", pageID, blocksPageSize)

	var out struct {
		Results []blockJSON `json:"results"`
	}
	if err := c.get(ctx, path, &out); err != nil {
		return "", err
	}

	var lines []string
	total := 0
	for _, b := range out.Results {
		t := strings.TrimSpace(b.plainText())
		if t == "" {
			continue
		}
		lines = append(lines, t)
		total += len([]rune(t))
		// Fetch slightly past the cap so the final truncation has a full
		// last line to cut.
		if total >= maxChars*3/2 {
			break
		}
	}
	joined := strings.Join(lines, " ／ ")
	if r := []rune(joined); len(r) > maxChars {
		joined = string(r[:maxChars])
	}
	return joined, nil
}

// CreatePage creates a page under parentID; bodies past BlockChunkRunes are
// split into multiple paragraph blocks.
func (c *Client) CreatePage(ctx context.Context, title, content, parentID string) WriteResult {
	payload := map[string]any{
		"parent": map[string]string{"page_id": parentID},
		"properties": map[string]any{
			"title": map[string]any{"title": richText(title)},
		},
		"children": paragraphBlocks(content),
	}
	return c.createWith(ctx, payload)
}

// AddDatabaseEntry appends a titled entry to a database.
func (c *Client) AddDatabaseEntry(ctx context.Context, title, content, databaseID string) WriteResult {
	payload := map[string]any{
		"parent": map[string]string{"database_id": databaseID},
		"properties": map[string]any{
			"Name": map[string]any{"title": richText(title)},
		},
		"children": paragraphBlocks(content),
	}
	return c.createWith(ctx, payload)
}

func (c *Client) createWith(ctx context.Context, payload map[string]any) WriteResult {
	var out struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := c.post(ctx, "/v1/pages", payload, &out); err != nil {
		return WriteResult{Error: Classify(err)}
	}
	return WriteResult{Success: true, PageID: out.ID, URL: out.URL}
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	c.setHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("notes api status %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Classify turns a transport error into the short classifier spoken back
// to the user on note-service failures.
func Classify(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "status 401"), strings.Contains(msg, "status 403"):
		return "unauthorized"
	case strings.Contains(msg, "status 404"):
		return "not_found"
	case strings.Contains(msg, "status 429"):
		return "rate_limited"
	case strings.Contains(msg, "context deadline exceeded"),
		strings.Contains(msg, "Client.Timeout"):
		return "timeout"
	default:
		return "api_error"
	}
}

// blockJSON decodes just enough of a block to recover its plain text.
type blockJSON struct {
	Type string `json:"type"`

	raw map[string]json.RawMessage
}

func (b *blockJSON) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if t, ok := m["type"]; ok {
		if err := json.Unmarshal(t, &b.Type); err != nil {
			return err
		}
	}
	b.raw = m
	return nil
}

func (b *blockJSON) plainText() string {
	if !textBlockTypes[b.Type] {
		return ""
	}
	payload, ok := b.raw[b.Type]
	if !ok {
		return ""
	}
	var inner struct {
		RichText []struct {
			PlainText string `json:"plain_text"`
		} `json:"rich_text"`
	}
	if err := json.Unmarshal(payload, &inner); err != nil {
		return ""
	}
	var sb strings.Builder
	for _, r := range inner.RichText {
		sb.WriteString(r.PlainText)
	}
	return sb.String()
}

// pageTitle digs the title property out of a page's property map.
func pageTitle(props map[string]json.RawMessage) string {
	for _, raw := range props {
		var p struct {
			Type  string `json:"type"`
			Title []struct {
				PlainText string `json:"plain_text"`
			} `json:"title"`
		}
		if err := json.Unmarshal(raw, &p); err != nil || p.Type != "title" {
			continue
		}
		var sb strings.Builder
		for _, seg := range p.Title {
			sb.WriteString(seg.PlainText)
		}
		if t := strings.TrimSpace(sb.String()); t != "" {
			return t
		}
	}
	return "無題"
}

// richText wraps a string as a one-element rich_text array.
func richText(s string) []map[string]any {
	return []map[string]any{
		{"text": map[string]string{"content": s}},
	}
}

// paragraphBlocks splits content into paragraph blocks of at most
// BlockChunkRunes runes each.
func paragraphBlocks(content string) []map[string]any {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	r := []rune(content)
	blocks := make([]map[string]any, 0, len(r)/BlockChunkRunes+1)
	for len(r) > 0 {
		n := BlockChunkRunes
		if n > len(r) {
			n = len(r)
		}
		blocks = append(blocks, map[string]any{
			"object": "block",
			"type":   "paragraph",
			"paragraph": map[string]any{
				"rich_text": richText(string(r[:n])),
			},
		})
		r = r[n:]
	}
	return blocks
}
