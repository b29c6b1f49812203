// Package notes is the note-service client: page search, first-text reads,
// page creation and database appends against a Notion-style REST API.
package notes

import "context"

// PageRef identifies one search result.
type PageRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// WriteResult reports a page creation or database append.
type WriteResult struct {
	Success bool   `json:"success"`
	PageID  string `json:"page_id,omitempty"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Service is the interface the turn engine consumes; Client implements it.
type Service interface {
	// Search returns up to limit pages matching the query, most recently
	// edited first. A degraded upstream yields an empty list and an error.
	Search(ctx context.Context, query string, limit int) ([]PageRef, error)

	// ReadFirstText returns the leading text content of a page, joined
	// across blocks and capped at maxChars runes.
	ReadFirstText(ctx context.Context, pageID string, maxChars int) (string, error)

	// CreatePage creates a page under parentID with the given body.
	CreatePage(ctx context.Context, title, content, parentID string) WriteResult

	// AddDatabaseEntry appends a titled entry with a body to a database.
	AddDatabaseEntry(ctx context.Context, title, content, databaseID string) WriteResult
}
