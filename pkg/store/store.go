// Package store persists small per-user JSON records to blob storage so
// state survives between stateless invocations and across voice sessions.
package store

import (
	"context"

	"github.com/pico-voice/pico-skill/pkg/core/session"
)

// Store is the per-user durable KV surface the turn engine consumes.
// Implementations return zero values, not errors, for absent records.
type Store interface {
	// LoadUserRecord returns the free-form per-user record, or an empty map.
	LoadUserRecord(ctx context.Context, userID string) (map[string]any, error)
	SaveUserRecord(ctx context.Context, userID string, record map[string]any) error

	// LoadResults returns the retained search results from the last
	// search-like turn.
	LoadResults(ctx context.Context, userID string) ([]session.ResultItem, error)
	SaveResults(ctx context.Context, userID string, items []session.ResultItem) error

	// LoadSnippets returns the cumulative retrieved-snippet store.
	LoadSnippets(ctx context.Context, userID string) ([]session.Snippet, error)
	SaveSnippets(ctx context.Context, userID string, items []session.Snippet) error
}
