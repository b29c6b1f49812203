// Package session holds the per-conversation state carried across turns.
//
// A Session travels inside the platform's session-attribute bag and, for the
// durable pieces, through the per-user blob store. Every bounded collection
// is trimmed at mutation time so a serialized Session is always within its
// caps.
package session

import "strings"

// Locale selects the speech language for a conversation.
type Locale string

const (
	LocaleJA Locale = "ja"
	LocaleEN Locale = "en"
)

// ParseLocale maps a platform locale tag ("ja-JP", "en-US", ...) to a Locale.
func ParseLocale(tag string) Locale {
	if strings.HasPrefix(strings.ToLower(tag), "ja") {
		return LocaleJA
	}
	return LocaleEN
}

// Role identifies the speaker of a Turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one retained utterance. Immutable once appended.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// ResultItem is one entry of the most recent search-like lookup, referenced
// positionally or by title prefix in follow-up turns.
type ResultItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Snippet is a short retrieved text fragment folded into prompts.
type Snippet struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Text  string `json:"snippet"`
	TS    int64  `json:"ts"`
}

// Limits bound the collections held by a Session.
type Limits struct {
	MaxHistoryTurns int // logical exchanges; history cap is twice this
	MaxResults      int
	MaxSnippets     int
	SnippetMax      int // runes per snippet text
	TurnTextMax     int // runes per retained turn text
}

// DefaultLimits mirrors the deployed tuning values.
func DefaultLimits() Limits {
	return Limits{
		MaxHistoryTurns: 6,
		MaxResults:      3,
		MaxSnippets:     40,
		SnippetMax:      300,
		TurnTextMax:     400,
	}
}

// Session is the full per-conversation state. The zero value plus a locale
// is a valid fresh session.
type Session struct {
	History         []Turn       `json:"history,omitempty"`
	PendingPrompt   string       `json:"pending_prompt,omitempty"`
	Locale          Locale       `json:"locale,omitempty"`
	RetainedResults []ResultItem `json:"retained_results,omitempty"`
	Snippets        []Snippet    `json:"snippets,omitempty"`

	limits Limits
}

// New returns an empty session for the given locale.
func New(locale Locale, limits Limits) *Session {
	if limits.MaxHistoryTurns <= 0 {
		limits = DefaultLimits()
	}
	return &Session{Locale: locale, limits: limits}
}

// SetLimits installs limits on a session that was decoded from JSON.
func (s *Session) SetLimits(limits Limits) {
	if limits.MaxHistoryTurns <= 0 {
		limits = DefaultLimits()
	}
	s.limits = limits
}

func (s *Session) Limits() Limits {
	if s.limits.MaxHistoryTurns <= 0 {
		return DefaultLimits()
	}
	return s.limits
}

// AppendTurn trims, caps and appends one turn, then re-enforces the history
// bound: only recognized roles are retained and the oldest turns are dropped
// first once the cap of 2x MaxHistoryTurns is exceeded.
func (s *Session) AppendTurn(role Role, text string) {
	lim := s.Limits()
	text = strings.TrimSpace(text)
	if n := len([]rune(text)); n > lim.TurnTextMax {
		text = string([]rune(text)[:lim.TurnTextMax])
	}
	s.History = append(s.History, Turn{Role: role, Text: text})

	kept := s.History[:0]
	for _, t := range s.History {
		if t.Role == RoleUser || t.Role == RoleAssistant {
			kept = append(kept, t)
		}
	}
	s.History = kept
	if bound := lim.MaxHistoryTurns * 2; len(s.History) > bound {
		s.History = append(s.History[:0], s.History[len(s.History)-bound:]...)
	}
}

// LastUserUtterance returns the most recent user-role text, or "".
func (s *Session) LastUserUtterance() string {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == RoleUser {
			return s.History[i].Text
		}
	}
	return ""
}

// SetRetainedResults replaces the retained result list wholesale, bounded to
// the top MaxResults entries.
func (s *Session) SetRetainedResults(items []ResultItem) {
	lim := s.Limits()
	if len(items) > lim.MaxResults {
		items = items[:lim.MaxResults]
	}
	s.RetainedResults = append([]ResultItem(nil), items...)
}

// AddSnippets merges new snippets into the cumulative store, deduplicating
// by (URL, Title) and evicting the oldest entries past MaxSnippets. Snippet
// text is capped at write time. A duplicate key upgrades the stored text in
// place when the incoming text is longer, so reading a page enriches the
// title-only snippet its search result left behind.
func (s *Session) AddSnippets(items []Snippet) {
	lim := s.Limits()
	type key struct{ url, title string }
	seen := make(map[key]int, len(s.Snippets))
	for i, it := range s.Snippets {
		seen[key{it.URL, it.Title}] = i
	}
	for _, it := range items {
		it.Title = strings.TrimSpace(it.Title)
		if n := len([]rune(it.Title)); n > 120 {
			it.Title = string([]rune(it.Title)[:120])
		}
		it.URL = strings.TrimSpace(it.URL)
		if it.Text == "" {
			it.Text = it.Title
		}
		if n := len([]rune(it.Text)); n > lim.SnippetMax {
			it.Text = string([]rune(it.Text)[:lim.SnippetMax])
		}
		k := key{it.URL, it.Title}
		if i, dup := seen[k]; dup {
			if len([]rune(it.Text)) > len([]rune(s.Snippets[i].Text)) {
				s.Snippets[i].Text = it.Text
				s.Snippets[i].TS = it.TS
			}
			continue
		}
		seen[k] = len(s.Snippets)
		s.Snippets = append(s.Snippets, it)
	}
	if len(s.Snippets) > lim.MaxSnippets {
		s.Snippets = append(s.Snippets[:0], s.Snippets[len(s.Snippets)-lim.MaxSnippets:]...)
	}
}

// TopSnippets returns the k most recently added snippets, oldest first.
func (s *Session) TopSnippets(k int) []Snippet {
	if k <= 0 || len(s.Snippets) == 0 {
		return nil
	}
	if k > len(s.Snippets) {
		k = len(s.Snippets)
	}
	return append([]Snippet(nil), s.Snippets[len(s.Snippets)-k:]...)
}

// Clear wipes the dialogue state but keeps the locale.
func (s *Session) Clear() {
	s.History = nil
	s.PendingPrompt = ""
	s.RetainedResults = nil
}
