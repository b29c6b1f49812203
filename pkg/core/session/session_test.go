package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestParseLocale(t *testing.T) {
	t.Parallel()

	cases := []struct {
		tag  string
		want Locale
	}{
		{"ja-JP", LocaleJA},
		{"ja", LocaleJA},
		{"en-US", LocaleEN},
		{"en-GB", LocaleEN},
		{"", LocaleJA},
		{"de-DE", LocaleEN},
	}
	for _, tc := range cases {
		if got := ParseLocale(tc.tag); got != tc.want {
			t.Errorf("ParseLocale(%q) = %q, want %q", tc.tag, got, tc.want)
		}
	}
}

func TestAppendTurnEvictsOldestFirst(t *testing.T) {
	t.Parallel()

	lim := DefaultLimits()
	s := New(LocaleJA, lim)
	bound := lim.MaxHistoryTurns * 2

	for i := 0; i < bound+4; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		s.AppendTurn(role, fmt.Sprintf("turn-%d", i))
	}

	if len(s.History) != bound {
		t.Fatalf("history length = %d, want %d", len(s.History), bound)
	}
	if got := s.History[0].Text; got != "turn-4" {
		t.Errorf("oldest surviving turn = %q, want turn-4", got)
	}
	if got := s.History[len(s.History)-1].Text; got != fmt.Sprintf("turn-%d", bound+3) {
		t.Errorf("newest turn = %q", got)
	}
}

func TestAppendTurnDropsUnknownRoles(t *testing.T) {
	t.Parallel()

	s := New(LocaleJA, DefaultLimits())
	s.AppendTurn(RoleUser, "hello")
	s.AppendTurn(Role("tool"), "should vanish")
	s.AppendTurn(RoleAssistant, "world")

	if len(s.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(s.History))
	}
	for _, turn := range s.History {
		if turn.Role != RoleUser && turn.Role != RoleAssistant {
			t.Errorf("unexpected role %q retained", turn.Role)
		}
	}
}

func TestAppendTurnCapsTextByRunes(t *testing.T) {
	t.Parallel()

	lim := DefaultLimits()
	s := New(LocaleJA, lim)
	long := strings.Repeat("あ", lim.TurnTextMax+50)
	s.AppendTurn(RoleUser, long)

	if got := len([]rune(s.History[0].Text)); got != lim.TurnTextMax {
		t.Errorf("turn text runes = %d, want %d", got, lim.TurnTextMax)
	}
}

func TestLastUserUtterance(t *testing.T) {
	t.Parallel()

	s := New(LocaleJA, DefaultLimits())
	if got := s.LastUserUtterance(); got != "" {
		t.Errorf("empty session utterance = %q, want empty", got)
	}
	s.AppendTurn(RoleUser, "first")
	s.AppendTurn(RoleAssistant, "answer")
	s.AppendTurn(RoleUser, "second")
	s.AppendTurn(RoleAssistant, "answer two")

	if got := s.LastUserUtterance(); got != "second" {
		t.Errorf("last user utterance = %q, want second", got)
	}
}

func TestSetRetainedResultsBoundsToTopK(t *testing.T) {
	t.Parallel()

	lim := DefaultLimits()
	s := New(LocaleJA, lim)
	var items []ResultItem
	for i := 0; i < lim.MaxResults+2; i++ {
		items = append(items, ResultItem{ID: fmt.Sprintf("id-%d", i), Title: fmt.Sprintf("t-%d", i)})
	}
	s.SetRetainedResults(items)

	if len(s.RetainedResults) != lim.MaxResults {
		t.Fatalf("retained = %d, want %d", len(s.RetainedResults), lim.MaxResults)
	}
	if s.RetainedResults[0].ID != "id-0" {
		t.Errorf("first retained = %q, want id-0", s.RetainedResults[0].ID)
	}

	// Replacement is wholesale, not a merge.
	s.SetRetainedResults([]ResultItem{{ID: "only"}})
	if len(s.RetainedResults) != 1 || s.RetainedResults[0].ID != "only" {
		t.Errorf("retained after replace = %+v", s.RetainedResults)
	}
}

func TestAddSnippetsDeduplicatesByURLAndTitle(t *testing.T) {
	t.Parallel()

	s := New(LocaleJA, DefaultLimits())
	s.AddSnippets([]Snippet{
		{Title: "A", URL: "u1", Text: "longer text"},
		{Title: "A", URL: "u1", Text: "short"},
		{Title: "A", URL: "u2", Text: "different url"},
	})
	if len(s.Snippets) != 2 {
		t.Fatalf("snippets = %d, want 2", len(s.Snippets))
	}
	if s.Snippets[0].Text != "longer text" {
		t.Errorf("shorter duplicate must not downgrade, got %q", s.Snippets[0].Text)
	}
}

func TestAddSnippetsUpgradesTitleOnlyEntry(t *testing.T) {
	t.Parallel()

	s := New(LocaleJA, DefaultLimits())
	s.AddSnippets([]Snippet{{Title: "旅行メモ", URL: "u1", TS: 1}})
	s.AddSnippets([]Snippet{{Title: "other", URL: "u2", Text: "x", TS: 2}})
	s.AddSnippets([]Snippet{{Title: "旅行メモ", URL: "u1", Text: "京都へ行く。二泊三日。", TS: 3}})

	if len(s.Snippets) != 2 {
		t.Fatalf("snippets = %d, want 2", len(s.Snippets))
	}
	if s.Snippets[0].Text != "京都へ行く。二泊三日。" {
		t.Errorf("stored text = %q, want the full page text", s.Snippets[0].Text)
	}
	if s.Snippets[0].TS != 3 {
		t.Errorf("upgraded snippet TS = %d, want 3", s.Snippets[0].TS)
	}
}

func TestAddSnippetsEvictsOldest(t *testing.T) {
	t.Parallel()

	lim := DefaultLimits()
	s := New(LocaleJA, lim)
	for i := 0; i < lim.MaxSnippets+5; i++ {
		s.AddSnippets([]Snippet{{Title: fmt.Sprintf("t-%d", i), URL: fmt.Sprintf("u-%d", i), Text: "x"}})
	}
	if len(s.Snippets) != lim.MaxSnippets {
		t.Fatalf("snippets = %d, want %d", len(s.Snippets), lim.MaxSnippets)
	}
	if s.Snippets[0].Title != "t-5" {
		t.Errorf("oldest surviving snippet = %q, want t-5", s.Snippets[0].Title)
	}
}

func TestAddSnippetsCapsTextAndDefaultsToTitle(t *testing.T) {
	t.Parallel()

	lim := DefaultLimits()
	s := New(LocaleJA, lim)
	s.AddSnippets([]Snippet{
		{Title: "no body", URL: "u1"},
		{Title: "long", URL: "u2", Text: strings.Repeat("x", lim.SnippetMax+10)},
	})
	if s.Snippets[0].Text != "no body" {
		t.Errorf("empty text should fall back to title, got %q", s.Snippets[0].Text)
	}
	if got := len([]rune(s.Snippets[1].Text)); got != lim.SnippetMax {
		t.Errorf("snippet text runes = %d, want %d", got, lim.SnippetMax)
	}
}

func TestTopSnippetsReturnsNewestOldestFirst(t *testing.T) {
	t.Parallel()

	s := New(LocaleJA, DefaultLimits())
	for i := 0; i < 10; i++ {
		s.AddSnippets([]Snippet{{Title: fmt.Sprintf("t-%d", i), URL: fmt.Sprintf("u-%d", i), Text: "x"}})
	}
	top := s.TopSnippets(3)
	if len(top) != 3 {
		t.Fatalf("top = %d, want 3", len(top))
	}
	if top[0].Title != "t-7" || top[2].Title != "t-9" {
		t.Errorf("top window = %q..%q, want t-7..t-9", top[0].Title, top[2].Title)
	}
	if got := s.TopSnippets(0); got != nil {
		t.Errorf("TopSnippets(0) = %v, want nil", got)
	}
}

func TestClearKeepsLocale(t *testing.T) {
	t.Parallel()

	s := New(LocaleEN, DefaultLimits())
	s.AppendTurn(RoleUser, "hi")
	s.PendingPrompt = "pending"
	s.SetRetainedResults([]ResultItem{{ID: "a"}})
	s.AddSnippets([]Snippet{{Title: "t", URL: "u", Text: "x"}})

	s.Clear()

	if len(s.History) != 0 || s.PendingPrompt != "" || len(s.RetainedResults) != 0 {
		t.Errorf("Clear left dialogue state: %+v", s)
	}
	if s.Locale != LocaleEN {
		t.Errorf("Clear changed locale to %q", s.Locale)
	}
	if len(s.Snippets) == 0 {
		t.Errorf("Clear should keep the snippet store")
	}
}

func TestSessionJSONRoundTripKeepsState(t *testing.T) {
	t.Parallel()

	s := New(LocaleJA, DefaultLimits())
	s.AppendTurn(RoleUser, "質問")
	s.AppendTurn(RoleAssistant, "答え")
	s.PendingPrompt = "retry me"
	s.SetRetainedResults([]ResultItem{{ID: "p1", Title: "メモ"}})

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded := &Session{}
	if err := json.Unmarshal(raw, decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	decoded.SetLimits(DefaultLimits())

	if decoded.PendingPrompt != "retry me" {
		t.Errorf("pending prompt = %q", decoded.PendingPrompt)
	}
	if len(decoded.History) != 2 || decoded.History[1].Text != "答え" {
		t.Errorf("history = %+v", decoded.History)
	}
	if len(decoded.RetainedResults) != 1 || decoded.RetainedResults[0].ID != "p1" {
		t.Errorf("retained = %+v", decoded.RetainedResults)
	}
}
