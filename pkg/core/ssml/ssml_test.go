package ssml

import (
	"strings"
	"testing"

	"github.com/pico-voice/pico-skill/pkg/core/session"
)

func TestSanitizeWrapsParagraphs(t *testing.T) {
	t.Parallel()

	got := Sanitize("こんにちは。\n元気だよ。", session.LocaleJA)
	want := `<speak><p>こんにちは。</p><break time="200ms"/><p>元気だよ。</p></speak>`
	if got != want {
		t.Errorf("Sanitize = %q, want %q", got, want)
	}
}

func TestSanitizeForcesTerminalPunctuation(t *testing.T) {
	t.Parallel()

	got := Sanitize("終わりなし", session.LocaleJA)
	if !strings.Contains(got, "終わりなし。") {
		t.Errorf("missing forced full stop: %q", got)
	}
	got = Sanitize("no ending", session.LocaleEN)
	if !strings.Contains(got, "no ending.") {
		t.Errorf("missing forced period: %q", got)
	}
}

func TestSanitizeReplacesURLs(t *testing.T) {
	t.Parallel()

	got := Sanitize("詳しくは https://example.com/a?q=1 を見てね", session.LocaleJA)
	if strings.Contains(got, "http") {
		t.Errorf("URL survived: %q", got)
	}
	if !strings.Contains(got, "リンク") {
		t.Errorf("link word missing: %q", got)
	}

	got = Sanitize("see http://example.com here", session.LocaleEN)
	if !strings.Contains(got, "link") || strings.Contains(got, "http") {
		t.Errorf("english link replacement failed: %q", got)
	}
}

func TestSanitizeStripsControlAndEmoji(t *testing.T) {
	t.Parallel()

	got := Sanitize("やあ\x01\x02 😀🎉 いいね☀", session.LocaleJA)
	for _, bad := range []string{"\x01", "\x02", "😀", "🎉", "☀"} {
		if strings.Contains(got, bad) {
			t.Errorf("unsanitized %q in %q", bad, got)
		}
	}
}

func TestSanitizeEscapesMarkup(t *testing.T) {
	t.Parallel()

	got := Sanitize(`x < y & y > z`, session.LocaleEN)
	inner := strings.TrimSuffix(strings.TrimPrefix(got, "<speak><p>"), "</p></speak>")
	if strings.ContainsAny(strings.NewReplacer("&amp;", "", "&lt;", "", "&gt;", "").Replace(inner), "<>&") {
		t.Errorf("unescaped markup chars: %q", got)
	}
}

func TestSanitizeEmptyInputSpeaksPlaceholder(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "   ", "\n\n"} {
		got := Sanitize(in, session.LocaleJA)
		if !strings.HasPrefix(got, "<speak><p>") || !strings.HasSuffix(got, "</p></speak>") {
			t.Errorf("Sanitize(%q) not wrapped: %q", in, got)
		}
		if PlainExtract(got) == "" {
			t.Errorf("Sanitize(%q) produced silent output", in)
		}
	}
}

func TestSanitizeTruncatesLongOutput(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("これは長い文章です。", 2000)
	got := Sanitize(long, session.LocaleJA)
	if n := len([]rune(got)); n > MaxLen {
		t.Fatalf("output runes = %d, exceeds %d", n, MaxLen)
	}
	if !strings.HasSuffix(got, "</speak>") {
		t.Errorf("truncated output unterminated: ...%q", got[len(got)-30:])
	}
	if strings.Count(got, "<speak>") != 1 {
		t.Errorf("speak root count = %d", strings.Count(got, "<speak>"))
	}
}

func TestSanitizeTruncationNeverSplitsTags(t *testing.T) {
	t.Parallel()

	// Many short paragraphs put tag boundaries near every possible cut point.
	long := strings.TrimSpace(strings.Repeat("あ&い<う\n", 3000))
	got := Sanitize(long, session.LocaleJA)

	if n := len([]rune(got)); n > MaxLen {
		t.Fatalf("output runes = %d, exceeds %d", n, MaxLen)
	}
	body := got
	for _, tag := range []string{"<speak>", "</speak>", "<p>", "</p>", `<break time="200ms"/>`} {
		body = strings.ReplaceAll(body, tag, "")
	}
	body = strings.NewReplacer("&amp;", "", "&lt;", "", "&gt;", "").Replace(body)
	if strings.ContainsAny(body, "<>&") {
		t.Errorf("partial tag or entity after truncation: %q", body)
	}
}

func TestPlainExtractRecoversText(t *testing.T) {
	t.Parallel()

	doc := Sanitize("一行目。\n二行目 & \"quoted\"", session.LocaleJA)
	plain := PlainExtract(doc)
	if !strings.Contains(plain, "一行目。") {
		t.Errorf("first line lost: %q", plain)
	}
	if !strings.Contains(plain, "&") {
		t.Errorf("entity not unescaped: %q", plain)
	}
	if strings.Contains(plain, "<") || strings.Contains(plain, "break") {
		t.Errorf("markup leaked into plain text: %q", plain)
	}
}
