// Package ssml converts arbitrary model output into bounded, well-formed
// speech markup. Sanitize never fails: malformed input degrades to a
// placeholder, never to an error or unterminated markup.
package ssml

import (
	"regexp"
	"strings"

	"github.com/pico-voice/pico-skill/pkg/core/session"
)

const (
	// MaxLen is the ceiling on the serialized document, in runes.
	MaxLen = 7000
	// truncateAt leaves room for the forced closing tag.
	truncateAt = 6900

	placeholder = "……"
	pause       = `<break time="200ms"/>`
)

var (
	urlRE  = regexp.MustCompile(`https?://\S+`)
	ctrlRE = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f-]")
	// Pictographs, dingbats, misc symbols and regional indicators.
	emojiRE = regexp.MustCompile(`[\x{1F300}-\x{1FAFF}\x{2600}-\x{27BF}\x{1F1E6}-\x{1F1FF}]+`)
	tagRE   = regexp.MustCompile(`<[^>]*>`)

	escaper   = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	unescaper = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">")
)

func linkWord(locale session.Locale) string {
	if locale == session.LocaleJA {
		return "リンク"
	}
	return "link"
}

func fullStop(locale session.Locale) string {
	if locale == session.LocaleJA {
		return "。"
	}
	return "."
}

func emptyFallback(locale session.Locale) string {
	if locale == session.LocaleJA {
		return "うまく説明できなかったよ。別の言い方で聞いてみてね。"
	}
	return "I could not quite explain that. Try asking another way."
}

func endsWithTerminal(s string) bool {
	for _, suffix := range []string{"。", "！", "？", "!", "?", "…", "."} {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

// Sanitize turns free-form text into a single <speak> document: control
// characters and emoji stripped, URLs replaced with the locale's word for
// "link", per-paragraph markup escaping and forced terminal punctuation,
// and a hard length ceiling with a forced root close.
func Sanitize(text string, locale session.Locale) string {
	if strings.TrimSpace(text) == "" {
		text = placeholder
	}
	text = ctrlRE.ReplaceAllString(text, "")
	text = urlRE.ReplaceAllString(text, linkWord(locale))
	text = emojiRE.ReplaceAllString(text, "")

	var parts []string
	for _, p := range strings.Split(text, "\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts = append(parts, escaper.Replace(p))
	}
	if len(parts) == 0 {
		parts = []string{escaper.Replace(emptyFallback(locale))}
	}

	var b strings.Builder
	b.WriteString("<speak>")
	for i, p := range parts {
		if i > 0 {
			b.WriteString(pause)
		}
		b.WriteString("<p>")
		b.WriteString(p)
		if !endsWithTerminal(p) {
			b.WriteString(fullStop(locale))
		}
		b.WriteString("</p>")
	}
	b.WriteString("</speak>")

	out := b.String()
	if len([]rune(out)) > MaxLen {
		out = truncateSafe(out, truncateAt) + "</speak>"
	}
	return out
}

// truncateSafe cuts at n runes and then backs off past any partial tag or
// escape entity so the remainder is still well-formed markup.
func truncateSafe(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		s = string(r[:n])
	}
	if open := strings.LastIndexByte(s, '<'); open > strings.LastIndexByte(s, '>') {
		s = s[:open]
	}
	if amp := strings.LastIndexByte(s, '&'); amp > strings.LastIndexByte(s, ';') {
		s = s[:amp]
	}
	return s
}

// PlainExtract strips markup and unescapes entities, recovering the spoken
// text from a Sanitize result. Paragraph boundaries become newlines.
func PlainExtract(doc string) string {
	doc = strings.ReplaceAll(doc, "</p>", "\n")
	doc = tagRE.ReplaceAllString(doc, "")
	return strings.TrimSpace(unescaper.Replace(doc))
}
