// Package resolve decides what each incoming utterance actually asks for:
// a fresh question, a continuation of the previous one, or a positional
// reference into the retained search results. It produces the effective
// query text sent upstream, or a terminal outcome that must be answered
// without dispatching at all.
package resolve

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pico-voice/pico-skill/pkg/core/session"
)

// IntentKind is the tagged intent category produced by the platform adapter.
type IntentKind string

const (
	// Fresh-query kinds carry an explicit query slot.
	KindQuery         IntentKind = "query"
	KindCreative      IntentKind = "creative"
	KindEntertainment IntentKind = "entertainment"
	KindEmotional     IntentKind = "emotional"
	KindAnalysis      IntentKind = "analysis"
	KindPhilosophical IntentKind = "philosophical"
	KindPractical     IntentKind = "practical"

	// Follow-up kinds reuse prior state instead of a query slot.
	KindContinue IntentKind = "continue"
	KindDetail   IntentKind = "detail"
	KindNext     IntentKind = "next"
	KindRefine   IntentKind = "refine"

	// KindNoteRead selects one retained result by index, position or title.
	KindNoteRead IntentKind = "note_read"
)

// Outcome classifies a resolution result.
type Outcome int

const (
	// OutcomeDispatch carries an effective query for the model.
	OutcomeDispatch Outcome = iota
	// OutcomeClarify means the turn lacks the state to resolve; the caller
	// must ask the clarifying question and make no upstream call.
	OutcomeClarify
	// OutcomeRead selects one retained result (1-based ResultIndex).
	OutcomeRead
	// OutcomeDisambiguate lists the retained candidates for the user.
	OutcomeDisambiguate
	// OutcomeNoResults means a positional reference with nothing retained.
	OutcomeNoResults
)

// Resolution is the outcome of resolving one utterance.
type Resolution struct {
	Outcome     Outcome
	Query       string // effective query, when Outcome == OutcomeDispatch
	IsFollowUp  bool
	ResultIndex int    // 1-based, when Outcome == OutcomeRead
	Speech      string // plain-text speech for terminal outcomes
}

// Options are the empirically tuned resolver constants.
type Options struct {
	// ShortQueryRunesJA / EN: fresh queries below this length are rewritten
	// to be interpreted against the preceding exchange.
	ShortQueryRunesJA int
	ShortQueryRunesEN int
}

func DefaultOptions() Options {
	return Options{ShortQueryRunesJA: 15, ShortQueryRunesEN: 20}
}

// Slots is the flat slot map from the platform request.
type Slots map[string]string

func (s Slots) get(name string) string {
	return strings.TrimSpace(s[name])
}

// Resolve runs the intent-kind state machine against the session.
func Resolve(sess *session.Session, kind IntentKind, slots Slots, opts Options) Resolution {
	if opts.ShortQueryRunesJA == 0 {
		opts = DefaultOptions()
	}
	switch kind {
	case KindQuery, KindCreative, KindEntertainment, KindEmotional,
		KindAnalysis, KindPhilosophical, KindPractical:
		return resolveFresh(sess, kind, slots.get("query"), opts)
	case KindContinue:
		return resolveContinue(sess)
	case KindDetail:
		return resolveTemplated(sess, detailTemplate(sess.Locale))
	case KindNext:
		return resolveTemplated(sess, nextTemplate(sess.Locale))
	case KindRefine:
		return resolveRefine(sess, slots.get("filter"))
	case KindNoteRead:
		return resolveRead(sess, slots)
	default:
		return Resolution{Outcome: OutcomeClarify, Speech: clarifySpeech(sess.Locale)}
	}
}

func resolveFresh(sess *session.Session, kind IntentKind, query string, opts Options) Resolution {
	if query == "" {
		return Resolution{Outcome: OutcomeClarify, Speech: clarifySpeech(sess.Locale)}
	}
	effective := styleDirective(kind, sess.Locale) + query

	threshold := opts.ShortQueryRunesEN
	if sess.Locale == session.LocaleJA {
		threshold = opts.ShortQueryRunesJA
	}
	// Isolated short utterances like "weather" lose their referent; anchor
	// them to the immediately preceding exchange when there is one.
	if len([]rune(query)) < threshold && len(sess.History) > 0 {
		if sess.Locale == session.LocaleJA {
			effective = fmt.Sprintf("直前のやり取りを踏まえて、「%s」について答えて。", query)
		} else {
			effective = fmt.Sprintf("Considering the previous exchange, answer about %q.", query)
		}
		return Resolution{Outcome: OutcomeDispatch, Query: effective, IsFollowUp: true}
	}
	return Resolution{Outcome: OutcomeDispatch, Query: effective}
}

func resolveContinue(sess *session.Session) Resolution {
	// A saved pending prompt resumes the exact query that failed last time.
	if sess.PendingPrompt != "" {
		return Resolution{Outcome: OutcomeDispatch, Query: sess.PendingPrompt, IsFollowUp: true}
	}
	last := sess.LastUserUtterance()
	if last == "" {
		return Resolution{Outcome: OutcomeClarify, Speech: clarifySpeech(sess.Locale)}
	}
	var q string
	if sess.Locale == session.LocaleJA {
		q = last + "。続きをもう少し詳しく、簡潔に話して。"
	} else {
		q = last + ". Continue with more detail, briefly."
	}
	return Resolution{Outcome: OutcomeDispatch, Query: q, IsFollowUp: true}
}

func resolveTemplated(sess *session.Session, template string) Resolution {
	base := sess.PendingPrompt
	if base == "" {
		base = sess.LastUserUtterance()
	}
	if base == "" {
		return Resolution{Outcome: OutcomeClarify, Speech: clarifySpeech(sess.Locale)}
	}
	return Resolution{Outcome: OutcomeDispatch, Query: base + template, IsFollowUp: true}
}

func resolveRefine(sess *session.Session, filter string) Resolution {
	base := sess.PendingPrompt
	if base == "" {
		base = sess.LastUserUtterance()
	}
	if base == "" || filter == "" {
		return Resolution{Outcome: OutcomeClarify, Speech: clarifySpeech(sess.Locale)}
	}
	var q string
	if sess.Locale == session.LocaleJA {
		q = fmt.Sprintf("%s。ただし条件は: %s。要点だけ簡潔に。", base, filter)
	} else {
		q = fmt.Sprintf("%s. However the condition is: %s. Keep it to the essentials.", base, filter)
	}
	return Resolution{Outcome: OutcomeDispatch, Query: q, IsFollowUp: true}
}

// resolveRead maps an index, a named position or a title prefix onto the
// retained results. Explicit index wins over named position; named position
// wins over title prefix.
func resolveRead(sess *session.Session, slots Slots) Resolution {
	n := len(sess.RetainedResults)
	if n == 0 {
		return Resolution{Outcome: OutcomeNoResults, Speech: noResultsSpeech(sess.Locale)}
	}

	if raw := slots.get("index"); raw != "" {
		if idx, err := strconv.Atoi(raw); err == nil && idx >= 1 && idx <= n {
			return Resolution{Outcome: OutcomeRead, ResultIndex: idx}
		}
	}
	if idx := namedPosition(slots.get("position"), n); idx != 0 {
		return Resolution{Outcome: OutcomeRead, ResultIndex: idx}
	}
	if title := slots.get("title"); title != "" {
		lower := strings.ToLower(title)
		for i, it := range sess.RetainedResults {
			if strings.HasPrefix(strings.ToLower(it.Title), lower) {
				return Resolution{Outcome: OutcomeRead, ResultIndex: i + 1}
			}
		}
	}
	return Resolution{
		Outcome: OutcomeDisambiguate,
		Speech:  disambiguateSpeech(sess.Locale, sess.RetainedResults),
	}
}

// namedPosition maps first/middle/last (and the Japanese equivalents) to a
// 1-based index; middle is ceil(n/2).
func namedPosition(pos string, n int) int {
	switch strings.ToLower(pos) {
	case "first", "最初", "一番目", "いちばん最初":
		return 1
	case "middle", "真ん中", "中間":
		return (n + 1) / 2
	case "last", "最後", "いちばん最後":
		return n
	}
	return 0
}

func styleDirective(kind IntentKind, locale session.Locale) string {
	ja := locale == session.LocaleJA
	switch kind {
	case KindCreative:
		if ja {
			return "創作的に答えて: "
		}
		return "Be creative: "
	case KindEntertainment:
		if ja {
			return "楽しく答えて: "
		}
		return "Be entertaining: "
	case KindEmotional:
		if ja {
			return "感情的に答えて: "
		}
		return "Be emotional: "
	case KindAnalysis:
		if ja {
			return "分析的に答えて: "
		}
		return "Be analytical: "
	case KindPhilosophical:
		if ja {
			return "哲学的に答えて: "
		}
		return "Be philosophical: "
	case KindPractical:
		if ja {
			return "実践的に答えて: "
		}
		return "Be practical: "
	}
	return ""
}

func detailTemplate(locale session.Locale) string {
	if locale == session.LocaleJA {
		return "。それについてもっと詳しく教えて。"
	}
	return ". Tell me more about that."
}

func nextTemplate(locale session.Locale) string {
	if locale == session.LocaleJA {
		return "。その次はどうなるの？"
	}
	return ". What comes next?"
}

func clarifySpeech(locale session.Locale) string {
	if locale == session.LocaleJA {
		return "何について話すか教えてね。たとえば「生成AIについて教えて」みたいに聞いてみて。"
	}
	return "Tell me what you'd like to talk about. For example, ask me about generative AI."
}

func noResultsSpeech(locale session.Locale) string {
	if locale == session.LocaleJA {
		return "まだ検索結果がないよ。先にノートを検索してみてね。"
	}
	return "There are no results yet. Try searching your notes first."
}

func disambiguateSpeech(locale session.Locale, items []session.ResultItem) string {
	var b strings.Builder
	if locale == session.LocaleJA {
		b.WriteString("どのノートか教えてね。")
		for i, it := range items {
			fmt.Fprintf(&b, "%d番目、%s。", i+1, it.Title)
		}
		b.WriteString("番号で選んでみて。")
		return b.String()
	}
	b.WriteString("Which note do you mean? ")
	for i, it := range items {
		fmt.Fprintf(&b, "Number %d, %s. ", i+1, it.Title)
	}
	b.WriteString("Pick one by number.")
	return b.String()
}
