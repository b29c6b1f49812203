// Package prompt assembles the bounded message sequence sent upstream:
// persona instructions, an anchoring few-shot exchange, optional retrieved
// note snippets, trimmed history and the current effective query.
package prompt

import (
	"strings"

	"github.com/pico-voice/pico-skill/pkg/core"
	"github.com/pico-voice/pico-skill/pkg/core/session"
)

// Persona and few-shot text for the Japanese voice.
const (
	systemPromptJA = "あなたは『ぴこ』。日本語で話す、元気で可愛い相棒アシスタント。" +
		"【性格/口調】一人称は「ぼく」。語尾はやわらかく（〜だよ/〜だね/〜かな）。" +
		"【話し方ルール】" +
		"1) 最初は50〜100字で要点。" +
		"2) 絵文字・顔文字・装飾記号・URLは出さない。" +
		"3) 難しい語は噛み砕く。" +
		"4) 具体例は短く。" +
		"5) 次の提案が必要なら一言添える。" +
		"【NG】尊大/ぶっきらぼう/機械的/過度に事務的な敬体/絵文字の連打/長すぎる前置き。"

	fewshotUserJA      = "自己紹介して"
	fewshotAssistantJA = "やっほー、ぼくは『ぴこ』だよ！短くわかりやすくお手伝いするね。何から話そっか？"

	systemPromptEN = "You are Pico, a cheerful and friendly sidekick assistant speaking English. " +
		"Style rules: " +
		"1) Lead with the point in 50-100 characters. " +
		"2) Never output emoji, emoticons, decorative symbols or URLs. " +
		"3) Break down difficult terms. " +
		"4) Keep examples short. " +
		"5) Add a one-line suggestion when a next step helps. " +
		"Never be pompous, curt, robotic or long-winded."

	fewshotUserEN      = "Introduce yourself"
	fewshotAssistantEN = "Hey, I'm Pico! I keep things short and clear. What shall we talk about?"

	snippetHeaderJA = "参照ノート:\n"
	snippetHeaderEN = "Reference notes:\n"
)

// Caps bound each field written into the prompt, in runes.
type Caps struct {
	HistoryTurn int
	Query       int
}

func DefaultCaps() Caps {
	return Caps{HistoryTurn: 200, Query: 400}
}

// Build produces the fixed-structure message list. The snippets entry is the
// only optional one; everything else is always present.
func Build(sess *session.Session, effectiveQuery string, snippets []session.Snippet, caps Caps) []core.ChatMessage {
	if caps.HistoryTurn <= 0 {
		caps = DefaultCaps()
	}
	ja := sess.Locale == session.LocaleJA

	msgs := make([]core.ChatMessage, 0, len(sess.History)+4)
	if ja {
		msgs = append(msgs, core.ChatMessage{Role: core.RoleSystem, Content: systemPromptJA})
	} else {
		msgs = append(msgs, core.ChatMessage{Role: core.RoleSystem, Content: systemPromptEN})
	}

	if len(snippets) > 0 {
		header := snippetHeaderEN
		if ja {
			header = snippetHeaderJA
		}
		lines := make([]string, 0, len(snippets))
		for _, sn := range snippets {
			lines = append(lines, formatSnippet(sn, ja))
		}
		msgs = append(msgs, core.ChatMessage{
			Role:    core.RoleSystem,
			Content: header + strings.Join(lines, "\n"),
		})
	}

	if ja {
		msgs = append(msgs,
			core.ChatMessage{Role: core.RoleUser, Content: fewshotUserJA},
			core.ChatMessage{Role: core.RoleAssistant, Content: fewshotAssistantJA},
		)
	} else {
		msgs = append(msgs,
			core.ChatMessage{Role: core.RoleUser, Content: fewshotUserEN},
			core.ChatMessage{Role: core.RoleAssistant, Content: fewshotAssistantEN},
		)
	}

	for _, t := range sess.History {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		msgs = append(msgs, core.ChatMessage{
			Role:    string(t.Role),
			Content: truncateRunes(text, caps.HistoryTurn),
		})
	}

	msgs = append(msgs, core.ChatMessage{
		Role:    core.RoleUser,
		Content: truncateRunes(strings.TrimSpace(effectiveQuery), caps.Query),
	})
	return msgs
}

func formatSnippet(sn session.Snippet, ja bool) string {
	if ja {
		return "■" + sn.Title + "｜抜粋: " + sn.Text
	}
	return "- " + sn.Title + " | excerpt: " + sn.Text
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
