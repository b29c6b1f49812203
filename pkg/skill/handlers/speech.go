package handlers

import (
	"fmt"

	"github.com/pico-voice/pico-skill/pkg/core/session"
)

// Fixed speech fragments, Japanese first. Everything here is plain text;
// the sanitizer turns it into SSML at the response boundary.

func pick(locale session.Locale, ja, en string) string {
	if locale == session.LocaleJA {
		return ja
	}
	return en
}

func launchSpeech(locale session.Locale) string {
	return pick(locale,
		"ぴこだよ。なんでも聞いてみて！",
		"Hi, I'm Pico. Ask me anything!")
}

func genericReprompt(locale session.Locale) string {
	return pick(locale,
		"他に質問あるかな？『続けて』で詳しくも話せるよ。",
		"Anything else? Say continue and I can go deeper.")
}

// repromptRotation is indexed by history length modulo the configured
// modulus, so the phrasing varies turn over turn but stays reproducible
// from state.
var repromptRotationJA = []string{
	"他に質問あるかな？『続けて』で詳しくも話せるよ。",
	"次はどうする？『もっと詳しく』も言えるよ。",
	"ほかに気になることはある？",
	"続きを聞くなら『続けて』って言ってね。",
}

var repromptRotationEN = []string{
	"Anything else? Say continue and I can go deeper.",
	"What next? You can also say tell me more.",
	"Anything else on your mind?",
	"Say continue to hear the rest.",
}

func rotatedReprompt(locale session.Locale, historyLen, modulus int) string {
	table := repromptRotationEN
	if locale == session.LocaleJA {
		table = repromptRotationJA
	}
	if modulus <= 0 || modulus > len(table) {
		modulus = len(table)
	}
	return table[historyLen%modulus]
}

func errorSpeech(locale session.Locale) string {
	return pick(locale,
		"ごめん、いまはうまく答えを取れなかった。『続けて』で試せるよ。",
		"Sorry, I couldn't get an answer just now. Say continue to try again.")
}

func retryReprompt(locale session.Locale) string {
	return pick(locale,
		"『続けて』って言ってくれたら、もう一回やってみるよ。",
		"Say continue and I'll try once more.")
}

func panicSpeech(locale session.Locale) string {
	return pick(locale,
		"予期しないエラーが起きちゃった。もう一度お試しください。",
		"Something unexpected went wrong. Please try again.")
}

func helpSpeech(locale session.Locale) string {
	return pick(locale,
		"なんでも質問してね。たとえば「生成AIとは何か」って聞いてみて。ノートの検索もできるよ。",
		"Ask me anything. For example, try asking what generative AI is. I can search your notes too.")
}

func fallbackSpeech(locale session.Locale) string {
	return pick(locale,
		"すみません、よく分からなかった。もう一度お願いします。",
		"Sorry, I didn't catch that. Could you say it again?")
}

func goodbyeSpeech(locale session.Locale) string {
	return pick(locale,
		"さようなら。またね！",
		"Goodbye, see you next time!")
}

func testSpeech(locale session.Locale) string {
	return pick(locale,
		"うん、ちゃんと動いてるよ。質問に答える準備ばっちり！",
		"Yes, I'm working fine and ready to answer questions.")
}

func clearedSpeech(locale session.Locale) string {
	return pick(locale,
		"会話の履歴をクリアしたよ。何について話そっか？",
		"I've cleared our conversation history. What shall we talk about?")
}

func noNotesFoundSpeech(locale session.Locale, query string) string {
	if locale == session.LocaleJA {
		return fmt.Sprintf("「%s」に合うノートは見つからなかったよ。", query)
	}
	return fmt.Sprintf("I couldn't find any notes matching %q.", query)
}

func searchResultsSpeech(locale session.Locale, items []session.ResultItem) string {
	if locale == session.LocaleJA {
		out := fmt.Sprintf("%d件見つかったよ。", len(items))
		for i, it := range items {
			out += fmt.Sprintf("%d番目、%s。", i+1, it.Title)
		}
		return out + "番号で「読んで」って言ってみて。"
	}
	out := fmt.Sprintf("I found %d notes. ", len(items))
	for i, it := range items {
		out += fmt.Sprintf("Number %d, %s. ", i+1, it.Title)
	}
	return out + "Say read with a number to hear one."
}

func emptyPageSpeech(locale session.Locale, title string) string {
	if locale == session.LocaleJA {
		return fmt.Sprintf("「%s」には読める本文がなかったよ。", title)
	}
	return fmt.Sprintf("The note %q has no readable text.", title)
}

func pageReadSpeech(locale session.Locale, title, text string) string {
	if locale == session.LocaleJA {
		return fmt.Sprintf("「%s」から読むね。%s", title, text)
	}
	return fmt.Sprintf("Reading from %q. %s", title, text)
}

func sideEffectFailureSpeech(locale session.Locale, op, classifier string) string {
	if locale == session.LocaleJA {
		return fmt.Sprintf("ごめん、%sに失敗しちゃった（%s）。", opNameJA(op), classifier)
	}
	return fmt.Sprintf("Sorry, the %s failed (%s).", op, classifier)
}

func opNameJA(op string) string {
	switch op {
	case "search":
		return "ノートの検索"
	case "read":
		return "ノートの読み上げ"
	case "create":
		return "ノートの作成"
	case "log":
		return "記録の追加"
	case "store":
		return "保存"
	default:
		return op
	}
}

func noteCreatedSpeech(locale session.Locale, title string) string {
	if locale == session.LocaleJA {
		return fmt.Sprintf("ノート「%s」を作ったよ。", title)
	}
	return fmt.Sprintf("I created the note %q.", title)
}

func noteLoggedSpeech(locale session.Locale, title string) string {
	if locale == session.LocaleJA {
		return fmt.Sprintf("「%s」を記録に追加したよ。", title)
	}
	return fmt.Sprintf("I added %q to the log.", title)
}

func needTitleSpeech(locale session.Locale) string {
	return pick(locale,
		"なんてタイトルにする？タイトルと内容を教えてね。",
		"What should the title be? Tell me a title and the content.")
}

func needQuerySpeech(locale session.Locale) string {
	return pick(locale,
		"何を検索するか教えてね。",
		"Tell me what to search for.")
}

func rememberedSpeech(locale session.Locale) string {
	return pick(locale,
		"覚えたよ。「思い出して」って言えばいつでも読むね。",
		"Got it, I'll remember that. Say recall any time.")
}

func nothingRememberedSpeech(locale session.Locale) string {
	return pick(locale,
		"まだ何も覚えてないよ。「覚えて」って言ってみて。",
		"I haven't remembered anything yet. Try saying remember first.")
}

func recallSpeech(locale session.Locale, memo string) string {
	if locale == session.LocaleJA {
		return fmt.Sprintf("覚えてるのはこれだよ。%s", memo)
	}
	return fmt.Sprintf("Here's what I remembered: %s", memo)
}
