package alexa

import (
	"encoding/json"
	"testing"

	"github.com/pico-voice/pico-skill/pkg/core/resolve"
	"github.com/pico-voice/pico-skill/pkg/core/session"
)

func TestDecodeRequestEnvelope(t *testing.T) {
	t.Parallel()

	raw := `{
		"version": "1.0",
		"session": {
			"new": false,
			"sessionId": "sess-1",
			"user": {"userId": "amzn1.ask.account.X"},
			"attributes": {"history":[{"role":"user","text":"前の質問"}],"pending_prompt":"retry","locale":"ja"}
		},
		"request": {
			"type": "IntentRequest",
			"requestId": "req-1",
			"locale": "ja-JP",
			"intent": {
				"name": "GptQueryIntent",
				"slots": {
					"query": {"name": "query", "value": "生成AIとは"},
					"empty": {"name": "empty"}
				}
			}
		}
	}`

	var env RequestEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if env.UserID() != "amzn1.ask.account.X" {
		t.Errorf("UserID = %q", env.UserID())
	}
	if env.IntentName() != "GptQueryIntent" {
		t.Errorf("IntentName = %q", env.IntentName())
	}

	slots := env.SlotValues()
	if slots["query"] != "生成AIとは" {
		t.Errorf("slots = %v", slots)
	}
	if _, ok := slots["empty"]; ok {
		t.Errorf("unfilled slot should be omitted: %v", slots)
	}

	sess := env.DecodeSession(session.DefaultLimits())
	if sess.PendingPrompt != "retry" {
		t.Errorf("pending prompt = %q", sess.PendingPrompt)
	}
	if len(sess.History) != 1 || sess.History[0].Text != "前の質問" {
		t.Errorf("history = %+v", sess.History)
	}
	if sess.Locale != session.LocaleJA {
		t.Errorf("locale = %q", sess.Locale)
	}
}

func TestDecodeSessionFreshAndCorruptBags(t *testing.T) {
	t.Parallel()

	env := &RequestEnvelope{Request: RequestObject{Type: RequestLaunch, Locale: "en-US"}}
	sess := env.DecodeSession(session.DefaultLimits())
	if sess.Locale != session.LocaleEN || len(sess.History) != 0 {
		t.Errorf("fresh session = %+v", sess)
	}

	env.Session = &SessionObject{Attributes: json.RawMessage(`"not an object"`)}
	sess = env.DecodeSession(session.DefaultLimits())
	if len(sess.History) != 0 || sess.Locale != session.LocaleEN {
		t.Errorf("corrupt bag should fall back to a fresh session: %+v", sess)
	}
}

func TestUserIDFallsBackToContext(t *testing.T) {
	t.Parallel()

	env := &RequestEnvelope{Context: &ContextObject{}}
	env.Context.System.User.UserID = "ctx-user"
	if env.UserID() != "ctx-user" {
		t.Errorf("UserID = %q", env.UserID())
	}
}

func TestNewResponseShape(t *testing.T) {
	t.Parallel()

	sess := session.New(session.LocaleJA, session.DefaultLimits())
	resp := NewResponse("<speak><p>やあ。</p></speak>", "<speak><p>他には？</p></speak>", false, sess)

	if resp.Version != "1.0" {
		t.Errorf("version = %q", resp.Version)
	}
	if resp.Response.OutputSpeech == nil || resp.Response.OutputSpeech.Type != "SSML" {
		t.Fatalf("output speech = %+v", resp.Response.OutputSpeech)
	}
	if resp.Response.Reprompt == nil {
		t.Errorf("reprompt missing")
	}
	if resp.Response.ShouldEndSession {
		t.Errorf("session should stay open")
	}
	if resp.SessionAttributes != sess {
		t.Errorf("session attributes not attached")
	}

	ending := NewResponse("<speak><p>またね。</p></speak>", "", true, sess)
	if !ending.Response.ShouldEndSession || ending.Response.Reprompt != nil {
		t.Errorf("ending response = %+v", ending.Response)
	}
}

func TestResolverKindMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		intent string
		kind   resolve.IntentKind
		ok     bool
	}{
		{IntentQuery, resolve.KindQuery, true},
		{IntentQueryHelp, resolve.KindQuery, true},
		{IntentCreative, resolve.KindCreative, true},
		{IntentContinue, resolve.KindContinue, true},
		{IntentDetail, resolve.KindDetail, true},
		{IntentNext, resolve.KindNext, true},
		{IntentRefine, resolve.KindRefine, true},
		{IntentNoteRead, resolve.KindNoteRead, true},
		{IntentNoteSearch, "", false},
		{IntentAmazonHelp, "", false},
		{"NoSuchIntent", "", false},
	}
	for _, tc := range cases {
		kind, ok := ResolverKind(tc.intent)
		if ok != tc.ok || (ok && kind != tc.kind) {
			t.Errorf("ResolverKind(%q) = %q, %v; want %q, %v", tc.intent, kind, ok, tc.kind, tc.ok)
		}
	}
}
