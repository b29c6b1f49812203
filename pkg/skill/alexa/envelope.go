// Package alexa is the voice-platform boundary: the request/response JSON
// envelopes, the session-attribute bag, and the mapping from raw intent
// names to the resolver's tagged intent kinds.
package alexa

import (
	"encoding/json"
	"strings"

	"github.com/pico-voice/pico-skill/pkg/core/session"
)

// Request types.
const (
	RequestLaunch       = "LaunchRequest"
	RequestIntent       = "IntentRequest"
	RequestSessionEnded = "SessionEndedRequest"
)

// RequestEnvelope is the inbound platform request.
type RequestEnvelope struct {
	Version string         `json:"version"`
	Session *SessionObject `json:"session,omitempty"`
	Context *ContextObject `json:"context,omitempty"`
	Request RequestObject  `json:"request"`
}

// SessionObject carries the platform-scoped session attribute bag.
type SessionObject struct {
	New        bool            `json:"new"`
	SessionID  string          `json:"sessionId"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
	User       User            `json:"user"`
}

// User is the stable per-user identity.
type User struct {
	UserID string `json:"userId"`
}

// ContextObject carries the system context block.
type ContextObject struct {
	System struct {
		User User `json:"user"`
	} `json:"System"`
}

// RequestObject is the typed request payload.
type RequestObject struct {
	Type      string  `json:"type"`
	RequestID string  `json:"requestId"`
	Locale    string  `json:"locale"`
	Reason    string  `json:"reason,omitempty"`
	Intent    *Intent `json:"intent,omitempty"`
}

// Intent is a named intent with flat string slots.
type Intent struct {
	Name  string          `json:"name"`
	Slots map[string]Slot `json:"slots,omitempty"`
}

// Slot is one slot value; Value may be empty when the platform could not
// fill it.
type Slot struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

// UserID returns the stable per-user identifier, or "" when absent.
func (e *RequestEnvelope) UserID() string {
	if e.Session != nil && e.Session.User.UserID != "" {
		return e.Session.User.UserID
	}
	if e.Context != nil {
		return e.Context.System.User.UserID
	}
	return ""
}

// IntentName returns the intent name, or "" for non-intent requests.
func (e *RequestEnvelope) IntentName() string {
	if e.Request.Intent == nil {
		return ""
	}
	return e.Request.Intent.Name
}

// SlotValues flattens the intent slots into a name-to-value map.
func (e *RequestEnvelope) SlotValues() map[string]string {
	out := make(map[string]string)
	if e.Request.Intent == nil {
		return out
	}
	for name, slot := range e.Request.Intent.Slots {
		if v := strings.TrimSpace(slot.Value); v != "" {
			out[name] = v
		}
	}
	return out
}

// DecodeSession reconstructs the conversation session from the attribute
// bag. A fresh or unreadable bag yields a new session with the request's
// locale.
func (e *RequestEnvelope) DecodeSession(limits session.Limits) *session.Session {
	locale := session.ParseLocale(e.Request.Locale)
	sess := session.New(locale, limits)
	if e.Session == nil || len(e.Session.Attributes) == 0 {
		return sess
	}
	decoded := &session.Session{}
	if err := json.Unmarshal(e.Session.Attributes, decoded); err != nil {
		return sess
	}
	if decoded.Locale == "" {
		decoded.Locale = locale
	}
	decoded.SetLimits(limits)
	return decoded
}

// ResponseEnvelope is the outbound platform response. SessionAttributes is
// the mutated session, carried to the next turn by the platform.
type ResponseEnvelope struct {
	Version           string           `json:"version"`
	SessionAttributes *session.Session `json:"sessionAttributes,omitempty"`
	Response          ResponseBody     `json:"response"`
}

// ResponseBody holds the speech and session-control fields.
type ResponseBody struct {
	OutputSpeech     *OutputSpeech `json:"outputSpeech,omitempty"`
	Reprompt         *Reprompt     `json:"reprompt,omitempty"`
	ShouldEndSession bool          `json:"shouldEndSession"`
}

// OutputSpeech is always SSML here; the sanitizer guarantees validity.
type OutputSpeech struct {
	Type string `json:"type"`
	SSML string `json:"ssml"`
}

// Reprompt wraps the re-prompt speech.
type Reprompt struct {
	OutputSpeech OutputSpeech `json:"outputSpeech"`
}

// NewResponse builds a response envelope. repromptSSML may be empty for
// session-ending responses.
func NewResponse(speechSSML, repromptSSML string, endSession bool, sess *session.Session) ResponseEnvelope {
	body := ResponseBody{
		OutputSpeech:     &OutputSpeech{Type: "SSML", SSML: speechSSML},
		ShouldEndSession: endSession,
	}
	if repromptSSML != "" {
		body.Reprompt = &Reprompt{OutputSpeech: OutputSpeech{Type: "SSML", SSML: repromptSSML}}
	}
	return ResponseEnvelope{
		Version:           "1.0",
		SessionAttributes: sess,
		Response:          body,
	}
}
