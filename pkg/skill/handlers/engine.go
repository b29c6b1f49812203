// Package handlers is the turn engine: it takes one decoded platform
// request, drives the resolver, the model dispatcher and the note and
// store clients, and produces exactly one spoken response. Every path,
// including panics, returns well-formed SSML with the session attached.
package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/pico-voice/pico-skill/pkg/core"
	"github.com/pico-voice/pico-skill/pkg/core/resolve"
	"github.com/pico-voice/pico-skill/pkg/core/session"
	"github.com/pico-voice/pico-skill/pkg/core/ssml"
	"github.com/pico-voice/pico-skill/pkg/notes"
	"github.com/pico-voice/pico-skill/pkg/skill/alexa"
	"github.com/pico-voice/pico-skill/pkg/skill/config"
	"github.com/pico-voice/pico-skill/pkg/skill/metrics"
	"github.com/pico-voice/pico-skill/pkg/store"
)

// Engine handles one turn at a time. Notes and Store may be nil when the
// corresponding credentials are absent; the affected intents degrade to a
// spoken failure instead of erroring the turn.
type Engine struct {
	cfg        config.Config
	dispatcher *core.Dispatcher
	notes      notes.Service
	store      store.Store
	logger     *slog.Logger
}

func New(cfg config.Config, dispatcher *core.Dispatcher, noteSvc notes.Service, st store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:        cfg,
		dispatcher: dispatcher,
		notes:      noteSvc,
		store:      st,
		logger:     logger,
	}
}

func (e *Engine) limits() session.Limits {
	lim := session.DefaultLimits()
	if e.cfg.MaxHistoryTurns > 0 {
		lim.MaxHistoryTurns = e.cfg.MaxHistoryTurns
	}
	if e.cfg.MaxSnippets > 0 {
		lim.MaxSnippets = e.cfg.MaxSnippets
	}
	if e.cfg.SnippetChars > 0 {
		lim.SnippetMax = e.cfg.SnippetChars
	}
	return lim
}

func (e *Engine) resolverOptions() resolve.Options {
	opts := resolve.DefaultOptions()
	if e.cfg.ShortQueryJA > 0 {
		opts.ShortQueryRunesJA = e.cfg.ShortQueryJA
	}
	if e.cfg.ShortQueryEN > 0 {
		opts.ShortQueryRunesEN = e.cfg.ShortQueryEN
	}
	return opts
}

// reply is the plain-text form of a turn's answer before SSML rendering.
type reply struct {
	speech     string
	reprompt   string
	endSession bool
}

// HandleEnvelope processes one request under the hard per-turn deadline.
// The returned envelope always carries spoken SSML (SessionEndedRequest
// excepted, where the platform ignores speech).
func (e *Engine) HandleEnvelope(ctx context.Context, env *alexa.RequestEnvelope) (resp alexa.ResponseEnvelope) {
	sess := env.DecodeSession(e.limits())
	locale := sess.Locale

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("turn panicked", "panic", r, "intent", env.IntentName())
			metrics.TurnsTotal.WithLabelValues(env.IntentName(), "panic").Inc()
			resp = e.render(reply{speech: panicSpeech(locale), reprompt: genericReprompt(locale)}, sess)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.HardDeadline)
	defer cancel()

	switch env.Request.Type {
	case alexa.RequestLaunch:
		e.restoreDurableState(ctx, env.UserID(), sess)
		metrics.TurnsTotal.WithLabelValues("LaunchRequest", "ok").Inc()
		return e.render(reply{speech: launchSpeech(locale), reprompt: genericReprompt(locale)}, sess)

	case alexa.RequestSessionEnded:
		e.persistDurableState(ctx, env.UserID(), sess)
		metrics.TurnsTotal.WithLabelValues("SessionEndedRequest", "ok").Inc()
		return alexa.ResponseEnvelope{Version: "1.0"}

	case alexa.RequestIntent:
		// One-shot invocations start at an IntentRequest without a launch,
		// so a cold session still pulls in the persisted state.
		if len(sess.History) == 0 && len(sess.RetainedResults) == 0 && len(sess.Snippets) == 0 {
			e.restoreDurableState(ctx, env.UserID(), sess)
		}
		return e.render(e.handleIntent(ctx, env, sess), sess)

	default:
		metrics.TurnsTotal.WithLabelValues(env.Request.Type, "unknown_type").Inc()
		return e.render(reply{speech: fallbackSpeech(locale), reprompt: genericReprompt(locale)}, sess)
	}
}

func (e *Engine) handleIntent(ctx context.Context, env *alexa.RequestEnvelope, sess *session.Session) reply {
	name := env.IntentName()
	slots := env.SlotValues()
	locale := sess.Locale

	if kind, ok := alexa.ResolverKind(name); ok {
		return e.handleResolved(ctx, env.UserID(), name, kind, slots, sess)
	}

	switch name {
	case alexa.IntentNoteSearch:
		return e.handleNoteSearch(ctx, env.UserID(), slots, sess)
	case alexa.IntentNoteCreate:
		return e.handleNoteCreate(ctx, slots, sess)
	case alexa.IntentNoteLog:
		return e.handleNoteLog(ctx, slots, sess)
	case alexa.IntentRemember:
		return e.handleRemember(ctx, env.UserID(), slots, sess)
	case alexa.IntentRecall:
		return e.handleRecall(ctx, env.UserID(), sess)

	case alexa.IntentTest:
		metrics.TurnsTotal.WithLabelValues(name, "ok").Inc()
		return reply{speech: testSpeech(locale), reprompt: genericReprompt(locale)}

	case alexa.IntentClearContext:
		sess.Clear()
		e.persistDurableState(ctx, env.UserID(), sess)
		metrics.TurnsTotal.WithLabelValues(name, "ok").Inc()
		return reply{speech: clearedSpeech(locale), reprompt: genericReprompt(locale)}

	case alexa.IntentAmazonHelp:
		metrics.TurnsTotal.WithLabelValues(name, "ok").Inc()
		return reply{speech: helpSpeech(locale), reprompt: genericReprompt(locale)}

	case alexa.IntentAmazonFallback:
		metrics.TurnsTotal.WithLabelValues(name, "fallback").Inc()
		return reply{speech: fallbackSpeech(locale), reprompt: genericReprompt(locale)}

	case alexa.IntentAmazonCancel, alexa.IntentAmazonStop:
		e.persistDurableState(ctx, env.UserID(), sess)
		metrics.TurnsTotal.WithLabelValues(name, "ok").Inc()
		return reply{speech: goodbyeSpeech(locale), endSession: true}

	default:
		metrics.TurnsTotal.WithLabelValues(name, "fallback").Inc()
		return reply{speech: fallbackSpeech(locale), reprompt: genericReprompt(locale)}
	}
}

// render sanitizes the plain-text reply into the response envelope. The
// sanitizer guarantees non-empty, well-formed SSML even for empty input.
func (e *Engine) render(r reply, sess *session.Session) alexa.ResponseEnvelope {
	speech := ssml.Sanitize(r.speech, sess.Locale)
	reprompt := ""
	if !r.endSession {
		if r.reprompt == "" {
			r.reprompt = genericReprompt(sess.Locale)
		}
		reprompt = ssml.Sanitize(r.reprompt, sess.Locale)
	}
	return alexa.NewResponse(speech, reprompt, r.endSession, sess)
}

// restoreDurableState folds stored results and snippets back into a fresh
// session at launch. Store errors are logged and ignored; the session just
// starts cold.
func (e *Engine) restoreDurableState(ctx context.Context, userID string, sess *session.Session) {
	if e.store == nil || userID == "" {
		return
	}
	if items, err := e.store.LoadResults(ctx, userID); err != nil {
		e.logger.Warn("load retained results failed", "error", err)
	} else if len(items) > 0 && len(sess.RetainedResults) == 0 {
		sess.SetRetainedResults(items)
	}
	if snips, err := e.store.LoadSnippets(ctx, userID); err != nil {
		e.logger.Warn("load snippets failed", "error", err)
	} else if len(snips) > 0 && len(sess.Snippets) == 0 {
		sess.AddSnippets(snips)
	}
}

// persistDurableState writes the session's retained results and snippets
// out. Failures are logged; the spoken turn is never degraded by them.
func (e *Engine) persistDurableState(ctx context.Context, userID string, sess *session.Session) {
	if e.store == nil || userID == "" {
		return
	}
	if err := e.store.SaveResults(ctx, userID, sess.RetainedResults); err != nil {
		e.logger.Warn("save retained results failed", "error", err)
	}
	if err := e.store.SaveSnippets(ctx, userID, sess.Snippets); err != nil {
		e.logger.Warn("save snippets failed", "error", err)
	}
}

func (e *Engine) notesTimeout() time.Duration {
	if e.cfg.NotesTimeout > 0 {
		return e.cfg.NotesTimeout
	}
	return 2 * time.Second
}
