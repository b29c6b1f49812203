package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/pico-voice/pico-skill/pkg/core/session"
	"github.com/pico-voice/pico-skill/pkg/notes"
	"github.com/pico-voice/pico-skill/pkg/skill/alexa"
	"github.com/pico-voice/pico-skill/pkg/skill/metrics"
)

func noteClassifier(err error) string {
	return notes.Classify(err)
}

func slotAny(slots map[string]string, names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(slots[n]); v != "" {
			return v
		}
	}
	return ""
}

// handleNoteSearch searches the note service, speaks the result titles with
// ordinals, and retains them in the session (and the durable store) so a
// follow-up "read the second one" resolves positionally.
func (e *Engine) handleNoteSearch(ctx context.Context, userID string, slots map[string]string, sess *session.Session) reply {
	locale := sess.Locale
	query := slotAny(slots, "query", "keyword")
	if query == "" {
		metrics.TurnsTotal.WithLabelValues(alexa.IntentNoteSearch, "clarify").Inc()
		return reply{speech: needQuerySpeech(locale), reprompt: genericReprompt(locale)}
	}
	if e.notes == nil {
		metrics.TurnsTotal.WithLabelValues(alexa.IntentNoteSearch, "failure").Inc()
		return reply{speech: sideEffectFailureSpeech(locale, "search", "unconfigured"), reprompt: genericReprompt(locale)}
	}

	sctx, cancel := context.WithTimeout(ctx, e.notesTimeout())
	defer cancel()
	refs, err := e.notes.Search(sctx, query, e.cfg.SearchLimit)
	if err != nil {
		e.logger.Warn("note search failed", "query", query, "error", err)
		metrics.NoteCalls.WithLabelValues("search", "error").Inc()
		metrics.TurnsTotal.WithLabelValues(alexa.IntentNoteSearch, "failure").Inc()
		return reply{speech: sideEffectFailureSpeech(locale, "search", noteClassifier(err)), reprompt: genericReprompt(locale)}
	}
	metrics.NoteCalls.WithLabelValues("search", "ok").Inc()

	if len(refs) == 0 {
		metrics.TurnsTotal.WithLabelValues(alexa.IntentNoteSearch, "no_results").Inc()
		return reply{speech: noNotesFoundSpeech(locale, query), reprompt: genericReprompt(locale)}
	}

	items := make([]session.ResultItem, 0, len(refs))
	snips := make([]session.Snippet, 0, len(refs))
	now := time.Now().Unix()
	for _, r := range refs {
		items = append(items, session.ResultItem{ID: r.ID, Title: r.Title, URL: r.URL})
		snips = append(snips, session.Snippet{Title: r.Title, URL: r.URL, Text: r.Title, TS: now})
	}
	sess.SetRetainedResults(items)
	sess.AddSnippets(snips)
	e.persistDurableState(ctx, userID, sess)

	metrics.TurnsTotal.WithLabelValues(alexa.IntentNoteSearch, "ok").Inc()
	return reply{speech: searchResultsSpeech(locale, sess.RetainedResults), reprompt: genericReprompt(locale)}
}

// handleNoteCreate creates a standalone page under the configured parent.
func (e *Engine) handleNoteCreate(ctx context.Context, slots map[string]string, sess *session.Session) reply {
	locale := sess.Locale
	title := slotAny(slots, "title")
	content := slotAny(slots, "content", "text")
	if title == "" || content == "" {
		metrics.TurnsTotal.WithLabelValues(alexa.IntentNoteCreate, "clarify").Inc()
		return reply{speech: needTitleSpeech(locale), reprompt: genericReprompt(locale)}
	}
	if e.notes == nil || e.cfg.NotesParentID == "" {
		metrics.TurnsTotal.WithLabelValues(alexa.IntentNoteCreate, "failure").Inc()
		return reply{speech: sideEffectFailureSpeech(locale, "create", "unconfigured"), reprompt: genericReprompt(locale)}
	}

	wctx, cancel := context.WithTimeout(ctx, e.notesTimeout())
	defer cancel()
	res := e.notes.CreatePage(wctx, title, content, e.cfg.NotesParentID)
	if !res.Success {
		e.logger.Warn("note create failed", "title", title, "classifier", res.Error)
		metrics.NoteCalls.WithLabelValues("create", "error").Inc()
		metrics.TurnsTotal.WithLabelValues(alexa.IntentNoteCreate, "failure").Inc()
		return reply{speech: sideEffectFailureSpeech(locale, "create", res.Error), reprompt: genericReprompt(locale)}
	}
	metrics.NoteCalls.WithLabelValues("create", "ok").Inc()
	metrics.TurnsTotal.WithLabelValues(alexa.IntentNoteCreate, "ok").Inc()
	return reply{speech: noteCreatedSpeech(locale, title), reprompt: genericReprompt(locale)}
}

// handleNoteLog appends a titled entry to the configured database. A
// missing title falls back to a timestamp so quick voice logging works
// with just a body.
func (e *Engine) handleNoteLog(ctx context.Context, slots map[string]string, sess *session.Session) reply {
	locale := sess.Locale
	content := slotAny(slots, "content", "text")
	if content == "" {
		metrics.TurnsTotal.WithLabelValues(alexa.IntentNoteLog, "clarify").Inc()
		return reply{speech: needTitleSpeech(locale), reprompt: genericReprompt(locale)}
	}
	title := slotAny(slots, "title")
	if title == "" {
		title = time.Now().Format("2006-01-02 15:04")
	}
	if e.notes == nil || e.cfg.NotesDBID == "" {
		metrics.TurnsTotal.WithLabelValues(alexa.IntentNoteLog, "failure").Inc()
		return reply{speech: sideEffectFailureSpeech(locale, "log", "unconfigured"), reprompt: genericReprompt(locale)}
	}

	wctx, cancel := context.WithTimeout(ctx, e.notesTimeout())
	defer cancel()
	res := e.notes.AddDatabaseEntry(wctx, title, content, e.cfg.NotesDBID)
	if !res.Success {
		e.logger.Warn("note log failed", "title", title, "classifier", res.Error)
		metrics.NoteCalls.WithLabelValues("log", "error").Inc()
		metrics.TurnsTotal.WithLabelValues(alexa.IntentNoteLog, "failure").Inc()
		return reply{speech: sideEffectFailureSpeech(locale, "log", res.Error), reprompt: genericReprompt(locale)}
	}
	metrics.NoteCalls.WithLabelValues("log", "ok").Inc()
	metrics.TurnsTotal.WithLabelValues(alexa.IntentNoteLog, "ok").Inc()
	return reply{speech: noteLoggedSpeech(locale, title), reprompt: genericReprompt(locale)}
}

// handleRemember writes the free-form memo into the per-user record.
func (e *Engine) handleRemember(ctx context.Context, userID string, slots map[string]string, sess *session.Session) reply {
	locale := sess.Locale
	value := slotAny(slots, "value", "memo", "content", "text")
	if value == "" {
		metrics.TurnsTotal.WithLabelValues(alexa.IntentRemember, "clarify").Inc()
		return reply{speech: needQuerySpeech(locale), reprompt: genericReprompt(locale)}
	}
	if e.store == nil || userID == "" {
		metrics.TurnsTotal.WithLabelValues(alexa.IntentRemember, "failure").Inc()
		return reply{speech: sideEffectFailureSpeech(locale, "store", "unconfigured"), reprompt: genericReprompt(locale)}
	}

	rec, err := e.store.LoadUserRecord(ctx, userID)
	if err != nil {
		e.logger.Warn("load user record failed", "error", err)
		rec = map[string]any{}
	}
	if rec == nil {
		rec = map[string]any{}
	}
	rec["memo"] = value
	rec["memo_ts"] = time.Now().Unix()
	if err := e.store.SaveUserRecord(ctx, userID, rec); err != nil {
		e.logger.Warn("save user record failed", "error", err)
		metrics.TurnsTotal.WithLabelValues(alexa.IntentRemember, "failure").Inc()
		return reply{speech: sideEffectFailureSpeech(locale, "store", "api_error"), reprompt: genericReprompt(locale)}
	}
	metrics.TurnsTotal.WithLabelValues(alexa.IntentRemember, "ok").Inc()
	return reply{speech: rememberedSpeech(locale), reprompt: genericReprompt(locale)}
}

// handleRecall speaks back the remembered memo, if any.
func (e *Engine) handleRecall(ctx context.Context, userID string, sess *session.Session) reply {
	locale := sess.Locale
	if e.store == nil || userID == "" {
		metrics.TurnsTotal.WithLabelValues(alexa.IntentRecall, "failure").Inc()
		return reply{speech: sideEffectFailureSpeech(locale, "store", "unconfigured"), reprompt: genericReprompt(locale)}
	}
	rec, err := e.store.LoadUserRecord(ctx, userID)
	if err != nil {
		e.logger.Warn("load user record failed", "error", err)
		metrics.TurnsTotal.WithLabelValues(alexa.IntentRecall, "failure").Inc()
		return reply{speech: sideEffectFailureSpeech(locale, "store", "api_error"), reprompt: genericReprompt(locale)}
	}
	memo, _ := rec["memo"].(string)
	if strings.TrimSpace(memo) == "" {
		metrics.TurnsTotal.WithLabelValues(alexa.IntentRecall, "no_results").Inc()
		return reply{speech: nothingRememberedSpeech(locale), reprompt: genericReprompt(locale)}
	}
	metrics.TurnsTotal.WithLabelValues(alexa.IntentRecall, "ok").Inc()
	return reply{speech: recallSpeech(locale, memo), reprompt: genericReprompt(locale)}
}
