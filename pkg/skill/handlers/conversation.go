package handlers

import (
	"context"
	"time"

	"github.com/pico-voice/pico-skill/pkg/core/prompt"
	"github.com/pico-voice/pico-skill/pkg/core/resolve"
	"github.com/pico-voice/pico-skill/pkg/core/session"
	"github.com/pico-voice/pico-skill/pkg/skill/metrics"
)

// snippetFoldK is how many stored snippets a dispatched prompt folds in.
const snippetFoldK = 5

// handleResolved runs the resolver over the session and slots, then either
// dispatches to the model, reads a retained result aloud, or speaks the
// resolver's terminal answer without any upstream call.
func (e *Engine) handleResolved(ctx context.Context, userID, intentName string, kind resolve.IntentKind, slots resolve.Slots, sess *session.Session) reply {
	res := resolve.Resolve(sess, kind, slots, e.resolverOptions())

	switch res.Outcome {
	case resolve.OutcomeDispatch:
		return e.dispatchTurn(ctx, userID, intentName, res, sess)

	case resolve.OutcomeRead:
		return e.readRetained(ctx, userID, intentName, res.ResultIndex, sess)

	case resolve.OutcomeClarify:
		metrics.TurnsTotal.WithLabelValues(intentName, "clarify").Inc()
		return reply{speech: res.Speech, reprompt: genericReprompt(sess.Locale)}

	case resolve.OutcomeDisambiguate:
		metrics.TurnsTotal.WithLabelValues(intentName, "disambiguate").Inc()
		return reply{speech: res.Speech, reprompt: genericReprompt(sess.Locale)}

	case resolve.OutcomeNoResults:
		metrics.TurnsTotal.WithLabelValues(intentName, "no_results").Inc()
		return reply{speech: res.Speech, reprompt: genericReprompt(sess.Locale)}

	default:
		metrics.TurnsTotal.WithLabelValues(intentName, "clarify").Inc()
		return reply{speech: fallbackSpeech(sess.Locale), reprompt: genericReprompt(sess.Locale)}
	}
}

// dispatchTurn makes the single model call for the turn. An empty answer is
// the dispatcher's collapsed failure signal; the effective query is parked
// as the pending prompt so "continue" retries it.
func (e *Engine) dispatchTurn(ctx context.Context, userID, intentName string, res resolve.Resolution, sess *session.Session) reply {
	caps := prompt.DefaultCaps()
	msgs := prompt.Build(sess, res.Query, sess.TopSnippets(snippetFoldK), caps)

	start := time.Now()
	answer, failReason := e.dispatcher.Dispatch(ctx, msgs)
	metrics.DispatchSeconds.Observe(time.Since(start).Seconds())

	if answer == "" {
		metrics.TurnsTotal.WithLabelValues(intentName, "failure").Inc()
		metrics.DispatchFailures.WithLabelValues(failReason).Inc()
		return e.onFailure(res.Query, sess)
	}

	metrics.TurnsTotal.WithLabelValues(intentName, "ok").Inc()
	r := e.onSuccess(res.Query, answer, sess)
	e.persistDurableState(ctx, userID, sess)
	return r
}

// onSuccess commits a successful exchange: the user and assistant turns go
// into history, any pending prompt is cleared, and the reprompt is rotated
// by history length so consecutive turns do not repeat themselves.
func (e *Engine) onSuccess(effectiveQuery, answer string, sess *session.Session) reply {
	sess.AppendTurn(session.RoleUser, effectiveQuery)
	sess.AppendTurn(session.RoleAssistant, answer)
	sess.PendingPrompt = ""
	return reply{
		speech:   answer,
		reprompt: rotatedReprompt(sess.Locale, len(sess.History), e.cfg.RepromptModulus),
	}
}

// onFailure parks the effective query so the next "continue" retries it
// verbatim, and speaks the fixed apology. History is not touched.
func (e *Engine) onFailure(effectiveQuery string, sess *session.Session) reply {
	sess.PendingPrompt = effectiveQuery
	return reply{
		speech:   errorSpeech(sess.Locale),
		reprompt: retryReprompt(sess.Locale),
	}
}

// readRetained speaks the selected retained result's page text directly,
// without involving the model, and folds the read text into the snippet
// store for later prompts.
func (e *Engine) readRetained(ctx context.Context, userID, intentName string, index1 int, sess *session.Session) reply {
	locale := sess.Locale
	if index1 < 1 || index1 > len(sess.RetainedResults) {
		metrics.TurnsTotal.WithLabelValues(intentName, "no_results").Inc()
		return reply{speech: noNotesFoundSpeech(locale, ""), reprompt: genericReprompt(locale)}
	}
	item := sess.RetainedResults[index1-1]

	if e.notes == nil {
		metrics.TurnsTotal.WithLabelValues(intentName, "failure").Inc()
		return reply{speech: sideEffectFailureSpeech(locale, "read", "unconfigured"), reprompt: genericReprompt(locale)}
	}

	rctx, cancel := context.WithTimeout(ctx, e.notesTimeout())
	defer cancel()
	text, err := e.notes.ReadFirstText(rctx, item.ID, e.cfg.SnippetChars)
	if err != nil {
		e.logger.Warn("note read failed", "page_id", item.ID, "error", err)
		metrics.NoteCalls.WithLabelValues("read", "error").Inc()
		metrics.TurnsTotal.WithLabelValues(intentName, "failure").Inc()
		return reply{speech: sideEffectFailureSpeech(locale, "read", noteClassifier(err)), reprompt: genericReprompt(locale)}
	}
	metrics.NoteCalls.WithLabelValues("read", "ok").Inc()

	if text == "" {
		metrics.TurnsTotal.WithLabelValues(intentName, "ok").Inc()
		return reply{speech: emptyPageSpeech(locale, item.Title), reprompt: genericReprompt(locale)}
	}

	sess.AddSnippets([]session.Snippet{{
		Title: item.Title,
		URL:   item.URL,
		Text:  text,
		TS:    time.Now().Unix(),
	}})
	e.persistDurableState(ctx, userID, sess)

	metrics.TurnsTotal.WithLabelValues(intentName, "ok").Inc()
	return reply{speech: pageReadSpeech(locale, item.Title, text), reprompt: genericReprompt(locale)}
}
