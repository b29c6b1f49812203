package alexa

import "github.com/pico-voice/pico-skill/pkg/core/resolve"

// Custom intent names from the interaction model.
const (
	IntentQuery         = "GptQueryIntent"
	IntentCreative      = "CreativeIntent"
	IntentEntertainment = "EntertainmentIntent"
	IntentEmotional     = "EmotionalIntent"
	IntentAnalysis      = "AnalysisIntent"
	IntentPhilosophical = "PhilosophicalIntent"
	IntentPractical     = "PracticalIntent"
	IntentQueryHelp     = "HelpIntent" // custom query-slot intent, distinct from AMAZON.HelpIntent

	IntentContinue = "ContinueIntent"
	IntentDetail   = "DetailIntent"
	IntentNext     = "NextIntent"
	IntentRefine   = "RefineIntent"

	IntentNoteSearch = "NoteSearchIntent"
	IntentNoteRead   = "NoteReadIntent"
	IntentNoteCreate = "NoteCreateIntent"
	IntentNoteLog    = "NoteLogIntent"

	IntentRemember     = "RememberIntent"
	IntentRecall       = "RecallIntent"
	IntentTest         = "TestIntent"
	IntentClearContext = "ClearContextIntent"

	IntentAmazonHelp     = "AMAZON.HelpIntent"
	IntentAmazonFallback = "AMAZON.FallbackIntent"
	IntentAmazonCancel   = "AMAZON.CancelIntent"
	IntentAmazonStop     = "AMAZON.StopIntent"
)

// ResolverKind maps an intent name onto the resolver's tagged intent kind.
// The second return is false for intents the turn engine handles without
// the resolver (note search/create, control intents, built-ins).
func ResolverKind(intentName string) (resolve.IntentKind, bool) {
	switch intentName {
	case IntentQuery, IntentQueryHelp:
		return resolve.KindQuery, true
	case IntentCreative:
		return resolve.KindCreative, true
	case IntentEntertainment:
		return resolve.KindEntertainment, true
	case IntentEmotional:
		return resolve.KindEmotional, true
	case IntentAnalysis:
		return resolve.KindAnalysis, true
	case IntentPhilosophical:
		return resolve.KindPhilosophical, true
	case IntentPractical:
		return resolve.KindPractical, true
	case IntentContinue:
		return resolve.KindContinue, true
	case IntentDetail:
		return resolve.KindDetail, true
	case IntentNext:
		return resolve.KindNext, true
	case IntentRefine:
		return resolve.KindRefine, true
	case IntentNoteRead:
		return resolve.KindNoteRead, true
	}
	return "", false
}
