package constants

// Stream event names sent over the SSE channel.
const (
	StreamEventConnected = "connected"
	StreamEventHeartbeat = "heartbeat"
	StreamEventDelta     = "ai-response-delta"
	StreamEventComplete  = "ai-response"
	StreamEventError     = "ai-response-error"
)

// Suggested action activation modes (how many clicks send the action).
const (
	ActivationSingleClick = "single"
	ActivationDoubleClick = "double"
)

var generationFailedMessages = map[string]string{
	"en": "Something went wrong while generating this answer. Please try again.",
	"fr": "Une erreur s'est produite lors de la génération de cette réponse. Veuillez réessayer.",
	"de": "Beim Erstellen dieser Antwort ist ein Fehler aufgetreten. Bitte versuchen Sie es erneut.",
}

// GenerationFailedMessage returns the user-facing error text for a failed
// generation in the given locale, falling back to English.
func GenerationFailedMessage(locale string) string {
	if msg, ok := generationFailedMessages[locale]; ok {
		return msg
	}
	return generationFailedMessages["en"]
}
