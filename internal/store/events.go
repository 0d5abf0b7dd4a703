package store

import "draftly-ai/internal/models"

// Event types published on a conversation's subscription channel.
const (
	EventDelta    = "delta"
	EventComplete = "complete"
	EventError    = "error"
)

// Event is one typed notification about a conversation. Message is a deep
// copy; subscribers may hold onto it freely.
type Event struct {
	Type           string              `json:"type"`
	ConversationID string              `json:"conversation_id"`
	MessageID      string              `json:"message_id,omitempty"`
	SessionID      string              `json:"session_id,omitempty"`
	Content        string              `json:"content,omitempty"`
	Message        *models.ChatMessage `json:"message,omitempty"`
}
