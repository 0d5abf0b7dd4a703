package dtos

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type QuickActionRequest struct {
	ActionKey string `json:"action_key" binding:"required"`
	// Context is the email or draft text the action operates on.
	Context string `json:"context"`
}

type ActivateSuggestionRequest struct {
	MessageID string `json:"message_id" binding:"required"`
	Label     string `json:"label" binding:"required"`
	Action    string `json:"action" binding:"required"`
	Clicks    int    `json:"clicks" binding:"required,min=1"`
}

type CancelGenerationRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// SendMessageResponse identifies the message pair and the stream session a
// send or trigger created. The caller subscribes for deltas separately.
type SendMessageResponse struct {
	SessionID          string `json:"session_id"`
	UserMessageID      string `json:"user_message_id"`
	AssistantMessageID string `json:"assistant_message_id"`
	TriggerID          string `json:"trigger_id,omitempty"`
}

// ActivateSuggestionResponse reports whether the click count satisfied the
// configured activation mode. Sent is nil when not activated.
type ActivateSuggestionResponse struct {
	Activated bool                 `json:"activated"`
	Sent      *SendMessageResponse `json:"sent,omitempty"`
}
