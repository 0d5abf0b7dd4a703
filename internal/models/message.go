package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message status values. A message is mutable only while streaming.
const (
	MessageStatusStreaming  = "streaming"
	MessageStatusDone       = "done"
	MessageStatusIncomplete = "incomplete"
	MessageStatusError      = "error"
)

// SuggestedAction is a follow-up action proposed by the model inside a
// finalized response, rendered by the UI as a clickable shortcut.
type SuggestedAction struct {
	Label    string `bson:"label" json:"label"`
	Action   string `bson:"action" json:"action"`
	Category string `bson:"category,omitempty" json:"category,omitempty"`
}

// MessageMetadata holds generation bookkeeping for assistant messages.
type MessageMetadata struct {
	Tokens           int    `bson:"tokens,omitempty" json:"tokens,omitempty"`
	GenerationTimeMs int64  `bson:"generation_time_ms,omitempty" json:"generation_time_ms,omitempty"`
	Model            string `bson:"model,omitempty" json:"model,omitempty"`
}

type ChatMessage struct {
	ID               string            `bson:"id" json:"id"`
	Role             string            `bson:"role" json:"role"`
	Content          string            `bson:"content" json:"content"`
	Timestamp        time.Time         `bson:"timestamp" json:"timestamp"`
	SuggestedActions []SuggestedAction `bson:"suggested_actions,omitempty" json:"suggested_actions,omitempty"`
	Metadata         *MessageMetadata  `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Status           string            `bson:"status,omitempty" json:"status,omitempty"`
}

func NewUserMessage(content string) *ChatMessage {
	return &ChatMessage{
		ID:        uuid.New().String(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
		Status:    MessageStatusDone,
	}
}

// NewAssistantPlaceholder creates the empty assistant slot that a stream
// session will fill in.
func NewAssistantPlaceholder() *ChatMessage {
	return &ChatMessage{
		ID:        uuid.New().String(),
		Role:      RoleAssistant,
		Content:   "",
		Timestamp: time.Now(),
		Status:    MessageStatusStreaming,
	}
}

// IsTerminal reports whether the message content is frozen.
func (m *ChatMessage) IsTerminal() bool {
	switch m.Status {
	case MessageStatusDone, MessageStatusIncomplete, MessageStatusError:
		return true
	}
	return false
}

// Clone returns a deep copy so snapshots handed to subscribers cannot be
// mutated behind the store's lock.
func (m *ChatMessage) Clone() *ChatMessage {
	c := *m
	if m.SuggestedActions != nil {
		c.SuggestedActions = make([]SuggestedAction, len(m.SuggestedActions))
		copy(c.SuggestedActions, m.SuggestedActions)
	}
	if m.Metadata != nil {
		meta := *m.Metadata
		c.Metadata = &meta
	}
	return &c
}
