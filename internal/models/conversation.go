package models

import "time"

// ConversationRecordVersion is the current persisted payload version. Loading
// a record with any other version yields an empty conversation instead of an
// error, so old or foreign payloads never crash the client.
const ConversationRecordVersion = 1

type Conversation struct {
	ID          string         `json:"id"`
	Messages    []*ChatMessage `json:"messages"`
	LastUpdated time.Time      `json:"last_updated"`
}

// ConversationRecord is the durable snapshot written by the persistence
// adapter. Messages are stored by value; ephemeral streaming state is
// normalized to a terminal status before saving.
type ConversationRecord struct {
	Version        int           `bson:"version" json:"version"`
	ConversationID string        `bson:"conversation_id" json:"conversation_id"`
	Messages       []ChatMessage `bson:"messages" json:"messages"`
	SavedAt        time.Time     `bson:"saved_at" json:"saved_at"`
}
