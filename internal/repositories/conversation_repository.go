package repositories

import (
	"context"
	"log"
	"time"

	"draftly-ai/internal/models"
)

// ConversationRepository is the persistence adapter for conversation
// transcripts. Load never fails on foreign payloads: an unrecognized version
// or an expired record yields a nil record rather than an error, so stale
// storage can never crash a client. Implementations: redis (default), mongodb,
// memory.
type ConversationRepository interface {
	Save(ctx context.Context, record *models.ConversationRecord) error
	Load(ctx context.Context, conversationID string) (*models.ConversationRecord, error)
	Delete(ctx context.Context, conversationID string) error
}

// NewConversationRecord snapshots a conversation for storage. Messages still
// streaming are normalized to incomplete: session state is ephemeral and must
// not round-trip.
func NewConversationRecord(conv *models.Conversation) *models.ConversationRecord {
	record := &models.ConversationRecord{
		Version:        models.ConversationRecordVersion,
		ConversationID: conv.ID,
		SavedAt:        time.Now(),
	}
	for _, m := range conv.Messages {
		saved := *m.Clone()
		if saved.Status == models.MessageStatusStreaming {
			saved.Status = models.MessageStatusIncomplete
		}
		record.Messages = append(record.Messages, saved)
	}
	return record
}

// checkLoadedRecord applies the shared load policy: wrong version or expired
// records are discarded. Returns nil when the record should be treated as
// absent, and true when the caller should also delete the stored entry.
func checkLoadedRecord(record *models.ConversationRecord, maxAge time.Duration) (*models.ConversationRecord, bool) {
	if record == nil {
		return nil, false
	}
	if record.Version != models.ConversationRecordVersion {
		log.Printf("ConversationRepository -> discarding record for %s: unrecognized version %d", record.ConversationID, record.Version)
		return nil, false
	}
	if maxAge > 0 && !record.SavedAt.IsZero() && time.Since(record.SavedAt) > maxAge {
		log.Printf("ConversationRepository -> evicting record for %s: older than %s", record.ConversationID, maxAge)
		return nil, true
	}
	return record, false
}
