package repositories

import (
	"context"
	"sync"
	"time"

	"draftly-ai/internal/models"
)

// memoryConversationRepository keeps records in a map. It backs tests and the
// no-backend fallback when neither Redis nor Mongo is configured.
type memoryConversationRepository struct {
	mu      sync.RWMutex
	records map[string]*models.ConversationRecord
	maxAge  time.Duration
}

func NewMemoryConversationRepository(maxAge time.Duration) ConversationRepository {
	return &memoryConversationRepository{
		records: make(map[string]*models.ConversationRecord),
		maxAge:  maxAge,
	}
}

func (r *memoryConversationRepository) Save(_ context.Context, record *models.ConversationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *record
	r.records[record.ConversationID] = &stored
	return nil
}

func (r *memoryConversationRepository) Load(_ context.Context, conversationID string) (*models.ConversationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[conversationID]
	if !ok {
		return nil, nil
	}
	checked, evict := checkLoadedRecord(record, r.maxAge)
	if evict {
		delete(r.records, conversationID)
	}
	if checked == nil {
		return nil, nil
	}
	copied := *checked
	return &copied, nil
}

func (r *memoryConversationRepository) Delete(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, conversationID)
	return nil
}
