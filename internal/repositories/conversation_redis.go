package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"draftly-ai/internal/models"
	"draftly-ai/pkg/redis"
)

type redisConversationRepository struct {
	redis  redis.IRedisRepositories
	maxAge time.Duration
}

// NewRedisConversationRepository stores one JSON record per conversation key.
// maxAge doubles as the Redis TTL; the version/age checks on load still apply
// so records written by older builds behave the same on every backend.
func NewRedisConversationRepository(redisRepo redis.IRedisRepositories, maxAge time.Duration) ConversationRepository {
	return &redisConversationRepository{
		redis:  redisRepo,
		maxAge: maxAge,
	}
}

func conversationKey(conversationID string) string {
	return fmt.Sprintf("conversation:%s", conversationID)
}

func (r *redisConversationRepository) Save(ctx context.Context, record *models.ConversationRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation %s: %w", record.ConversationID, err)
	}
	return r.redis.Set(conversationKey(record.ConversationID), data, r.maxAge, ctx)
}

func (r *redisConversationRepository) Load(ctx context.Context, conversationID string) (*models.ConversationRecord, error) {
	raw, err := r.redis.Get(conversationKey(conversationID), ctx)
	if err != nil {
		if errors.Is(err, redis.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var record models.ConversationRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		// Foreign payload under our key: treat as absent, never crash.
		log.Printf("RedisConversationRepository -> Load -> discarding malformed record for %s: %v", conversationID, err)
		return nil, nil
	}

	checked, evict := checkLoadedRecord(&record, r.maxAge)
	if evict {
		if err := r.redis.Del(conversationKey(conversationID), ctx); err != nil {
			log.Printf("RedisConversationRepository -> Load -> failed to evict %s: %v", conversationID, err)
		}
	}
	return checked, nil
}

func (r *redisConversationRepository) Delete(ctx context.Context, conversationID string) error {
	return r.redis.Del(conversationKey(conversationID), ctx)
}
