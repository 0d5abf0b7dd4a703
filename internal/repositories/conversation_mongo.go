package repositories

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"draftly-ai/internal/models"
)

type mongoConversationRepository struct {
	collection *mongo.Collection
	maxAge     time.Duration
}

func NewMongoConversationRepository(collection *mongo.Collection, maxAge time.Duration) ConversationRepository {
	return &mongoConversationRepository{
		collection: collection,
		maxAge:     maxAge,
	}
}

func (r *mongoConversationRepository) Save(ctx context.Context, record *models.ConversationRecord) error {
	filter := bson.M{"conversation_id": record.ConversationID}
	update := bson.M{"$set": record}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		log.Printf("MongoConversationRepository -> Save -> failed for %s: %v", record.ConversationID, err)
		return err
	}
	return nil
}

func (r *mongoConversationRepository) Load(ctx context.Context, conversationID string) (*models.ConversationRecord, error) {
	var record models.ConversationRecord
	err := r.collection.FindOne(ctx, bson.M{"conversation_id": conversationID}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	} else if err != nil {
		log.Printf("MongoConversationRepository -> Load -> failed for %s: %v", conversationID, err)
		return nil, err
	}

	checked, evict := checkLoadedRecord(&record, r.maxAge)
	if evict {
		if _, err := r.collection.DeleteOne(ctx, bson.M{"conversation_id": conversationID}); err != nil {
			log.Printf("MongoConversationRepository -> Load -> failed to evict %s: %v", conversationID, err)
		}
	}
	return checked, nil
}

func (r *mongoConversationRepository) Delete(ctx context.Context, conversationID string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"conversation_id": conversationID}); err != nil {
		log.Printf("MongoConversationRepository -> Delete -> failed for %s: %v", conversationID, err)
		return err
	}
	return nil
}
