package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"draftly-ai/internal/models"
	"draftly-ai/pkg/mongodb"
)

type UserRepository interface {
	FindByUsername(username string) (*models.User, error)
	FindByID(userID string) (*models.User, error)
	Create(user *models.User) error
}

type userRepository struct {
	userCollection *mongo.Collection
}

func NewUserRepository(mongoClient *mongodb.MongoDBClient) UserRepository {
	return &userRepository{
		userCollection: mongoClient.GetCollectionByName("users"),
	}
}

func (r *userRepository) FindByUsername(username string) (*models.User, error) {
	var user models.User
	err := r.userCollection.FindOne(context.Background(), bson.M{"username": username}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(userID string) (*models.User, error) {
	userIDPrimitive, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, err
	}
	var user models.User
	err = r.userCollection.FindOne(context.Background(), bson.M{"_id": userIDPrimitive}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Create(user *models.User) error {
	_, err := r.userCollection.InsertOne(context.Background(), user)
	return err
}
