package mongodb

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoDbConfigModel struct {
	ConnectionUrl string
	DatabaseName  string
}

type MongoDBClient struct {
	Client *mongo.Client
	Config MongoDbConfigModel
}

func InitializeDatabaseConnection(config MongoDbConfigModel) *MongoDBClient {
	clientOptions := options.Client().ApplyURI(config.ConnectionUrl)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatalf("MongoDB Connection Error: %v", err)
	}

	if err := mongoClient.Ping(ctx, nil); err != nil {
		log.Fatalf("MongoDB Ping Error: %v", err)
	}

	log.Println("✨ Connected to MongoDB.")

	return &MongoDBClient{
		Client: mongoClient,
		Config: config,
	}
}

func (client *MongoDBClient) GetCollectionByName(collectionName string) *mongo.Collection {
	return client.Client.Database(client.Config.DatabaseName).Collection(collectionName)
}
