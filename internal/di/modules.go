package di

import (
	"log"
	"time"

	"go.uber.org/dig"

	"draftly-ai/config"
	"draftly-ai/internal/apis/handlers"
	"draftly-ai/internal/constants"
	"draftly-ai/internal/repositories"
	"draftly-ai/internal/services"
	"draftly-ai/internal/store"
	"draftly-ai/internal/utils"
	"draftly-ai/pkg/llm"
	"draftly-ai/pkg/mongodb"
	"draftly-ai/pkg/redis"
)

var DiContainer *dig.Container

func Initialize() {
	DiContainer = dig.New()

	// Initialize MongoDB
	dbConfig := mongodb.MongoDbConfigModel{
		ConnectionUrl: config.Env.MongoURI,
		DatabaseName:  config.Env.MongoDatabaseName,
	}
	mongodbClient := mongodb.InitializeDatabaseConnection(dbConfig)

	// Initialize Redis
	redisClient, err := redis.RedisClient(config.Env.RedisHost, config.Env.RedisPort, config.Env.RedisUsername, config.Env.RedisPassword)
	if err != nil {
		log.Fatalf("Failed to initialize Redis client: %v", err)
	}

	// Initialize services and repositories
	redisRepo := redis.NewRedisRepositories(redisClient)
	jwtService := utils.NewJWTService(
		config.Env.JWTSecret,
		time.Millisecond*time.Duration(config.Env.JWTExpirationMilliseconds),
		time.Millisecond*time.Duration(config.Env.JWTRefreshExpirationMilliseconds),
	)

	// Initialize token repository
	tokenRepo := repositories.NewTokenRepository(redisRepo)

	// Provide all dependencies to the container
	if err := DiContainer.Provide(func() *mongodb.MongoDBClient { return mongodbClient }); err != nil {
		log.Fatalf("Failed to provide MongoDB client: %v", err)
	}

	if err := DiContainer.Provide(func() redis.IRedisRepositories { return redisRepo }); err != nil {
		log.Fatalf("Failed to provide Redis repositories: %v", err)
	}

	if err := DiContainer.Provide(func() utils.JWTService { return jwtService }); err != nil {
		log.Fatalf("Failed to provide JWT service: %v", err)
	}

	if err := DiContainer.Provide(func(db *mongodb.MongoDBClient) repositories.UserRepository {
		return repositories.NewUserRepository(db)
	}); err != nil {
		log.Fatalf("Failed to provide user repository: %v", err)
	}

	if err := DiContainer.Provide(func() repositories.TokenRepository { return tokenRepo }); err != nil {
		log.Fatalf("Failed to provide token repository: %v", err)
	}

	// Conversation repository, backend selected by config
	if err := DiContainer.Provide(func(redisRepo redis.IRedisRepositories, db *mongodb.MongoDBClient) repositories.ConversationRepository {
		maxAge := time.Duration(config.Env.ConversationMaxAgeHours) * time.Hour
		switch config.Env.PersistenceBackend {
		case "mongodb":
			return repositories.NewMongoConversationRepository(db.GetCollectionByName("conversations"), maxAge)
		case "memory":
			return repositories.NewMemoryConversationRepository(maxAge)
		default:
			return repositories.NewRedisConversationRepository(redisRepo, maxAge)
		}
	}); err != nil {
		log.Fatalf("Failed to provide conversation repository: %v", err)
	}

	// Conversation store and stream reconciler
	if err := DiContainer.Provide(func() *store.Store { return store.NewStore() }); err != nil {
		log.Fatalf("Failed to provide conversation store: %v", err)
	}

	if err := DiContainer.Provide(func(convStore *store.Store) *services.StreamReconciler {
		return services.NewStreamReconciler(convStore, config.Env.Locale)
	}); err != nil {
		log.Fatalf("Failed to provide stream reconciler: %v", err)
	}

	// Provide services
	if err := DiContainer.Provide(func(userRepo repositories.UserRepository, tokenRepo repositories.TokenRepository, jwt utils.JWTService) services.AuthService {
		return services.NewAuthService(userRepo, jwt, tokenRepo)
	}); err != nil {
		log.Fatalf("Failed to provide auth service: %v", err)
	}

	// Add LLM Manager
	if err := DiContainer.Provide(func() *llm.Manager {
		manager := llm.NewManager()

		switch config.Env.DefaultLLMClient {
		case constants.OpenAI:
			// Register default OpenAI client
			err := manager.RegisterClient(constants.OpenAI, llm.Config{
				Provider:            constants.OpenAI,
				Model:               config.Env.OpenAIModel,
				APIKey:              config.Env.OpenAIAPIKey,
				MaxCompletionTokens: config.Env.OpenAIMaxCompletionTokens,
				Temperature:         config.Env.OpenAITemperature,
				SystemPrompt:        constants.SystemPrompt,
				ResponseSchema:      constants.ResponseSchema,
			})
			if err != nil {
				log.Printf("Warning: Failed to register OpenAI client: %v", err)
			}
		case constants.Gemini:
			// Register default Gemini client
			err := manager.RegisterClient(constants.Gemini, llm.Config{
				Provider:            constants.Gemini,
				Model:               config.Env.GeminiModel,
				APIKey:              config.Env.GeminiAPIKey,
				MaxCompletionTokens: config.Env.GeminiMaxCompletionTokens,
				Temperature:         config.Env.GeminiTemperature,
				SystemPrompt:        constants.SystemPrompt,
				ResponseSchema:      constants.ResponseSchema,
			})
			if err != nil {
				log.Printf("Warning: Failed to register Gemini client: %v", err)
			}
		}
		return manager
	}); err != nil {
		log.Fatalf("Failed to provide LLM manager: %v", err)
	}

	// Chat service
	if err := DiContainer.Provide(func(
		convStore *store.Store,
		reconciler *services.StreamReconciler,
		conversationRepo repositories.ConversationRepository,
		llmManager *llm.Manager,
	) services.ChatService {
		return services.NewChatService(convStore, reconciler, conversationRepo, llmManager)
	}); err != nil {
		log.Fatalf("Failed to provide chat service: %v", err)
	}

	// Provide handlers
	if err := DiContainer.Provide(func(authService services.AuthService) *handlers.AuthHandler {
		return handlers.NewAuthHandler(authService)
	}); err != nil {
		log.Fatalf("Failed to provide auth handler: %v", err)
	}

	if err := DiContainer.Provide(func(chatService services.ChatService) *handlers.ChatHandler {
		return handlers.NewChatHandler(chatService)
	}); err != nil {
		log.Fatalf("Failed to provide chat handler: %v", err)
	}
}

// GetAuthHandler retrieves the AuthHandler from the DI container
func GetAuthHandler() (*handlers.AuthHandler, error) {
	var handler *handlers.AuthHandler
	err := DiContainer.Invoke(func(h *handlers.AuthHandler) {
		handler = h
	})
	if err != nil {
		return nil, err
	}
	return handler, nil
}

// GetChatHandler retrieves the ChatHandler from the DI container
func GetChatHandler() (*handlers.ChatHandler, error) {
	var handler *handlers.ChatHandler
	err := DiContainer.Invoke(func(h *handlers.ChatHandler) {
		handler = h
	})
	if err != nil {
		return nil, err
	}
	return handler, nil
}
