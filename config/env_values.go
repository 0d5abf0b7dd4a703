package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"draftly-ai/internal/constants"
)

type Environment struct {
	// Server configs
	IsDocker          bool
	Port              string
	Environment       string
	CorsAllowedOrigin string
	Locale            string

	// Auth configs
	JWTSecret                        string
	JWTExpirationMilliseconds        int
	JWTRefreshExpirationMilliseconds int

	// Conversation configs
	PersistenceBackend        string // redis, mongodb, memory
	ConversationMaxAgeHours   int
	SuggestedActionActivation string // single, double

	// Database configs
	MongoURI          string
	MongoDatabaseName string

	// Redis configs
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string

	// LLM configs
	DefaultLLMClient string

	// OpenAI configs
	OpenAIAPIKey              string
	OpenAIModel               string
	OpenAIMaxCompletionTokens int
	OpenAITemperature         float64

	// Gemini configs
	GeminiAPIKey              string
	GeminiModel               string
	GeminiMaxCompletionTokens int
	GeminiTemperature         float64
}

var Env Environment

// LoadEnv loads environment variables from .env file if present
// and validates required variables
func LoadEnv() error {
	// Check if running in Docker
	Env.IsDocker = os.Getenv("IS_DOCKER") == "true"

	// Load .env file only if not running in Docker
	if !Env.IsDocker {
		if err := godotenv.Load(); err != nil {
			fmt.Printf("Warning: .env file not found: %v\n", err)
		}
	}

	// Server configs
	Env.Port = getEnvWithDefault("PORT", "3000")
	Env.Environment = getEnvWithDefault("ENVIRONMENT", "DEVELOPMENT")
	Env.CorsAllowedOrigin = getEnvWithDefault("CORS_ALLOWED_ORIGIN", "http://localhost:5173")
	Env.Locale = getEnvWithDefault("LOCALE", "en")

	// Auth configs
	Env.JWTSecret = getRequiredEnv("JWT_SECRET", "draftly_jwt_secret")
	Env.JWTExpirationMilliseconds = getIntEnvWithDefault("JWT_EXPIRATION_MILLISECONDS", 1000*60*60*24*10)                 // 10 days default
	Env.JWTRefreshExpirationMilliseconds = getIntEnvWithDefault("JWT_REFRESH_EXPIRATION_MILLISECONDS", 1000*60*60*24*30) // 30 days default

	// Conversation configs
	Env.PersistenceBackend = getEnvWithDefault("PERSISTENCE_BACKEND", "redis")
	Env.ConversationMaxAgeHours = getIntEnvWithDefault("CONVERSATION_MAX_AGE_HOURS", 24*30)
	Env.SuggestedActionActivation = getEnvWithDefault("SUGGESTED_ACTION_ACTIVATION", constants.ActivationSingleClick)

	// Database configs
	Env.MongoURI = getRequiredEnv("DRAFTLY_MONGODB_URI", "mongodb://localhost:27017/draftly")
	Env.MongoDatabaseName = getRequiredEnv("DRAFTLY_MONGODB_NAME", "draftly")
	Env.RedisHost = getRequiredEnv("DRAFTLY_REDIS_HOST", "localhost")
	Env.RedisPort = getRequiredEnv("DRAFTLY_REDIS_PORT", "6379")
	Env.RedisUsername = getRequiredEnv("DRAFTLY_REDIS_USERNAME", "")
	Env.RedisPassword = getRequiredEnv("DRAFTLY_REDIS_PASSWORD", "")

	// LLM configs
	Env.DefaultLLMClient = getEnvWithDefault("DEFAULT_LLM_CLIENT", constants.OpenAI)

	// OpenAI configs
	Env.OpenAIAPIKey = getRequiredEnv("OPENAI_API_KEY", "")
	Env.OpenAIModel = getEnvWithDefault("OPENAI_MODEL", constants.OpenAIModel)
	Env.OpenAIMaxCompletionTokens = getIntEnvWithDefault("OPENAI_MAX_COMPLETION_TOKENS", constants.OpenAIMaxCompletionTokens)
	Env.OpenAITemperature = getFloatEnvWithDefault("OPENAI_TEMPERATURE", constants.OpenAITemperature)

	// Gemini configs
	Env.GeminiAPIKey = getRequiredEnv("GEMINI_API_KEY", "")
	Env.GeminiModel = getEnvWithDefault("GEMINI_MODEL", constants.GeminiModel)
	Env.GeminiMaxCompletionTokens = getIntEnvWithDefault("GEMINI_MAX_COMPLETION_TOKENS", constants.GeminiMaxCompletionTokens)
	Env.GeminiTemperature = getFloatEnvWithDefault("GEMINI_TEMPERATURE", constants.GeminiTemperature)

	return validateConfig()
}

// Helper functions to get environment variables with defaults and validation
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getRequiredEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvWithDefault(key string, defaultValue int) int {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(strValue)
	if err != nil {
		fmt.Printf("Warning: Invalid value for %s, using default: %d\n", key, defaultValue)
		return defaultValue
	}
	return value
}

func getFloatEnvWithDefault(key string, defaultValue float64) float64 {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		fmt.Printf("Warning: Invalid value for %s, using default: %f\n", key, defaultValue)
		return defaultValue
	}
	return value
}

func validateConfig() error {
	// Validate MongoDB URI format
	if !isValidURI(Env.MongoURI) {
		return fmt.Errorf("invalid MONGODB_URI format: %s", Env.MongoURI)
	}

	// Validate JWT expiration
	if Env.JWTExpirationMilliseconds <= 0 {
		return fmt.Errorf("JWT_EXPIRATION_MILLISECONDS must be positive, got: %d", Env.JWTExpirationMilliseconds)
	}

	switch Env.PersistenceBackend {
	case "redis", "mongodb", "memory":
	default:
		return fmt.Errorf("unsupported PERSISTENCE_BACKEND: %s", Env.PersistenceBackend)
	}

	switch Env.SuggestedActionActivation {
	case constants.ActivationSingleClick, constants.ActivationDoubleClick:
	default:
		return fmt.Errorf("unsupported SUGGESTED_ACTION_ACTIVATION: %s", Env.SuggestedActionActivation)
	}

	return nil
}

func isValidURI(uri string) bool {
	return len(uri) > 0 && (len(uri) > 10)
}
