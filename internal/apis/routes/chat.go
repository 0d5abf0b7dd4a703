package routes

import (
	"log"

	"github.com/gin-gonic/gin"

	"draftly-ai/internal/apis/middlewares"
	"draftly-ai/internal/di"
)

func SetupChatRoutes(router *gin.Engine) {
	chatHandler, err := di.GetChatHandler()
	if err != nil {
		log.Fatalf("Failed to get chat handler: %v", err)
	}

	// Quick action catalogue is public; labels carry no user data.
	router.GET("/api/quick-actions", chatHandler.ListQuickActions)

	protected := router.Group("/api/conversations")
	protected.Use(middlewares.AuthMiddleware())
	{
		// Conversation transcript
		protected.GET("/:id", chatHandler.GetConversation)
		protected.POST("/:id/persist", chatHandler.PersistConversation)
		protected.DELETE("/:id/messages", chatHandler.ClearConversation)

		// Generation
		protected.POST("/:id/messages", chatHandler.SendMessage)
		protected.POST("/:id/quick-actions", chatHandler.TriggerQuickAction)
		protected.POST("/:id/suggestions/activate", chatHandler.ActivateSuggestedAction)

		// SSE endpoints for streaming
		protected.GET("/:id/stream", chatHandler.StreamConversation)
		protected.POST("/:id/stream/cancel", chatHandler.CancelGeneration)
	}
}
