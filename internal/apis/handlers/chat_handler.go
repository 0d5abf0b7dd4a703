package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"draftly-ai/internal/apis/dtos"
	"draftly-ai/internal/constants"
	"draftly-ai/internal/services"
	"draftly-ai/internal/store"
)

type ChatHandler struct {
	chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// @Summary Send a message
// @Description Append a user message and start a generation for it
// @Accept json
// @Produce json
// @Param id path string true "Conversation ID"
// @Param sendMessageRequest body dtos.SendMessageRequest true "Send message request"
// @Success 200 {object} dtos.Response

func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req dtos.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorMsg := err.Error()
		c.JSON(http.StatusBadRequest, dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	conversationID := c.Param("id")
	response, statusCode, err := h.chatService.SendMessage(c.Request.Context(), conversationID, req.Content)
	if err != nil {
		errorMsg := err.Error()
		c.JSON(int(statusCode), dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}

// @Summary Trigger a quick action
// @Description Start a generation from a predefined trigger
// @Accept json
// @Produce json
// @Param id path string true "Conversation ID"
// @Param quickActionRequest body dtos.QuickActionRequest true "Quick action request"
// @Success 200 {object} dtos.Response

func (h *ChatHandler) TriggerQuickAction(c *gin.Context) {
	var req dtos.QuickActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorMsg := err.Error()
		c.JSON(http.StatusBadRequest, dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	conversationID := c.Param("id")
	response, statusCode, err := h.chatService.TriggerQuickAction(c.Request.Context(), conversationID, req.ActionKey, req.Context)
	if err != nil {
		errorMsg := err.Error()
		c.JSON(int(statusCode), dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}

// @Summary Activate a suggested action
// @Description Send a clicked suggestion as a new user message
// @Accept json
// @Produce json
// @Param id path string true "Conversation ID"
// @Param activateSuggestionRequest body dtos.ActivateSuggestionRequest true "Activate suggestion request"
// @Success 200 {object} dtos.Response

func (h *ChatHandler) ActivateSuggestedAction(c *gin.Context) {
	var req dtos.ActivateSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorMsg := err.Error()
		c.JSON(http.StatusBadRequest, dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	conversationID := c.Param("id")
	response, statusCode, err := h.chatService.ActivateSuggestedAction(c.Request.Context(), conversationID, &req)
	if err != nil {
		errorMsg := err.Error()
		c.JSON(int(statusCode), dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}

// @Summary Cancel a generation
// @Description Cancel an in-flight stream session, keeping partial output
// @Accept json
// @Produce json
// @Param id path string true "Conversation ID"
// @Param cancelGenerationRequest body dtos.CancelGenerationRequest true "Cancel generation request"
// @Success 200 {object} dtos.Response

func (h *ChatHandler) CancelGeneration(c *gin.Context) {
	var req dtos.CancelGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorMsg := err.Error()
		c.JSON(http.StatusBadRequest, dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	conversationID := c.Param("id")
	statusCode, err := h.chatService.CancelGeneration(conversationID, req.SessionID)
	if err != nil {
		errorMsg := err.Error()
		c.JSON(int(statusCode), dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    "Generation cancelled",
	})
}

// @Summary Get conversation
// @Description Load the full transcript of a conversation
// @Accept json
// @Produce json
// @Param id path string true "Conversation ID"
// @Success 200 {object} dtos.Response

func (h *ChatHandler) GetConversation(c *gin.Context) {
	conversationID := c.Param("id")
	response, statusCode, err := h.chatService.LoadConversation(c.Request.Context(), conversationID)
	if err != nil {
		errorMsg := err.Error()
		c.JSON(int(statusCode), dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}

// @Summary Persist conversation
// @Description Explicitly save the conversation to durable storage
// @Accept json
// @Produce json
// @Param id path string true "Conversation ID"
// @Success 200 {object} dtos.Response

func (h *ChatHandler) PersistConversation(c *gin.Context) {
	conversationID := c.Param("id")
	statusCode, err := h.chatService.PersistConversation(c.Request.Context(), conversationID)
	if err != nil {
		errorMsg := err.Error()
		c.JSON(int(statusCode), dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    "Conversation persisted",
	})
}

// @Summary Clear conversation
// @Description Drop the transcript from memory and durable storage
// @Accept json
// @Produce json
// @Param id path string true "Conversation ID"
// @Success 200 {object} dtos.Response

func (h *ChatHandler) ClearConversation(c *gin.Context) {
	conversationID := c.Param("id")
	statusCode, err := h.chatService.ClearConversation(c.Request.Context(), conversationID)
	if err != nil {
		errorMsg := err.Error()
		c.JSON(int(statusCode), dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    "Conversation cleared",
	})
}

// @Summary List quick actions
// @Description List the quick action catalogue with display labels
// @Accept json
// @Produce json
// @Success 200 {object} dtos.Response

func (h *ChatHandler) ListQuickActions(c *gin.Context) {
	c.JSON(http.StatusOK, dtos.Response{
		Success: true,
		Data:    h.chatService.ListQuickActions(),
	})
}

// StreamConversation handles the SSE endpoint. It subscribes to the
// conversation's event channel and forwards every delta, complete and error
// event until the client disconnects.
func (h *ChatHandler) StreamConversation(c *gin.Context) {
	conversationID := c.Param("id")
	log.Printf("Starting stream for conversation: %s", conversationID)

	events, unsubscribe := h.chatService.Subscribe(conversationID)
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Transfer-Encoding", "chunked")

	ctx := c.Request.Context()
	heartbeatTicker := time.NewTicker(30 * time.Second)
	defer heartbeatTicker.Stop()

	// Send initial connection event
	writeStreamEvent(c, dtos.StreamResponse{
		Event: constants.StreamEventConnected,
		Data:  "Stream established",
	})

	for {
		select {
		case <-ctx.Done():
			log.Printf("Client disconnected for conversation: %s", conversationID)
			return

		case <-heartbeatTicker.C:
			writeStreamEvent(c, dtos.StreamResponse{
				Event: constants.StreamEventHeartbeat,
				Data:  "ping",
			})

		case event, ok := <-events:
			if !ok {
				log.Printf("Event channel closed for conversation: %s", conversationID)
				return
			}
			writeStreamEvent(c, toStreamResponse(event))
		}
	}
}

func toStreamResponse(event store.Event) dtos.StreamResponse {
	switch event.Type {
	case store.EventComplete:
		return dtos.StreamResponse{Event: constants.StreamEventComplete, Data: event}
	case store.EventError:
		return dtos.StreamResponse{Event: constants.StreamEventError, Data: event}
	default:
		return dtos.StreamResponse{Event: constants.StreamEventDelta, Data: event}
	}
}

func writeStreamEvent(c *gin.Context, msg dtos.StreamResponse) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling stream event: %v", err)
		return
	}
	c.Writer.Write([]byte(fmt.Sprintf("data: %s\n\n", data)))
	c.Writer.Flush()
}
