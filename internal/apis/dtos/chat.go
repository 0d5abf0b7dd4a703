package dtos

import "draftly-ai/internal/models"

type SuggestedAction struct {
	Label    string `json:"label"`
	Action   string `json:"action"`
	Category string `json:"category,omitempty"`
}

type MessageMetadata struct {
	Tokens           int    `json:"tokens,omitempty"`
	GenerationTimeMs int64  `json:"generation_time_ms,omitempty"`
	Model            string `json:"model,omitempty"`
}

type MessageResponse struct {
	ID               string            `json:"id"`
	Role             string            `json:"role"`
	Content          string            `json:"content"`
	Timestamp        string            `json:"timestamp"`
	Status           string            `json:"status,omitempty"`
	SuggestedActions []SuggestedAction `json:"suggested_actions,omitempty"`
	Metadata         *MessageMetadata  `json:"metadata,omitempty"`
}

type ConversationResponse struct {
	ID          string            `json:"id"`
	Messages    []MessageResponse `json:"messages"`
	LastUpdated string            `json:"last_updated"`
}

type QuickActionResponse struct {
	Key          string `json:"key"`
	DisplayLabel string `json:"display_label"`
	Category     string `json:"category"`
}

type QuickActionListResponse struct {
	QuickActions []QuickActionResponse `json:"quick_actions"`
}

func ToMessageDto(msg *models.ChatMessage) MessageResponse {
	dto := MessageResponse{
		ID:        msg.ID,
		Role:      msg.Role,
		Content:   msg.Content,
		Timestamp: msg.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		Status:    msg.Status,
	}
	for _, sa := range msg.SuggestedActions {
		dto.SuggestedActions = append(dto.SuggestedActions, SuggestedAction{
			Label:    sa.Label,
			Action:   sa.Action,
			Category: sa.Category,
		})
	}
	if msg.Metadata != nil {
		dto.Metadata = &MessageMetadata{
			Tokens:           msg.Metadata.Tokens,
			GenerationTimeMs: msg.Metadata.GenerationTimeMs,
			Model:            msg.Metadata.Model,
		}
	}
	return dto
}

func ToConversationDto(conv *models.Conversation) *ConversationResponse {
	resp := &ConversationResponse{
		ID:       conv.ID,
		Messages: make([]MessageResponse, 0, len(conv.Messages)),
	}
	if !conv.LastUpdated.IsZero() {
		resp.LastUpdated = conv.LastUpdated.Format("2006-01-02T15:04:05Z07:00")
	}
	for _, msg := range conv.Messages {
		resp.Messages = append(resp.Messages, ToMessageDto(msg))
	}
	return resp
}
