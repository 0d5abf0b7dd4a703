package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"draftly-ai/internal/models"
)

func sampleConversation() *models.Conversation {
	user := models.NewUserMessage("summarize this thread")
	assistant := models.NewAssistantPlaceholder()
	assistant.Content = "Here is the summary."
	assistant.Status = models.MessageStatusDone
	assistant.SuggestedActions = []models.SuggestedAction{{Label: "Draft a reply", Action: "reply"}}
	return &models.Conversation{
		ID:          "conv-1",
		Messages:    []*models.ChatMessage{user, assistant},
		LastUpdated: time.Now(),
	}
}

func TestRecordRoundTrip(t *testing.T) {
	repo := NewMemoryConversationRepository(time.Hour)
	conv := sampleConversation()

	require.NoError(t, repo.Save(context.Background(), NewConversationRecord(conv)))

	loaded, err := repo.Load(context.Background(), "conv-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Len(t, loaded.Messages, 2)

	for i, msg := range loaded.Messages {
		assert.Equal(t, conv.Messages[i].ID, msg.ID)
		assert.Equal(t, conv.Messages[i].Role, msg.Role)
		assert.Equal(t, conv.Messages[i].Content, msg.Content)
	}
	assert.Equal(t, conv.Messages[1].SuggestedActions, loaded.Messages[1].SuggestedActions)
}

func TestRecordNormalizesStreamingStatus(t *testing.T) {
	conv := sampleConversation()
	conv.Messages[1].Status = models.MessageStatusStreaming

	record := NewConversationRecord(conv)
	assert.Equal(t, models.MessageStatusIncomplete, record.Messages[1].Status,
		"ephemeral streaming state must not round-trip")
	// Building the record does not touch the live message.
	assert.Equal(t, models.MessageStatusStreaming, conv.Messages[1].Status)
}

func TestLoadUnknownConversationReturnsNil(t *testing.T) {
	repo := NewMemoryConversationRepository(time.Hour)
	loaded, err := repo.Load(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLoadDiscardsUnrecognizedVersion(t *testing.T) {
	repo := NewMemoryConversationRepository(time.Hour)
	record := NewConversationRecord(sampleConversation())
	record.Version = 99
	require.NoError(t, repo.Save(context.Background(), record))

	loaded, err := repo.Load(context.Background(), "conv-1")
	require.NoError(t, err, "a foreign payload never surfaces as an error")
	assert.Nil(t, loaded, "unrecognized version yields an empty conversation")
}

func TestLoadEvictsExpiredRecords(t *testing.T) {
	repo := NewMemoryConversationRepository(time.Hour)
	record := NewConversationRecord(sampleConversation())
	record.SavedAt = time.Now().Add(-2 * time.Hour)
	require.NoError(t, repo.Save(context.Background(), record))

	loaded, err := repo.Load(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Eviction happened during load, not just filtering.
	fresh := NewConversationRecord(sampleConversation())
	require.NoError(t, repo.Save(context.Background(), fresh))
	loaded, err = repo.Load(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.NotNil(t, loaded)
}

func TestDeleteRemovesRecord(t *testing.T) {
	repo := NewMemoryConversationRepository(time.Hour)
	require.NoError(t, repo.Save(context.Background(), NewConversationRecord(sampleConversation())))
	require.NoError(t, repo.Delete(context.Background(), "conv-1"))

	loaded, err := repo.Load(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
