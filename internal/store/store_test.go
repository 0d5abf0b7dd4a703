package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"draftly-ai/internal/models"
)

func appendPair(t *testing.T, s *Store, conversationID string) (*models.ChatMessage, *models.ChatMessage) {
	t.Helper()
	user := models.NewUserMessage("hello")
	assistant := models.NewAssistantPlaceholder()
	require.NoError(t, s.AppendMessagePair(conversationID, user, assistant))
	return user, assistant
}

func TestAppendMessagePairIsAtomic(t *testing.T) {
	s := NewStore()
	user, assistant := appendPair(t, s, "conv-1")

	conv := s.Snapshot("conv-1")
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, user.ID, conv.Messages[0].ID)
	assert.Equal(t, assistant.ID, conv.Messages[1].ID)
	assert.Equal(t, models.MessageStatusStreaming, conv.Messages[1].Status)
}

func TestAppendMessagePairRejectsDuplicateIDs(t *testing.T) {
	s := NewStore()
	user, assistant := appendPair(t, s, "conv-1")

	err := s.AppendMessagePair("conv-1", user, assistant)
	assert.Error(t, err)
	assert.Len(t, s.Snapshot("conv-1").Messages, 2)
}

func TestAppendClearsEarlierSuggestedActions(t *testing.T) {
	s := NewStore()
	_, assistant := appendPair(t, s, "conv-1")

	actions := []models.SuggestedAction{{Label: "Draft a reply", Action: "reply"}}
	require.NoError(t, s.FinalizeMessage("conv-1", assistant.ID, "sess-1", models.MessageStatusDone, "done", actions, nil))
	require.NotEmpty(t, s.FindMessage("conv-1", assistant.ID).SuggestedActions)

	appendPair(t, s, "conv-1")
	assert.Empty(t, s.FindMessage("conv-1", assistant.ID).SuggestedActions,
		"stale suggestions must not survive into a new turn")
}

func TestUpdateStreamingContentPublishesDelta(t *testing.T) {
	s := NewStore()
	_, assistant := appendPair(t, s, "conv-1")

	events, unsubscribe := s.Subscribe("conv-1")
	defer unsubscribe()

	require.NoError(t, s.UpdateStreamingContent("conv-1", assistant.ID, "sess-1", "Hel"))

	event := <-events
	assert.Equal(t, EventDelta, event.Type)
	assert.Equal(t, assistant.ID, event.MessageID)
	assert.Equal(t, "Hel", event.Content)
	assert.Equal(t, "Hel", s.FindMessage("conv-1", assistant.ID).Content)
}

func TestTerminalMessageIsImmutable(t *testing.T) {
	s := NewStore()
	_, assistant := appendPair(t, s, "conv-1")

	require.NoError(t, s.FinalizeMessage("conv-1", assistant.ID, "sess-1", models.MessageStatusDone, "final", nil, nil))

	assert.Error(t, s.UpdateStreamingContent("conv-1", assistant.ID, "sess-1", "more"))
	assert.Error(t, s.FinalizeMessage("conv-1", assistant.ID, "sess-1", models.MessageStatusError, "other", nil, nil))
	assert.Equal(t, "final", s.FindMessage("conv-1", assistant.ID).Content)
}

func TestFinalizeMessagePublishesTypedEvents(t *testing.T) {
	s := NewStore()
	_, assistant := appendPair(t, s, "conv-1")
	_, errored := appendPair(t, s, "conv-2")

	events1, unsub1 := s.Subscribe("conv-1")
	defer unsub1()
	events2, unsub2 := s.Subscribe("conv-2")
	defer unsub2()

	require.NoError(t, s.FinalizeMessage("conv-1", assistant.ID, "s1", models.MessageStatusDone, "ok", nil, nil))
	require.NoError(t, s.FinalizeMessage("conv-2", errored.ID, "s2", models.MessageStatusError, "failed", nil, nil))

	event := <-events1
	assert.Equal(t, EventComplete, event.Type)
	require.NotNil(t, event.Message)
	assert.Equal(t, models.MessageStatusDone, event.Message.Status)

	event = <-events2
	assert.Equal(t, EventError, event.Type)
}

func TestSubscribeCancelIsDeterministic(t *testing.T) {
	s := NewStore()
	events, unsubscribe := s.Subscribe("conv-1")

	unsubscribe()
	_, open := <-events
	assert.False(t, open, "channel must be closed after unsubscribe")

	// A second cancel is a no-op, not a double close.
	unsubscribe()
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := NewStore()
	_, assistant := appendPair(t, s, "conv-1")

	conv := s.Snapshot("conv-1")
	conv.Messages[1].Content = "mutated"

	assert.NotEqual(t, "mutated", s.FindMessage("conv-1", assistant.ID).Content)
}

func TestHydratePrefersInMemoryState(t *testing.T) {
	s := NewStore()
	appendPair(t, s, "conv-1")

	stale := models.NewUserMessage("stale snapshot")
	s.Hydrate("conv-1", []*models.ChatMessage{stale})

	conv := s.Snapshot("conv-1")
	require.Len(t, conv.Messages, 2)
	assert.NotEqual(t, stale.ID, conv.Messages[0].ID)
}

func TestConcurrentWritersOnDistinctMessages(t *testing.T) {
	s := NewStore()
	const writers = 8

	assistants := make([]*models.ChatMessage, writers)
	for i := 0; i < writers; i++ {
		user := models.NewUserMessage(fmt.Sprintf("msg %d", i))
		assistants[i] = models.NewAssistantPlaceholder()
		require.NoError(t, s.AppendMessagePair("conv-1", user, assistants[i]))
	}

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.UpdateStreamingContent("conv-1", assistants[i].ID, "sess", fmt.Sprintf("content %d-%d", i, j))
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < writers; i++ {
		assert.Equal(t, fmt.Sprintf("content %d-49", i), s.FindMessage("conv-1", assistants[i].ID).Content)
	}
}
