package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"draftly-ai/internal/constants"
	"draftly-ai/internal/models"
	"draftly-ai/internal/store"
)

func newReconcilerFixture(t *testing.T) (*StreamReconciler, *store.Store, string) {
	t.Helper()
	convStore := store.NewStore()
	user := models.NewUserMessage("summarize this")
	assistant := models.NewAssistantPlaceholder()
	require.NoError(t, convStore.AppendMessagePair("conv-1", user, assistant))

	r := NewStreamReconciler(convStore, "en")
	require.NoError(t, r.Open("sess-1", "conv-1", assistant.ID, "gpt-4o"))
	return r, convStore, assistant.ID
}

func TestReconcilerAppliesChunksInOrder(t *testing.T) {
	r, convStore, messageID := newReconcilerFixture(t)

	chunks := []string{`{"resp`, `onse":"Hel`, `lo world"`, `,"suggested_actions":[]}`}
	expected := []string{"", "Hel", "Hello world", "Hello world"}

	for i, chunk := range chunks {
		require.NoError(t, r.Append("sess-1", chunk))
		assert.Equal(t, expected[i], convStore.FindMessage("conv-1", messageID).Content, "after chunk %d", i+1)
	}

	require.NoError(t, r.Complete("sess-1"))
	msg := convStore.FindMessage("conv-1", messageID)
	assert.Equal(t, "Hello world", msg.Content)
	assert.Equal(t, models.MessageStatusDone, msg.Status)
	assert.Empty(t, msg.SuggestedActions)
}

func TestCompleteAttachesSuggestedActions(t *testing.T) {
	r, convStore, messageID := newReconcilerFixture(t)

	payload := `{"response":"Done.","suggested_actions":[` +
		`{"label":"Draft a reply","action":"reply","category":"compose"},` +
		`{"label":"Draft a reply","action":"reply","category":"compose"},` +
		`{"label":"Translate","action":"translate"}]}`
	require.NoError(t, r.Append("sess-1", payload))
	require.NoError(t, r.Complete("sess-1"))

	msg := convStore.FindMessage("conv-1", messageID)
	require.Len(t, msg.SuggestedActions, 2, "duplicate (label, action) pairs collapse")
	assert.Equal(t, "reply", msg.SuggestedActions[0].Action)
	assert.Equal(t, "translate", msg.SuggestedActions[1].Action)
	require.NotNil(t, msg.Metadata)
	assert.Equal(t, "gpt-4o", msg.Metadata.Model)
}

func TestCompleteFallsBackOnMalformedFinalPayload(t *testing.T) {
	r, convStore, messageID := newReconcilerFixture(t)

	// Valid prefix, then the stream dies mid-object.
	require.NoError(t, r.Append("sess-1", `{"response":"Partial answer","suggested_`))
	require.NoError(t, r.Complete("sess-1"))

	msg := convStore.FindMessage("conv-1", messageID)
	assert.Equal(t, models.MessageStatusDone, msg.Status)
	assert.Equal(t, "Partial answer", msg.Content, "extractor text survives a failed strict parse")
	assert.Empty(t, msg.SuggestedActions)
}

func TestDuplicateCompleteIsNoOp(t *testing.T) {
	r, convStore, messageID := newReconcilerFixture(t)

	require.NoError(t, r.Append("sess-1", `{"response":"ok","suggested_actions":[]}`))
	require.NoError(t, r.Complete("sess-1"))
	require.NoError(t, r.Complete("sess-1"), "duplicate completion signals are absorbed")
	require.NoError(t, r.Fail("sess-1", errors.New("late failure")), "late fail after done is absorbed")

	msg := convStore.FindMessage("conv-1", messageID)
	assert.Equal(t, models.MessageStatusDone, msg.Status)
	assert.Equal(t, "ok", msg.Content)
}

func TestFailReplacesContentWithLocalizedError(t *testing.T) {
	convStore := store.NewStore()
	user := models.NewUserMessage("hi")
	assistant := models.NewAssistantPlaceholder()
	require.NoError(t, convStore.AppendMessagePair("conv-1", user, assistant))

	r := NewStreamReconciler(convStore, "fr")
	require.NoError(t, r.Open("sess-1", "conv-1", assistant.ID, "gpt-4o"))
	require.NoError(t, r.Append("sess-1", `{"response":"partial`))
	require.NoError(t, r.Fail("sess-1", errors.New("connection reset")))

	msg := convStore.FindMessage("conv-1", assistant.ID)
	assert.Equal(t, models.MessageStatusError, msg.Status)
	assert.Equal(t, constants.GenerationFailedMessage("fr"), msg.Content)
}

func TestAbandonKeepsPartialText(t *testing.T) {
	r, convStore, messageID := newReconcilerFixture(t)

	require.NoError(t, r.Append("sess-1", `{"response":"Hel`))
	require.NoError(t, r.Append("sess-1", `lo`))
	require.NoError(t, r.Abandon("sess-1"))

	msg := convStore.FindMessage("conv-1", messageID)
	assert.Equal(t, models.MessageStatusIncomplete, msg.Status)
	assert.Equal(t, "Hello", msg.Content, "partial output is preserved on abandon")

	assert.Error(t, r.Append("sess-1", "more"), "terminal session accepts no further deltas")
}

func TestOpenRejectsSecondSessionOnSameMessage(t *testing.T) {
	r, _, messageID := newReconcilerFixture(t)

	err := r.Open("sess-2", "conv-1", messageID, "gpt-4o")
	assert.Error(t, err)
}

func TestReleaseDropsOnlyTerminalSessions(t *testing.T) {
	r, _, _ := newReconcilerFixture(t)

	r.Release("sess-1")
	assert.Equal(t, SessionStatusStreaming, r.SessionStatus("sess-1"), "active sessions survive Release")

	require.NoError(t, r.Append("sess-1", `{"response":"ok","suggested_actions":[]}`))
	require.NoError(t, r.Complete("sess-1"))
	r.Release("sess-1")
	assert.Equal(t, "", r.SessionStatus("sess-1"))
}
