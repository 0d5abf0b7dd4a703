package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"draftly-ai/internal/apis/dtos"
	"draftly-ai/internal/models"
	"draftly-ai/internal/repositories"
	"draftly-ai/internal/store"
	"draftly-ai/pkg/llm"
)

// fakeLLMClient replays scripted chunks. A non-nil block channel makes the
// stream wait between chunks so tests can interleave concurrent sessions.
type fakeLLMClient struct {
	chunks   []string
	err      error
	block    chan struct{}
	received [][]llm.Message
}

func (f *fakeLLMClient) StreamResponse(ctx context.Context, messages []llm.Message, onDelta llm.DeltaHandler) error {
	f.received = append(f.received, messages)
	for _, chunk := range f.chunks {
		if f.block != nil {
			select {
			case <-f.block:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		onDelta(chunk)
	}
	return f.err
}

func (f *fakeLLMClient) GetModelInfo() llm.ModelInfo {
	return llm.ModelInfo{Name: "fake-model", Provider: "fake"}
}

type fakeProvider struct {
	client llm.Client
}

func (p *fakeProvider) GetClient(string) (llm.Client, error) {
	return p.client, nil
}

func newChatFixture(client llm.Client) (ChatService, *store.Store, repositories.ConversationRepository) {
	convStore := store.NewStore()
	reconciler := NewStreamReconciler(convStore, "en")
	repo := repositories.NewMemoryConversationRepository(0)
	svc := NewChatService(convStore, reconciler, repo, &fakeProvider{client: client})
	return svc, convStore, repo
}

func waitTerminal(t *testing.T, convStore *store.Store, conversationID, messageID string) *models.ChatMessage {
	t.Helper()
	require.Eventually(t, func() bool {
		msg := convStore.FindMessage(conversationID, messageID)
		return msg != nil && msg.IsTerminal()
	}, 2*time.Second, 5*time.Millisecond)
	return convStore.FindMessage(conversationID, messageID)
}

func TestSendMessageStreamsToCompletion(t *testing.T) {
	client := &fakeLLMClient{chunks: []string{`{"response":"Hello`, ` there","suggested_actions":[]}`}}
	svc, convStore, _ := newChatFixture(client)

	resp, status, err := svc.SendMessage(context.Background(), "conv-1", "hi")
	require.NoError(t, err)
	assert.Equal(t, uint32(200), status)

	msg := waitTerminal(t, convStore, "conv-1", resp.AssistantMessageID)
	assert.Equal(t, models.MessageStatusDone, msg.Status)
	assert.Equal(t, "Hello there", msg.Content)
	assert.Equal(t, "fake-model", msg.Metadata.Model)

	userMsg := convStore.FindMessage("conv-1", resp.UserMessageID)
	assert.Equal(t, "hi", userMsg.Content)
}

func TestSendMessagePersistsOnCompletion(t *testing.T) {
	client := &fakeLLMClient{chunks: []string{`{"response":"saved","suggested_actions":[]}`}}
	svc, convStore, repo := newChatFixture(client)

	resp, _, err := svc.SendMessage(context.Background(), "conv-1", "hi")
	require.NoError(t, err)
	waitTerminal(t, convStore, "conv-1", resp.AssistantMessageID)

	require.Eventually(t, func() bool {
		record, loadErr := repo.Load(context.Background(), "conv-1")
		return loadErr == nil && record != nil && len(record.Messages) == 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestQuickActionShowsDisplayLabelNotInstruction(t *testing.T) {
	client := &fakeLLMClient{chunks: []string{`{"response":"Summary.","suggested_actions":[]}`}}
	svc, convStore, _ := newChatFixture(client)

	resp, status, err := svc.TriggerQuickAction(context.Background(), "conv-1", "summarize", "Dear team, the Q3 numbers...")
	require.NoError(t, err)
	assert.Equal(t, uint32(200), status)
	assert.NotEmpty(t, resp.TriggerID)

	waitTerminal(t, convStore, "conv-1", resp.AssistantMessageID)

	userMsg := convStore.FindMessage("conv-1", resp.UserMessageID)
	assert.Equal(t, "Summarize this email", userMsg.Content, "transcript shows the display label")

	require.Len(t, client.received, 1)
	prompt := client.received[0][len(client.received[0])-1]
	assert.Contains(t, prompt.Content, "Summarize the email thread", "model receives the backend instruction")
	assert.Contains(t, prompt.Content, "Q3 numbers", "email context is appended to the instruction")
	assert.NotContains(t, prompt.Content, "Summarize this email")
}

func TestUnknownQuickActionIsRejected(t *testing.T) {
	svc, _, _ := newChatFixture(&fakeLLMClient{})
	_, status, err := svc.TriggerQuickAction(context.Background(), "conv-1", "nonexistent", "")
	assert.Error(t, err)
	assert.Equal(t, uint32(400), status)
}

func TestConcurrentQuickActionsAreIndependent(t *testing.T) {
	clientA := &fakeLLMClient{chunks: []string{`{"response":"answer A","suggested_actions":[]}`}, block: make(chan struct{})}
	convStore := store.NewStore()
	reconciler := NewStreamReconciler(convStore, "en")
	repo := repositories.NewMemoryConversationRepository(0)

	// Two service handles over the same store and reconciler, so each trigger
	// gets its own scripted client.
	svcA := NewChatService(convStore, reconciler, repo, &fakeProvider{client: clientA})

	respA, _, err := svcA.TriggerQuickAction(context.Background(), "conv-1", "summarize", "email one")
	require.NoError(t, err)

	clientB := &fakeLLMClient{chunks: []string{`{"response":"answer B","suggested_actions":[]}`}}
	svcB := NewChatService(convStore, reconciler, repo, &fakeProvider{client: clientB})
	respB, _, err := svcB.TriggerQuickAction(context.Background(), "conv-1", "correct", "email two")
	require.NoError(t, err)

	// B finishes while A is still blocked mid-stream.
	msgB := waitTerminal(t, convStore, "conv-1", respB.AssistantMessageID)
	assert.Equal(t, "answer B", msgB.Content)
	assert.False(t, convStore.FindMessage("conv-1", respA.AssistantMessageID).IsTerminal())

	close(clientA.block)
	msgA := waitTerminal(t, convStore, "conv-1", respA.AssistantMessageID)
	assert.Equal(t, "answer A", msgA.Content, "A's completion does not touch B's message and vice versa")
	assert.NotEqual(t, respA.AssistantMessageID, respB.AssistantMessageID)
}

func TestCancelGenerationKeepsPartialOutput(t *testing.T) {
	block := make(chan struct{}, 2)
	client := &fakeLLMClient{chunks: []string{`{"response":"partial answer`, ` that keeps going"}`}, block: block}
	svc, convStore, _ := newChatFixture(client)

	resp, _, err := svc.SendMessage(context.Background(), "conv-1", "hi")
	require.NoError(t, err)

	// Let the first chunk through, then cancel mid-stream.
	block <- struct{}{}
	require.Eventually(t, func() bool {
		msg := convStore.FindMessage("conv-1", resp.AssistantMessageID)
		return msg != nil && msg.Content == "partial answer"
	}, 2*time.Second, 5*time.Millisecond)

	status, err := svc.CancelGeneration("conv-1", resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, uint32(200), status)

	msg := waitTerminal(t, convStore, "conv-1", resp.AssistantMessageID)
	assert.Equal(t, models.MessageStatusIncomplete, msg.Status)
	assert.Equal(t, "partial answer", msg.Content)
}

func TestCancelUnknownSessionReturnsNotFound(t *testing.T) {
	svc, _, _ := newChatFixture(&fakeLLMClient{})
	status, err := svc.CancelGeneration("conv-1", "no-such-session")
	assert.Error(t, err)
	assert.Equal(t, uint32(404), status)
}

func TestTransportErrorProducesLocalizedErrorMessage(t *testing.T) {
	client := &fakeLLMClient{chunks: []string{`{"response":"part`}, err: assert.AnError}
	svc, convStore, _ := newChatFixture(client)

	resp, _, err := svc.SendMessage(context.Background(), "conv-1", "hi")
	require.NoError(t, err)

	msg := waitTerminal(t, convStore, "conv-1", resp.AssistantMessageID)
	assert.Equal(t, models.MessageStatusError, msg.Status)
	assert.NotContains(t, msg.Content, "part", "error text replaces partial content")
}

func TestActivateSuggestedActionSendsLabelThroughNormalPath(t *testing.T) {
	client := &fakeLLMClient{chunks: []string{`{"response":"Done.","suggested_actions":[{"label":"Draft a reply","action":"reply"}]}`}}
	svc, convStore, _ := newChatFixture(client)

	resp, _, err := svc.SendMessage(context.Background(), "conv-1", "hi")
	require.NoError(t, err)
	waitTerminal(t, convStore, "conv-1", resp.AssistantMessageID)

	activation, status, err := svc.ActivateSuggestedAction(context.Background(), "conv-1", &dtos.ActivateSuggestionRequest{
		MessageID: resp.AssistantMessageID,
		Label:     "Draft a reply",
		Action:    "reply",
		Clicks:    1,
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(200), status)
	require.True(t, activation.Activated)
	require.NotNil(t, activation.Sent)

	newUser := convStore.FindMessage("conv-1", activation.Sent.UserMessageID)
	assert.Equal(t, "Draft a reply", newUser.Content)

	// The new user turn cleared the suggestion it came from.
	assert.Empty(t, convStore.FindMessage("conv-1", resp.AssistantMessageID).SuggestedActions)

	waitTerminal(t, convStore, "conv-1", activation.Sent.AssistantMessageID)
}

func TestActivateUnknownSuggestionIsRejected(t *testing.T) {
	client := &fakeLLMClient{chunks: []string{`{"response":"Done.","suggested_actions":[]}`}}
	svc, convStore, _ := newChatFixture(client)

	resp, _, err := svc.SendMessage(context.Background(), "conv-1", "hi")
	require.NoError(t, err)
	waitTerminal(t, convStore, "conv-1", resp.AssistantMessageID)

	_, status, err := svc.ActivateSuggestedAction(context.Background(), "conv-1", &dtos.ActivateSuggestionRequest{
		MessageID: resp.AssistantMessageID,
		Label:     "Never offered",
		Action:    "nope",
		Clicks:    1,
	})
	assert.Error(t, err)
	assert.Equal(t, uint32(404), status)
}

func TestLoadConversationHydratesFromStorage(t *testing.T) {
	repo := repositories.NewMemoryConversationRepository(0)
	saved := &models.Conversation{
		ID: "conv-1",
		Messages: []*models.ChatMessage{
			models.NewUserMessage("old question"),
		},
	}
	require.NoError(t, repo.Save(context.Background(), repositories.NewConversationRecord(saved)))

	convStore := store.NewStore()
	svc := NewChatService(convStore, NewStreamReconciler(convStore, "en"), repo, &fakeProvider{client: &fakeLLMClient{}})

	conv, status, err := svc.LoadConversation(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Equal(t, uint32(200), status)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "old question", conv.Messages[0].Content)
}

func TestClearConversationDropsMemoryAndStorage(t *testing.T) {
	client := &fakeLLMClient{chunks: []string{`{"response":"x","suggested_actions":[]}`}}
	svc, convStore, repo := newChatFixture(client)

	resp, _, err := svc.SendMessage(context.Background(), "conv-1", "hi")
	require.NoError(t, err)
	waitTerminal(t, convStore, "conv-1", resp.AssistantMessageID)

	status, err := svc.ClearConversation(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Equal(t, uint32(200), status)
	assert.Empty(t, convStore.Snapshot("conv-1").Messages)

	record, err := repo.Load(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestListQuickActionsExposesNoInstructions(t *testing.T) {
	svc, _, _ := newChatFixture(&fakeLLMClient{})
	list := svc.ListQuickActions()
	require.NotEmpty(t, list.QuickActions)
	for _, qa := range list.QuickActions {
		assert.NotEmpty(t, qa.Key)
		assert.NotEmpty(t, qa.DisplayLabel)
	}
}
