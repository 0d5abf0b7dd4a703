package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"draftly-ai/config"
	"draftly-ai/internal/apis/dtos"
	"draftly-ai/internal/constants"
	"draftly-ai/internal/models"
	"draftly-ai/internal/repositories"
	"draftly-ai/internal/store"
	"draftly-ai/pkg/llm"
)

// Quick action trigger states.
const (
	TriggerStatusCreated   = "created"
	TriggerStatusPending   = "pending"
	TriggerStatusStreaming = "streaming"
	TriggerStatusComplete  = "complete"
	TriggerStatusFailed    = "failed"
)

type quickActionTrigger struct {
	triggerID string
	actionKey string
	sessionID string
	createdAt time.Time
	status    string
}

// LLMProvider resolves a named streaming client. Satisfied by *llm.Manager.
type LLMProvider interface {
	GetClient(name string) (llm.Client, error)
}

type ChatService interface {
	SendMessage(ctx context.Context, conversationID, content string) (*dtos.SendMessageResponse, uint32, error)
	TriggerQuickAction(ctx context.Context, conversationID, actionKey, emailContext string) (*dtos.SendMessageResponse, uint32, error)
	ActivateSuggestedAction(ctx context.Context, conversationID string, req *dtos.ActivateSuggestionRequest) (*dtos.ActivateSuggestionResponse, uint32, error)
	CancelGeneration(conversationID, sessionID string) (uint32, error)
	LoadConversation(ctx context.Context, conversationID string) (*dtos.ConversationResponse, uint32, error)
	PersistConversation(ctx context.Context, conversationID string) (uint32, error)
	ClearConversation(ctx context.Context, conversationID string) (uint32, error)
	ListQuickActions() *dtos.QuickActionListResponse
	Subscribe(conversationID string) (<-chan store.Event, func())
}

type chatService struct {
	store            *store.Store
	reconciler       *StreamReconciler
	conversationRepo repositories.ConversationRepository
	llmManager       LLMProvider

	processMutex    sync.Mutex
	activeProcesses map[string]context.CancelFunc // sessionID -> cancel
	triggers        map[string]*quickActionTrigger
}

func NewChatService(
	convStore *store.Store,
	reconciler *StreamReconciler,
	conversationRepo repositories.ConversationRepository,
	llmManager LLMProvider,
) ChatService {
	return &chatService{
		store:            convStore,
		reconciler:       reconciler,
		conversationRepo: conversationRepo,
		llmManager:       llmManager,
		activeProcesses:  make(map[string]context.CancelFunc),
		triggers:         make(map[string]*quickActionTrigger),
	}
}

// SendMessage appends a user message plus assistant placeholder and starts a
// generation for it. The returned session id identifies the stream; deltas
// arrive on the conversation's subscription channel.
func (s *chatService) SendMessage(ctx context.Context, conversationID, content string) (*dtos.SendMessageResponse, uint32, error) {
	if content == "" {
		return nil, http.StatusBadRequest, errors.New("message content is required")
	}
	if err := s.ensureLoaded(ctx, conversationID); err != nil {
		log.Printf("ChatService -> SendMessage -> load skipped for %s: %v", conversationID, err)
	}

	resp, err := s.startGeneration(conversationID, content, content, "")
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return resp, http.StatusOK, nil
}

// TriggerQuickAction starts a generation from a predefined trigger. The
// transcript shows the action's display label as the user message; the model
// receives the backend instruction plus the email context instead.
func (s *chatService) TriggerQuickAction(ctx context.Context, conversationID, actionKey, emailContext string) (*dtos.SendMessageResponse, uint32, error) {
	action, ok := constants.QuickActionByKey(actionKey)
	if !ok {
		return nil, http.StatusBadRequest, fmt.Errorf("unknown quick action: %s", actionKey)
	}
	if err := s.ensureLoaded(ctx, conversationID); err != nil {
		log.Printf("ChatService -> TriggerQuickAction -> load skipped for %s: %v", conversationID, err)
	}

	trigger := &quickActionTrigger{
		triggerID: uuid.New().String(),
		actionKey: actionKey,
		createdAt: time.Now(),
		status:    TriggerStatusCreated,
	}
	s.processMutex.Lock()
	s.triggers[trigger.triggerID] = trigger
	s.processMutex.Unlock()

	prompt := action.BackendInstruction
	if emailContext != "" {
		prompt = prompt + "\n\n" + emailContext
	}

	resp, err := s.startGeneration(conversationID, action.DisplayLabel, prompt, trigger.triggerID)
	if err != nil {
		s.setTriggerStatus(trigger.triggerID, TriggerStatusFailed)
		return nil, http.StatusInternalServerError, err
	}
	resp.TriggerID = trigger.triggerID
	return resp, http.StatusOK, nil
}

// ActivateSuggestedAction turns a clicked suggestion into a new user message
// through the normal send path, when the click count satisfies the configured
// activation mode.
func (s *chatService) ActivateSuggestedAction(ctx context.Context, conversationID string, req *dtos.ActivateSuggestionRequest) (*dtos.ActivateSuggestionResponse, uint32, error) {
	msg := s.store.FindMessage(conversationID, req.MessageID)
	if msg == nil {
		return nil, http.StatusNotFound, fmt.Errorf("message %s not found", req.MessageID)
	}
	found := false
	for _, sa := range msg.SuggestedActions {
		if sa.Label == req.Label && sa.Action == req.Action {
			found = true
			break
		}
	}
	if !found {
		return nil, http.StatusNotFound, errors.New("suggestion is no longer available")
	}

	requiredClicks := 1
	if config.Env.SuggestedActionActivation == constants.ActivationDoubleClick {
		requiredClicks = 2
	}
	if req.Clicks < requiredClicks {
		return &dtos.ActivateSuggestionResponse{Activated: false}, http.StatusOK, nil
	}

	sent, status, err := s.SendMessage(ctx, conversationID, req.Label)
	if err != nil {
		return nil, status, err
	}
	return &dtos.ActivateSuggestionResponse{Activated: true, Sent: sent}, http.StatusOK, nil
}

// CancelGeneration cancels an in-flight session. The partial text already
// streamed is kept on the message with status incomplete.
func (s *chatService) CancelGeneration(conversationID, sessionID string) (uint32, error) {
	s.processMutex.Lock()
	cancel, exists := s.activeProcesses[sessionID]
	if exists {
		delete(s.activeProcesses, sessionID)
	}
	s.processMutex.Unlock()

	if !exists {
		return http.StatusNotFound, fmt.Errorf("no active generation for session %s", sessionID)
	}
	log.Printf("ChatService -> CancelGeneration -> cancelling session %s for conversation %s", sessionID, conversationID)
	cancel()
	return http.StatusOK, nil
}

func (s *chatService) LoadConversation(ctx context.Context, conversationID string) (*dtos.ConversationResponse, uint32, error) {
	if err := s.ensureLoaded(ctx, conversationID); err != nil {
		log.Printf("ChatService -> LoadConversation -> load skipped for %s: %v", conversationID, err)
	}
	return dtos.ToConversationDto(s.store.Snapshot(conversationID)), http.StatusOK, nil
}

func (s *chatService) PersistConversation(ctx context.Context, conversationID string) (uint32, error) {
	conv := s.store.Snapshot(conversationID)
	record := repositories.NewConversationRecord(conv)
	if err := s.conversationRepo.Save(ctx, record); err != nil {
		return http.StatusInternalServerError, fmt.Errorf("failed to persist conversation: %w", err)
	}
	return http.StatusOK, nil
}

func (s *chatService) ClearConversation(ctx context.Context, conversationID string) (uint32, error) {
	s.store.Clear(conversationID)
	if err := s.conversationRepo.Delete(ctx, conversationID); err != nil {
		log.Printf("ChatService -> ClearConversation -> delete failed for %s: %v", conversationID, err)
	}
	return http.StatusOK, nil
}

func (s *chatService) ListQuickActions() *dtos.QuickActionListResponse {
	resp := &dtos.QuickActionListResponse{}
	for _, qa := range constants.QuickActions() {
		resp.QuickActions = append(resp.QuickActions, dtos.QuickActionResponse{
			Key:          qa.Key,
			DisplayLabel: qa.DisplayLabel,
			Category:     qa.Category,
		})
	}
	return resp
}

func (s *chatService) Subscribe(conversationID string) (<-chan store.Event, func()) {
	return s.store.Subscribe(conversationID)
}

// ensureLoaded hydrates the store from durable storage the first time a
// conversation is touched. Storage failures degrade to in-memory only.
func (s *chatService) ensureLoaded(ctx context.Context, conversationID string) error {
	if s.store.Has(conversationID) {
		return nil
	}
	record, err := s.conversationRepo.Load(ctx, conversationID)
	if err != nil {
		return err
	}
	if record == nil {
		return nil
	}
	messages := make([]*models.ChatMessage, 0, len(record.Messages))
	for i := range record.Messages {
		messages = append(messages, &record.Messages[i])
	}
	s.store.Hydrate(conversationID, messages)
	return nil
}

// startGeneration appends the message pair, opens a stream session bound to
// the assistant placeholder and launches the generation goroutine. visible is
// what the transcript shows as the user message, prompt is what the model
// receives; for plain sends the two are the same string.
func (s *chatService) startGeneration(conversationID, visible, prompt, triggerID string) (*dtos.SendMessageResponse, error) {
	history := s.buildLLMHistory(conversationID)

	userMsg := models.NewUserMessage(visible)
	assistantMsg := models.NewAssistantPlaceholder()
	if err := s.store.AppendMessagePair(conversationID, userMsg, assistantMsg); err != nil {
		return nil, err
	}
	s.setTriggerStatus(triggerID, TriggerStatusPending)

	client, err := s.llmManager.GetClient(config.Env.DefaultLLMClient)
	if err != nil {
		s.finalizeStartupFailure(conversationID, assistantMsg.ID, triggerID, err)
		return nil, err
	}

	sessionID := uuid.New().String()
	modelName := client.GetModelInfo().Name
	if err := s.reconciler.Open(sessionID, conversationID, assistantMsg.ID, modelName); err != nil {
		s.finalizeStartupFailure(conversationID, assistantMsg.ID, triggerID, err)
		return nil, err
	}
	s.setTriggerSession(triggerID, sessionID)

	messages := append(history, llm.Message{Role: models.RoleUser, Content: prompt})
	go s.runGeneration(client, sessionID, conversationID, triggerID, messages)

	return &dtos.SendMessageResponse{
		SessionID:          sessionID,
		UserMessageID:      userMsg.ID,
		AssistantMessageID: assistantMsg.ID,
	}, nil
}

// runGeneration owns one stream session from first delta to terminal state.
// Cancellation maps to abandon so partial output stays visible; transport
// errors map to fail. On success or abandon the conversation is persisted.
func (s *chatService) runGeneration(client llm.Client, sessionID, conversationID, triggerID string, messages []llm.Message) {
	ctx, cancel := context.WithCancel(context.Background())
	s.processMutex.Lock()
	s.activeProcesses[sessionID] = cancel
	s.processMutex.Unlock()
	s.setTriggerStatus(triggerID, TriggerStatusStreaming)

	defer func() {
		s.processMutex.Lock()
		delete(s.activeProcesses, sessionID)
		s.processMutex.Unlock()
		cancel()
		s.reconciler.Release(sessionID)
	}()

	err := client.StreamResponse(ctx, messages, func(delta string) {
		if appendErr := s.reconciler.Append(sessionID, delta); appendErr != nil {
			log.Printf("ChatService -> runGeneration -> append failed for session %s: %v", sessionID, appendErr)
		}
	})

	switch {
	case err == nil:
		if completeErr := s.reconciler.Complete(sessionID); completeErr != nil {
			log.Printf("ChatService -> runGeneration -> complete failed for session %s: %v", sessionID, completeErr)
		}
		s.setTriggerStatus(triggerID, TriggerStatusComplete)
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		log.Printf("ChatService -> runGeneration -> session %s cancelled, keeping partial output", sessionID)
		if abandonErr := s.reconciler.Abandon(sessionID); abandonErr != nil {
			log.Printf("ChatService -> runGeneration -> abandon failed for session %s: %v", sessionID, abandonErr)
		}
		s.setTriggerStatus(triggerID, TriggerStatusFailed)
	default:
		if failErr := s.reconciler.Fail(sessionID, err); failErr != nil {
			log.Printf("ChatService -> runGeneration -> fail failed for session %s: %v", sessionID, failErr)
		}
		s.setTriggerStatus(triggerID, TriggerStatusFailed)
	}

	// Persist automatically once the message pair is terminal. Storage errors
	// never block the user flow.
	if _, persistErr := s.PersistConversation(context.Background(), conversationID); persistErr != nil {
		log.Printf("ChatService -> runGeneration -> persist failed for %s: %v", conversationID, persistErr)
	}
}

// finalizeStartupFailure marks the freshly appended placeholder as errored
// when the generation could not even start.
func (s *chatService) finalizeStartupFailure(conversationID, assistantMessageID, triggerID string, cause error) {
	log.Printf("ChatService -> startGeneration -> failed for conversation %s: %v", conversationID, cause)
	if err := s.store.FinalizeMessage(conversationID, assistantMessageID, "", models.MessageStatusError, constants.GenerationFailedMessage(config.Env.Locale), nil, nil); err != nil {
		log.Printf("ChatService -> startGeneration -> finalize failed: %v", err)
	}
	s.setTriggerStatus(triggerID, TriggerStatusFailed)
}

// buildLLMHistory converts the terminal transcript into provider messages.
// Streaming placeholders and errored answers are left out of the context.
func (s *chatService) buildLLMHistory(conversationID string) []llm.Message {
	conv := s.store.Snapshot(conversationID)
	var history []llm.Message
	for _, msg := range conv.Messages {
		if msg.Role == models.RoleAssistant && msg.Status != models.MessageStatusDone {
			continue
		}
		if msg.Content == "" {
			continue
		}
		history = append(history, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	return history
}

func (s *chatService) setTriggerStatus(triggerID, status string) {
	if triggerID == "" {
		return
	}
	s.processMutex.Lock()
	defer s.processMutex.Unlock()
	if t, ok := s.triggers[triggerID]; ok {
		// Terminal trigger states are sticky so late duplicate signals no-op.
		if t.status == TriggerStatusComplete || t.status == TriggerStatusFailed {
			return
		}
		t.status = status
	}
}

func (s *chatService) setTriggerSession(triggerID, sessionID string) {
	if triggerID == "" {
		return
	}
	s.processMutex.Lock()
	defer s.processMutex.Unlock()
	if t, ok := s.triggers[triggerID]; ok {
		t.sessionID = sessionID
	}
}

// TriggerStatus reports a quick action trigger's current state.
func (s *chatService) TriggerStatus(triggerID string) string {
	s.processMutex.Lock()
	defer s.processMutex.Unlock()
	if t, ok := s.triggers[triggerID]; ok {
		return t.status
	}
	return ""
}
