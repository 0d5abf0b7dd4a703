package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"draftly-ai/internal/constants"
	"draftly-ai/internal/models"
	"draftly-ai/internal/store"
	"draftly-ai/pkg/streamjson"
)

// Session statuses. A session is terminal once it leaves streaming.
const (
	SessionStatusStreaming  = "streaming"
	SessionStatusDone       = "done"
	SessionStatusError      = "error"
	SessionStatusIncomplete = "incomplete"
)

type streamSession struct {
	sessionID       string
	conversationID  string
	targetMessageID string
	accumulated     string
	lastExtracted   string
	status          string
	model           string
	deltaCount      int
	startedAt       time.Time
}

// StreamReconciler is the single mutation point for message content during
// streaming. Every delta, completion and failure for every in-flight
// generation funnels through it into the conversation store.
type StreamReconciler struct {
	mu       sync.Mutex
	sessions map[string]*streamSession
	store    *store.Store
	locale   string
}

func NewStreamReconciler(convStore *store.Store, locale string) *StreamReconciler {
	return &StreamReconciler{
		sessions: make(map[string]*streamSession),
		store:    convStore,
		locale:   locale,
	}
}

// Open registers an empty accumulation buffer bound to one placeholder
// message. At most one active session may target a given message.
func (r *StreamReconciler) Open(sessionID, conversationID, targetMessageID, model string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[sessionID]; exists {
		return fmt.Errorf("session %s is already open", sessionID)
	}
	for _, s := range r.sessions {
		if s.targetMessageID == targetMessageID && s.status == SessionStatusStreaming {
			return fmt.Errorf("message %s already has an active session", targetMessageID)
		}
	}
	r.sessions[sessionID] = &streamSession{
		sessionID:       sessionID,
		conversationID:  conversationID,
		targetMessageID: targetMessageID,
		status:          SessionStatusStreaming,
		model:           model,
		startedAt:       time.Now(),
	}
	return nil
}

// Append adds one delta to the session buffer, re-runs the extractor and
// pushes the decoded partial value into the target message. Deltas arrive in
// transport order; there is no reordering here, only append.
func (r *StreamReconciler) Append(sessionID, deltaText string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.activeSession(sessionID)
	if err != nil {
		return err
	}
	s.accumulated += deltaText
	s.deltaCount++

	extracted := streamjson.ExtractResponse(s.accumulated)
	if extracted == s.lastExtracted {
		return nil
	}
	s.lastExtracted = extracted
	return r.store.UpdateStreamingContent(s.conversationID, s.targetMessageID, sessionID, extracted)
}

// Complete runs the strict final parse over the accumulated text and freezes
// the message as done. A malformed final payload is not an error: the message
// keeps the extractor's last known value and an empty suggestions list.
// Calling Complete on an already-terminal session is a silent no-op.
func (r *StreamReconciler) Complete(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return fmt.Errorf("unknown session %s", sessionID)
	}
	if s.status != SessionStatusStreaming {
		return nil
	}

	content := s.lastExtracted
	var actions []models.SuggestedAction
	payload, err := streamjson.ParseFinal(s.accumulated)
	if err != nil {
		log.Printf("StreamReconciler -> Complete -> falling back to partial text for session %s: %v", sessionID, err)
	} else {
		content = payload.Response
		actions = DedupeSuggestedActions(payload.SuggestedActions)
	}

	s.status = SessionStatusDone
	meta := &models.MessageMetadata{
		Tokens:           s.deltaCount,
		GenerationTimeMs: time.Since(s.startedAt).Milliseconds(),
		Model:            s.model,
	}
	return r.store.FinalizeMessage(s.conversationID, s.targetMessageID, sessionID, models.MessageStatusDone, content, actions, meta)
}

// Fail freezes the message as errored with a localized failure string.
// Idempotent on terminal sessions, a duplicate fail signal changes nothing.
func (r *StreamReconciler) Fail(sessionID string, reason error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return fmt.Errorf("unknown session %s", sessionID)
	}
	if s.status != SessionStatusStreaming {
		return nil
	}
	log.Printf("StreamReconciler -> Fail -> session %s: %v", sessionID, reason)

	s.status = SessionStatusError
	return r.store.FinalizeMessage(s.conversationID, s.targetMessageID, sessionID, models.MessageStatusError, constants.GenerationFailedMessage(r.locale), nil, nil)
}

// Abandon ends a session that will never receive a terminal signal, keeping
// the partial text already shown. Losing visible partial output is worse than
// an incomplete answer.
func (r *StreamReconciler) Abandon(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return fmt.Errorf("unknown session %s", sessionID)
	}
	if s.status != SessionStatusStreaming {
		return nil
	}

	s.status = SessionStatusIncomplete
	meta := &models.MessageMetadata{
		Tokens:           s.deltaCount,
		GenerationTimeMs: time.Since(s.startedAt).Milliseconds(),
		Model:            s.model,
	}
	return r.store.FinalizeMessage(s.conversationID, s.targetMessageID, sessionID, models.MessageStatusIncomplete, s.lastExtracted, nil, meta)
}

// SessionStatus reports the current status of a session, or an empty string
// for an unknown id.
func (r *StreamReconciler) SessionStatus(sessionID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		return s.status
	}
	return ""
}

// Release drops a terminal session's bookkeeping. Active sessions are kept.
func (r *StreamReconciler) Release(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok && s.status != SessionStatusStreaming {
		delete(r.sessions, sessionID)
	}
}

// activeSession must be called with the lock held.
func (r *StreamReconciler) activeSession(sessionID string) (*streamSession, error) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("unknown session %s", sessionID)
	}
	if s.status != SessionStatusStreaming {
		return nil, fmt.Errorf("session %s is already terminal", sessionID)
	}
	return s, nil
}
