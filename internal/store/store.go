// Package store holds the in-memory transcript for every open conversation.
// It is the single piece of shared mutable state in the system: every content
// mutation funnels through it under one mutex, and every UI update flows out
// of it through per-conversation subscription channels.
package store

import (
	"fmt"
	"log"
	"sync"
	"time"

	"draftly-ai/internal/models"
)

const subscriberBuffer = 64

type conversationState struct {
	messages    []*models.ChatMessage
	lastUpdated time.Time
}

type Store struct {
	mu            sync.RWMutex
	conversations map[string]*conversationState
	subscribers   map[string]map[int]chan Event
	nextSubID     int
}

func NewStore() *Store {
	return &Store{
		conversations: make(map[string]*conversationState),
		subscribers:   make(map[string]map[int]chan Event),
	}
}

func (s *Store) conversation(id string) *conversationState {
	c, ok := s.conversations[id]
	if !ok {
		c = &conversationState{}
		s.conversations[id] = c
	}
	return c
}

// Has reports whether the conversation is already hydrated in memory.
func (s *Store) Has(conversationID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.conversations[conversationID]
	return ok
}

// Hydrate installs a loaded message sequence, unless the conversation is
// already present in memory (in-memory state wins over a stale snapshot).
func (s *Store) Hydrate(conversationID string, messages []*models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[conversationID]; ok {
		return
	}
	c := &conversationState{lastUpdated: time.Now()}
	for _, m := range messages {
		c.messages = append(c.messages, m.Clone())
	}
	s.conversations[conversationID] = c
}

// AppendMessagePair appends a user message and its assistant placeholder
// atomically, so no observer ever sees the user message without its slot.
// Appending a user-authored message also clears suggested actions left on
// earlier messages: stale buttons must not survive into a new turn.
func (s *Store) AppendMessagePair(conversationID string, user, assistant *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.conversation(conversationID)
	for _, existing := range c.messages {
		if existing.ID == user.ID || existing.ID == assistant.ID {
			return fmt.Errorf("duplicate message id in conversation %s", conversationID)
		}
	}
	for _, existing := range c.messages {
		existing.SuggestedActions = nil
	}
	c.messages = append(c.messages, user, assistant)
	c.lastUpdated = time.Now()
	return nil
}

// UpdateStreamingContent overwrites the content of a message that is still
// streaming and notifies subscribers with a delta event. Called only by the
// stream reconciler.
func (s *Store) UpdateStreamingContent(conversationID, messageID, sessionID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.findMessage(conversationID, messageID)
	if msg == nil {
		return fmt.Errorf("message %s not found in conversation %s", messageID, conversationID)
	}
	if msg.IsTerminal() {
		return fmt.Errorf("message %s is already terminal", messageID)
	}
	msg.Content = content
	s.conversation(conversationID).lastUpdated = time.Now()
	s.publish(conversationID, Event{
		Type:           EventDelta,
		ConversationID: conversationID,
		MessageID:      messageID,
		SessionID:      sessionID,
		Content:        content,
	})
	return nil
}

// FinalizeMessage freezes a streaming message with its terminal status,
// canonical content, suggested actions and metadata, then notifies
// subscribers. Status error publishes an error event, everything else a
// complete event.
func (s *Store) FinalizeMessage(conversationID, messageID, sessionID, status, content string, actions []models.SuggestedAction, meta *models.MessageMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.findMessage(conversationID, messageID)
	if msg == nil {
		return fmt.Errorf("message %s not found in conversation %s", messageID, conversationID)
	}
	if msg.IsTerminal() {
		return fmt.Errorf("message %s is already terminal", messageID)
	}
	msg.Content = content
	msg.Status = status
	msg.SuggestedActions = actions
	msg.Metadata = meta
	s.conversation(conversationID).lastUpdated = time.Now()

	eventType := EventComplete
	if status == models.MessageStatusError {
		eventType = EventError
	}
	s.publish(conversationID, Event{
		Type:           eventType,
		ConversationID: conversationID,
		MessageID:      messageID,
		SessionID:      sessionID,
		Content:        content,
		Message:        msg.Clone(),
	})
	return nil
}

// Snapshot returns a deep copy of the conversation.
func (s *Store) Snapshot(conversationID string) *models.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv := &models.Conversation{ID: conversationID}
	c, ok := s.conversations[conversationID]
	if !ok {
		return conv
	}
	conv.LastUpdated = c.lastUpdated
	for _, m := range c.messages {
		conv.Messages = append(conv.Messages, m.Clone())
	}
	return conv
}

// FindMessage returns a copy of one message, or nil.
func (s *Store) FindMessage(conversationID, messageID string) *models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if msg := s.findMessage(conversationID, messageID); msg != nil {
		return msg.Clone()
	}
	return nil
}

// Clear drops a conversation's messages. Subscriptions survive.
func (s *Store) Clear(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, conversationID)
}

// Subscribe registers for this conversation's events. The returned function
// deterministically removes the subscription and closes the channel.
func (s *Store) Subscribe(conversationID string) (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subscribers[conversationID] == nil {
		s.subscribers[conversationID] = make(map[int]chan Event)
	}
	id := s.nextSubID
	s.nextSubID++
	ch := make(chan Event, subscriberBuffer)
	s.subscribers[conversationID][id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if subs, ok := s.subscribers[conversationID]; ok {
			if c, ok := subs[id]; ok {
				delete(subs, id)
				close(c)
			}
			if len(subs) == 0 {
				delete(s.subscribers, conversationID)
			}
		}
	}
	return ch, cancel
}

// findMessage must be called with the lock held.
func (s *Store) findMessage(conversationID, messageID string) *models.ChatMessage {
	c, ok := s.conversations[conversationID]
	if !ok {
		return nil
	}
	for _, m := range c.messages {
		if m.ID == messageID {
			return m
		}
	}
	return nil
}

// publish must be called with the lock held. Slow subscribers drop events
// rather than block the store.
func (s *Store) publish(conversationID string, event Event) {
	for _, ch := range s.subscribers[conversationID] {
		select {
		case ch <- event:
		default:
			log.Printf("store -> publish -> dropping %s event for conversation %s: subscriber buffer full", event.Type, conversationID)
		}
	}
}
