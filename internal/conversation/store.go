package conversation

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var ErrConversationIDRequired = errors.New("conversation: conversationID required")

// Store keeps per-conversation message history. Implementations:
// MemoryStore (default, lost on restart) and RedisStore.
type Store interface {
	// Append adds a message, creating the conversation lazily.
	Append(ctx context.Context, conversationID string, msg Message) error
	// Record returns the conversation, or nil if it does not exist.
	Record(ctx context.Context, conversationID string) (*Record, error)
	// Delete removes a conversation. Deleting a missing one is a no-op.
	Delete(ctx context.Context, conversationID string) error
	// IDs lists active conversation identifiers.
	IDs(ctx context.Context) ([]string, error)
}

// MemoryStore is the in-process Store. Mutations from concurrent
// requests for the same conversation are last-write-wins; growth is
// unbounded until leads are submitted.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{conversations: make(map[string]*Record)}
}

func (s *MemoryStore) Append(_ context.Context, conversationID string, msg Message) error {
	if conversationID == "" {
		return ErrConversationIDRequired
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.conversations[conversationID]
	if !ok {
		rec = &Record{CreatedAt: time.Now().UTC()}
		s.conversations[conversationID] = rec
	}
	rec.Messages = append(rec.Messages, msg)
	return nil
}

func (s *MemoryStore) Record(_ context.Context, conversationID string) (*Record, error) {
	if conversationID == "" {
		return nil, ErrConversationIDRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.conversations[conversationID]
	if !ok {
		return nil, nil
	}
	out := &Record{
		Messages:  append([]Message(nil), rec.Messages...),
		CreatedAt: rec.CreatedAt,
	}
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, conversationID string) error {
	if conversationID == "" {
		return ErrConversationIDRequired
	}
	s.mu.Lock()
	delete(s.conversations, conversationID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) IDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.conversations))
	for id := range s.conversations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
