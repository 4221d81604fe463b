package core

import (
	"context"
	"sync"
	"time"
)

// MemoryMessageStore keeps the room log in process memory. It never returns
// storage errors and is the default backend for development.
type MemoryMessageStore struct {
	mu       sync.Mutex
	messages []Message
	nextID   int
}

func NewMemoryMessageStore() *MemoryMessageStore {
	return &MemoryMessageStore{nextID: 1}
}

func (s *MemoryMessageStore) Append(ctx context.Context, content string, authorID int, authorUsername string, kind MessageKind) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := Message{
		ID:             s.nextID,
		Content:        content,
		AuthorID:       authorID,
		AuthorUsername: authorUsername,
		Kind:           kind,
		Timestamp:      time.Now(),
	}
	s.nextID++
	s.messages = append(s.messages, msg)
	return &msg, nil
}

func (s *MemoryMessageStore) Recent(ctx context.Context, limit int) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.messages) {
		limit = len(s.messages)
	}
	tail := s.messages[len(s.messages)-limit:]
	out := make([]Message, len(tail))
	copy(out, tail)
	return out, nil
}
