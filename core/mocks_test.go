package core

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
)

// RecordingSink captures every emission in order, so tests can assert both
// the payloads and the relative order of causally-linked events.
type RecordingSink struct {
	mu        sync.Mutex
	emissions []Emission
}

type Emission struct {
	Event      *Event
	Recipients []string
}

func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

func (s *RecordingSink) SendTo(e *Event, connIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recipients := make([]string, len(connIDs))
	copy(recipients, connIDs)
	s.emissions = append(s.emissions, Emission{Event: e, Recipients: recipients})
}

func (s *RecordingSink) Emissions() []Emission {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Emission, len(s.emissions))
	copy(out, s.emissions)
	return out
}

// For returns the events delivered to a connection, in emission order.
func (s *RecordingSink) For(connID string) []*Event {
	var events []*Event
	for _, em := range s.Emissions() {
		for _, id := range em.Recipients {
			if id == connID {
				events = append(events, em.Event)
				break
			}
		}
	}
	return events
}

func (s *RecordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emissions = nil
}

// FailingMessageStore wraps a working store and fails selected operations
// with ErrStorageUnavailable.
type FailingMessageStore struct {
	inner      MessageStore
	failAppend bool
	failRecent bool
}

func (s *FailingMessageStore) Append(ctx context.Context, content string, authorID int, authorUsername string, kind MessageKind) (*Message, error) {
	if s.failAppend {
		return nil, ErrStorageUnavailable
	}
	return s.inner.Append(ctx, content, authorID, authorUsername, kind)
}

func (s *FailingMessageStore) Recent(ctx context.Context, limit int) ([]Message, error) {
	if s.failRecent {
		return nil, ErrStorageUnavailable
	}
	return s.inner.Recent(ctx, limit)
}

type RoomFixture struct {
	room     *Room
	sink     *RecordingSink
	messages *FailingMessageStore
	users    *MemoryUserDirectory
	ctx      context.Context
}

func NewRoomFixture(t *testing.T, opts RoomOptions) *RoomFixture {
	t.Helper()
	sink := NewRecordingSink()
	messages := &FailingMessageStore{inner: NewMemoryMessageStore()}
	users := NewMemoryUserDirectory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &RoomFixture{
		room:     NewRoom(messages, users, sink, logger, opts),
		sink:     sink,
		messages: messages,
		users:    users,
		ctx:      context.Background(),
	}
}
