package core

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// MessageKind determines how a message entry should be rendered by clients.
type MessageKind string

const (
	// KindMessage is a regular chat message authored by a user.
	KindMessage MessageKind = "message"
	// KindSystem is a server-generated announcement.
	KindSystem MessageKind = "system"
	// KindJoin is a system message recording that a user joined.
	KindJoin MessageKind = "join"
	// KindLeave is a system message recording that a user left.
	KindLeave MessageKind = "leave"
)

// MaxContentLen is the maximum number of characters in a message body.
const MaxContentLen = 500

// Message is a single entry in the room log. Messages are immutable once
// stored; ID is the sole ordering key, not Timestamp.
type Message struct {
	ID             int         `json:"id"`
	Content        string      `json:"content"`
	AuthorID       int         `json:"author_id"`
	AuthorUsername string      `json:"author_username"`
	Kind           MessageKind `json:"kind"`
	Timestamp      time.Time   `json:"timestamp"`
}

var (
	// ErrInvalidContent is returned when a message body is empty or exceeds
	// MaxContentLen characters.
	ErrInvalidContent = errors.New("invalid message content")
	// ErrStorageUnavailable is returned when the durable backend cannot be
	// reached. In-memory stores never return it.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidateContent checks a user-authored message body against the length
// bounds. Content is stored verbatim, no trimming.
func ValidateContent(content string) error {
	if err := validate.Var(content, "required,max=500"); err != nil {
		return ErrInvalidContent
	}
	return nil
}

type MessageStore interface {
	// Append assigns the next ID and timestamp, stores the message and
	// returns the stored record. The assigned IDs are strictly increasing
	// and never reused. Durable implementations persist before returning
	// and report backend failures as ErrStorageUnavailable.
	Append(ctx context.Context, content string, authorID int, authorUsername string, kind MessageKind) (*Message, error)

	// Recent returns at most limit most-recent messages, oldest first.
	// If fewer exist, all are returned.
	Recent(ctx context.Context, limit int) ([]Message, error)
}
