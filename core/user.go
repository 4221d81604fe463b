package core

import (
	"context"
	"errors"
	"strings"
	"time"
)

// UserStatus is the directory status of a user.
type UserStatus string

const (
	StatusOnline  UserStatus = "online"
	StatusAway    UserStatus = "away"
	StatusOffline UserStatus = "offline"
)

// ValidStatus reports whether s is one of the known statuses.
func ValidStatus(s UserStatus) bool {
	switch s {
	case StatusOnline, StatusAway, StatusOffline:
		return true
	}
	return false
}

// MaxUsernameLen is the maximum number of characters in a username.
const MaxUsernameLen = 30

// User is a known identity in the room. Users are created on first join and
// never deleted; only Status and LastSeen change afterwards.
type User struct {
	ID        int        `json:"id"`
	Username  string     `json:"username"`
	Status    UserStatus `json:"status"`
	LastSeen  time.Time  `json:"last_seen"`
	CreatedAt time.Time  `json:"created_at"`
}

var (
	// ErrInvalidUsername is returned when a username is empty after trimming
	// or exceeds MaxUsernameLen characters.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrUserNotFound is returned when an operation references an unknown
	// user ID.
	ErrUserNotFound = errors.New("user not found")
)

// NormalizeUsername trims surrounding whitespace and validates the length
// bounds. Uniqueness is case-sensitive on the trimmed value: "Alice" and
// "alice" are distinct users. The same normalization is applied on create
// and on lookup.
func NormalizeUsername(raw string) (string, error) {
	username := strings.TrimSpace(raw)
	if err := validate.Var(username, "required,max=30"); err != nil {
		return "", ErrInvalidUsername
	}
	return username, nil
}

type UserDirectory interface {
	// FindOrCreate looks up the user with the normalized username, creating
	// one with status online when absent. The second return value reports
	// whether a new user was created.
	FindOrCreate(ctx context.Context, username string) (*User, bool, error)

	// SetStatus updates the user's status and LastSeen. It returns
	// ErrUserNotFound when the ID is unknown.
	SetStatus(ctx context.Context, userID int, status UserStatus) (*User, error)

	// All returns every known user, ordered by ID.
	All(ctx context.Context) ([]User, error)
}
