package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrNotJoined is returned when an action arrives on a connection that has
// not completed a join.
var ErrNotJoined = errors.New("connection has not joined")

const (
	// DefaultHistoryLimit is how many recent messages a joining connection
	// receives.
	DefaultHistoryLimit = 50
	// DefaultStoreTimeout bounds every store operation so a stalled durable
	// backend cannot hang a connection's event loop.
	DefaultStoreTimeout = 5 * time.Second
)

const storageUnavailableMsg = "storage temporarily unavailable"

type RoomOptions struct {
	HistoryLimit int
	TypingTTL    time.Duration
	StoreTimeout time.Duration
}

// Room is the session coordinator for the single chat room. It owns the
// ephemeral presence and typing state exclusively and consults the message
// store and user directory through their interfaces.
//
// Every action takes the room mutex, so state mutations are serialized even
// though connection I/O runs concurrently. Broadcast delivery goes through
// the sink, which fans out to per-connection write queues without blocking.
type Room struct {
	mu           sync.Mutex
	presence     *Presence
	typing       *TypingSet
	messages     MessageStore
	users        UserDirectory
	sink         EventSink
	logger       *slog.Logger
	historyLimit int
	storeTimeout time.Duration
}

func NewRoom(messages MessageStore, users UserDirectory, sink EventSink, logger *slog.Logger, opts RoomOptions) *Room {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	return &Room{
		presence:     NewPresence(),
		typing:       NewTypingSet(opts.TypingTTL),
		messages:     messages,
		users:        users,
		sink:         sink,
		logger:       logger,
		historyLimit: opts.HistoryLimit,
		storeTimeout: opts.StoreTimeout,
	}
}

// Join moves a connection from unjoined to active under the given username.
// The joiner receives the recent history privately; everyone else receives
// the refreshed presence list and a join system message, in that order.
//
// All fallible store operations run before presence mutates, so a storage
// failure leaves the room exactly as it was.
func (r *Room) Join(ctx context.Context, connID, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.presence.UserFor(connID); ok {
		r.emitTo(connID, ErrorEvent, ErrorPayload{Message: "already joined"})
		return fmt.Errorf("join(%s): already joined", connID)
	}

	sctx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()

	// History is fetched before the directory is touched, so a failed join
	// never creates a user or flips one online.
	history, err := r.messages.Recent(sctx, r.historyLimit)
	if err != nil {
		r.emitTo(connID, ErrorEvent, ErrorPayload{Message: storageUnavailableMsg})
		return fmt.Errorf("join(%s): Recent: %w", connID, err)
	}

	user, created, err := r.users.FindOrCreate(sctx, username)
	if err != nil {
		if errors.Is(err, ErrInvalidUsername) {
			r.emitTo(connID, ErrorEvent, ErrorPayload{Message: err.Error()})
		} else {
			r.emitTo(connID, ErrorEvent, ErrorPayload{Message: storageUnavailableMsg})
		}
		return fmt.Errorf("join(%s): FindOrCreate: %w", connID, err)
	}
	if !created && user.Status != StatusOnline {
		user, err = r.users.SetStatus(sctx, user.ID, StatusOnline)
		if err != nil {
			r.emitTo(connID, ErrorEvent, ErrorPayload{Message: storageUnavailableMsg})
			return fmt.Errorf("join(%s): SetStatus: %w", connID, err)
		}
	}

	r.presence.Register(connID, user)

	r.emitTo(connID, HistoryEvent, HistoryPayload{Messages: history})
	others := r.presence.ConnIDsExcept(connID)
	r.emit(others, PresenceEvent, PresencePayload{OnlineUsers: r.presence.ListOnline()})
	r.emit(others, SystemMessageEvent, systemMessage(user, KindJoin,
		fmt.Sprintf("%s joined the chat", user.Username)))

	r.logger.Info("user joined",
		slog.String("conn", connID),
		slog.String("username", user.Username),
		slog.Bool("created", created))
	return nil
}

// Send validates and appends a regular message, then broadcasts it to every
// active connection including the sender, so every client renders the
// server-assigned ID and timestamp.
func (r *Room) Send(ctx context.Context, connID, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.presence.UserFor(connID)
	if !ok {
		r.emitTo(connID, ErrorEvent, ErrorPayload{Message: ErrNotJoined.Error()})
		return fmt.Errorf("send(%s): %w", connID, ErrNotJoined)
	}
	if err := ValidateContent(content); err != nil {
		r.emitTo(connID, ErrorEvent, ErrorPayload{Message: err.Error()})
		return fmt.Errorf("send(%s): %w", connID, err)
	}

	sctx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()
	msg, err := r.messages.Append(sctx, content, user.ID, user.Username, KindMessage)
	if err != nil {
		r.emitTo(connID, ErrorEvent, ErrorPayload{Message: storageUnavailableMsg})
		return fmt.Errorf("send(%s): Append: %w", connID, err)
	}

	r.emit(r.presence.ConnIDs(), MessageEvent, msg)
	return nil
}

// Typing marks the connection's user as composing and announces it to the
// other connections. Typing from an unjoined connection is a silent no-op.
func (r *Room) Typing(ctx context.Context, connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.presence.UserFor(connID)
	if !ok {
		return nil
	}
	r.typing.MarkTyping(user.ID)
	r.emit(r.presence.ConnIDsExcept(connID), TypingStateEvent, TypingStatePayload{
		UserID:   user.ID,
		Username: user.Username,
		Active:   true,
	})
	return nil
}

// StopTyping clears the connection's typing entry and announces the removal
// to the other connections.
func (r *Room) StopTyping(ctx context.Context, connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.presence.UserFor(connID)
	if !ok {
		return nil
	}
	r.typing.ClearTyping(user.ID)
	r.emit(r.presence.ConnIDsExcept(connID), TypingStateEvent, TypingStatePayload{
		UserID:   user.ID,
		Username: user.Username,
		Active:   false,
	})
	return nil
}

// SetStatus updates the user's directory status and broadcasts the updated
// user followed by the refreshed presence list.
func (r *Room) SetStatus(ctx context.Context, connID string, status UserStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.presence.UserFor(connID)
	if !ok {
		r.emitTo(connID, ErrorEvent, ErrorPayload{Message: ErrNotJoined.Error()})
		return fmt.Errorf("setStatus(%s): %w", connID, ErrNotJoined)
	}
	if !ValidStatus(status) {
		r.emitTo(connID, ErrorEvent, ErrorPayload{Message: "invalid status"})
		return fmt.Errorf("setStatus(%s): invalid status %q", connID, status)
	}

	sctx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()
	updated, err := r.users.SetStatus(sctx, user.ID, status)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Internal callers should make this impossible; log and move on.
			r.logger.Warn("status change for unknown user",
				slog.String("conn", connID), slog.Int("user", user.ID))
			return nil
		}
		r.emitTo(connID, ErrorEvent, ErrorPayload{Message: storageUnavailableMsg})
		return fmt.Errorf("setStatus(%s): %w", connID, err)
	}

	r.presence.UpdateUser(updated)
	all := r.presence.ConnIDs()
	r.emit(all, UserUpdateEvent, UserUpdatePayload{User: *updated})
	r.emit(all, PresenceEvent, PresencePayload{OnlineUsers: r.presence.ListOnline()})
	return nil
}

// Disconnect handles a transport-level disconnect. Unknown connections are
// a no-op, so duplicate disconnect events are harmless. When the user's
// last connection goes away, the user is marked offline, their typing entry
// is cleared, and the remaining connections receive the refreshed presence
// list and a leave system message.
func (r *Room) Disconnect(ctx context.Context, connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.presence.Unregister(connID)
	if !ok {
		return nil
	}
	if r.presence.ConnCount(user.ID) > 0 {
		// Another device is still connected; nothing observable changes
		// under the dedupe-by-user presence policy.
		return nil
	}

	r.typing.ClearTyping(user.ID)

	sctx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()
	if _, err := r.users.SetStatus(sctx, user.ID, StatusOffline); err != nil {
		r.logger.Error("mark offline", slog.String("username", user.Username),
			slog.String("error", err.Error()))
	}

	remaining := r.presence.ConnIDs()
	r.emit(remaining, PresenceEvent, PresencePayload{OnlineUsers: r.presence.ListOnline()})
	r.emit(remaining, SystemMessageEvent, systemMessage(user, KindLeave,
		fmt.Sprintf("%s left the chat", user.Username)))

	r.logger.Info("user disconnected",
		slog.String("conn", connID), slog.String("username", user.Username))
	return nil
}

// RecentMessages is the synchronous read surface for the HTTP layer.
func (r *Room) RecentMessages(ctx context.Context, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = r.historyLimit
	}
	sctx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()
	return r.messages.Recent(sctx, limit)
}

// AllUsers returns every user the directory has ever seen, regardless of
// current status.
func (r *Room) AllUsers(ctx context.Context) ([]User, error) {
	sctx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()
	return r.users.All(sctx)
}

// OnlineUsers returns the current deduplicated online list.
func (r *Room) OnlineUsers() []User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.presence.ListOnline()
}

// TypingUsers returns the IDs of users actively composing.
func (r *Room) TypingUsers() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.typing.ActiveTypists()
}

// systemMessage builds a broadcast-only announcement. Join and leave
// notices are not persisted, so they carry no store-assigned ID; the log
// holds user-authored messages only.
func systemMessage(user *User, kind MessageKind, content string) *Message {
	return &Message{
		Content:        content,
		AuthorID:       user.ID,
		AuthorUsername: user.Username,
		Kind:           kind,
		Timestamp:      time.Now(),
	}
}

func (r *Room) emitTo(connID string, t string, payload any) {
	r.emit([]string{connID}, t, payload)
}

func (r *Room) emit(connIDs []string, t string, payload any) {
	if len(connIDs) == 0 {
		return
	}
	e, err := NewEvent(t, payload)
	if err != nil {
		r.logger.Error(fmt.Sprintf("emit %s: %v", t, err))
		return
	}
	r.sink.SendTo(e, connIDs...)
}
