package core

// Inbound event types, sent by clients over a connection.
const (
	JoinEvent       = "join"
	MessageEvent    = "message"
	TypingEvent     = "typing"
	StopTypingEvent = "stop_typing"
	StatusEvent     = "status"
)

// Outbound event types, emitted by the room.
const (
	HistoryEvent       = "history"
	PresenceEvent      = "presence"
	SystemMessageEvent = "system_message"
	TypingStateEvent   = "typing_state"
	UserUpdateEvent    = "user_update"
	ErrorEvent         = "error"
)

// HistoryPayload is sent privately to a connection that just joined.
type HistoryPayload struct {
	Messages []Message `json:"messages"`
}

// PresencePayload carries the deduplicated online-user list.
type PresencePayload struct {
	OnlineUsers []User `json:"online_users"`
}

// TypingStatePayload announces that a user started or stopped composing.
type TypingStatePayload struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Active   bool   `json:"active"`
}

// UserUpdatePayload carries a user whose directory record changed.
type UserUpdatePayload struct {
	User User `json:"user"`
}

// ErrorPayload is sent to the originating connection only.
type ErrorPayload struct {
	Message string `json:"message"`
}
