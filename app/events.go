package parlor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/parlor-chat/parlor/core"
)

// JoinPayload is the body of an inbound join event.
type JoinPayload struct {
	Username string `json:"username"`
}

// MessagePayload is the body of an inbound message event.
type MessagePayload struct {
	Content string `json:"content"`
}

// StatusPayload is the body of an inbound status event.
type StatusPayload struct {
	Status string `json:"status"`
}

func (app *App) JoinEventHandler(ctx context.Context, e *core.Event) error {
	var payload JoinPayload
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal join payload: %w", err)
	}
	return app.room.Join(ctx, e.Conn, payload.Username)
}

func (app *App) MessageEventHandler(ctx context.Context, e *core.Event) error {
	var payload MessagePayload
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal message payload: %w", err)
	}
	return app.room.Send(ctx, e.Conn, payload.Content)
}

func (app *App) TypingEventHandler(ctx context.Context, e *core.Event) error {
	return app.room.Typing(ctx, e.Conn)
}

func (app *App) StopTypingEventHandler(ctx context.Context, e *core.Event) error {
	return app.room.StopTyping(ctx, e.Conn)
}

func (app *App) StatusEventHandler(ctx context.Context, e *core.Event) error {
	var payload StatusPayload
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal status payload: %w", err)
	}
	return app.room.SetStatus(ctx, e.Conn, core.UserStatus(payload.Status))
}
