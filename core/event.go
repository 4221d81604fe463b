package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
)

// Event is the unit exchanged with clients: a tagged JSON payload.
type Event struct {
	// Conn is the originating connection ID of an inbound event. It is set
	// by the transport, never trusted from the wire.
	Conn    string          `json:"-"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (e Event) String() string {
	return fmt.Sprintf("Event{Conn: %s, Type: %s, Payload.Size: %d}", e.Conn, e.Type, len(e.Payload))
}

// NewEvent marshals payload into an outbound event of the given type.
func NewEvent(t string, payload any) (*Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}
	return &Event{Type: t, Payload: b}, nil
}

func EncodeEvent(w io.Writer, e *Event) error {
	if err := json.NewEncoder(w).Encode(e); err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return nil
}

func DecodeEvent(r io.Reader, e *Event) error {
	if err := json.NewDecoder(r).Decode(e); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	return nil
}

// EventTransport is the inbound side of the connection layer.
type EventTransport interface {
	Receive() <-chan *Event
}

// EventSink is the outbound side: it delivers an event to the write paths
// of the given connections. Implementations must not block on slow
// recipients.
type EventSink interface {
	SendTo(e *Event, connIDs ...string)
}

type EventHandler func(context.Context, *Event) error

// EventRouter dispatches inbound events from the transport to registered
// handlers by event type.
type EventRouter struct {
	handlers  map[string]EventHandler
	ctx       context.Context
	transport EventTransport
	logger    *slog.Logger
}

func NewEventRouter(ctx context.Context, logger *slog.Logger, transport EventTransport) *EventRouter {
	return &EventRouter{
		handlers:  make(map[string]EventHandler),
		ctx:       ctx,
		transport: transport,
		logger:    logger,
	}
}

// On registers a handler for an event type. Registering the same type twice
// replaces the previous handler.
func (r *EventRouter) On(eventType string, handler EventHandler) {
	r.handlers[eventType] = handler
}

// Listen consumes the transport's receive channel until the base context is
// cancelled. Each event is handled on its own goroutine; the room's
// serialized mutation path is what orders state changes, not the router.
func (r *EventRouter) Listen() {
	go func() {
		for {
			select {
			case <-r.ctx.Done():
				return
			case e := <-r.transport.Receive():
				if e == nil {
					continue
				}
				r.logger.Debug(fmt.Sprintf("received: %v", e))
				handler, ok := r.handlers[e.Type]
				if !ok {
					r.logger.Warn(fmt.Sprintf("no handler for event type %q", e.Type))
					continue
				}
				go func(e *Event) {
					if err := handler(r.ctx, e); err != nil {
						r.logger.Error(fmt.Sprintf("%s handler: %v", e.Type, err))
					}
				}(e)
			}
		}
	}()
}
