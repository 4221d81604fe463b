package core

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ConnManager owns the live websocket connections. It is the room's
// EventSink on the way out and its EventTransport on the way in.
//
// Connections are keyed by an opaque ID assigned at upgrade time, because a
// connection has no identity until its client joins.
type ConnManager struct {
	conns   map[string]*Conn
	mu      sync.RWMutex
	connWg  *sync.WaitGroup
	context context.Context
	logger  *slog.Logger

	onConnectionClosed func(string)

	receivedEvent chan *Event

	upgrader        websocket.Upgrader
	ReadStreamSize  int
	WriteStreamSize int
}

var defaultUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type ManagerOption func(*ConnManager)

func WithCheckOrigin(f func(r *http.Request) bool) ManagerOption {
	return func(m *ConnManager) {
		m.upgrader.CheckOrigin = f
	}
}

func NewConnManager(ctx context.Context, wg *sync.WaitGroup, logger *slog.Logger, opts ...ManagerOption) *ConnManager {
	m := &ConnManager{
		connWg:             wg,
		conns:              make(map[string]*Conn),
		logger:             logger,
		context:            ctx,
		upgrader:           defaultUpgrader,
		ReadStreamSize:     100,
		WriteStreamSize:    100,
		onConnectionClosed: func(string) {},
	}

	for _, opt := range opts {
		opt(m)
	}

	m.receivedEvent = make(chan *Event, m.ReadStreamSize)

	return m
}

// Receive returns the stream of inbound events from every connection.
func (m *ConnManager) Receive() <-chan *Event {
	return m.receivedEvent
}

// OnConnectionClosed registers the callback invoked after a connection is
// removed, with the connection's ID. This is how transport-level
// disconnects reach the room.
func (m *ConnManager) OnConnectionClosed(f func(string)) {
	m.onConnectionClosed = f
}

// Connect upgrades the request and starts the connection's read and write
// loops. It returns the assigned connection ID.
func (m *ConnManager) Connect(w http.ResponseWriter, r *http.Request) (string, error) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	wsConn := &Conn{
		id:          id,
		conn:        conn,
		context:     m.context,
		writeStream: make(chan *Event, m.WriteStreamSize),
		readStream:  m.receivedEvent,
		ticker:      time.NewTicker(pingPeriod),
		logger:      m.logger.With(slog.String("conn", id)),
		notifyDisconnect: func() {
			m.disconnect(id)
		},
	}

	m.mu.Lock()
	m.conns[id] = wsConn
	m.mu.Unlock()

	m.connWg.Add(1)
	go func() {
		defer m.connWg.Done()
		wsConn.readLoop()
	}()
	m.connWg.Add(1)
	go func() {
		defer m.connWg.Done()
		wsConn.writeLoop()
	}()

	m.logger.Info("connection opened", slog.String("conn", id))
	return id, nil
}

func (m *ConnManager) disconnect(connID string) {
	m.mu.Lock()
	conn, ok := m.conns[connID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.conns, connID)
	m.mu.Unlock()

	conn.close()
	m.onConnectionClosed(connID)
	m.logger.Info("connection closed", slog.String("conn", connID))
}

// SendTo queues the event on each connection's write stream. A connection
// whose queue is full is disconnected rather than allowed to stall the
// caller or the other recipients.
func (m *ConnManager) SendTo(e *Event, connIDs ...string) {
	var overflowed []string
	m.mu.RLock()
	for _, id := range connIDs {
		conn, ok := m.conns[id]
		if !ok {
			continue
		}
		select {
		case conn.writeStream <- e:
		default:
			overflowed = append(overflowed, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range overflowed {
		m.logger.Warn("write queue full, dropping connection", slog.String("conn", id))
		m.disconnect(id)
	}
}

// Close disconnects every live connection.
func (m *ConnManager) Close() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.conns))
	for id := range m.conns {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	for _, id := range ids {
		m.disconnect(id)
	}
}
