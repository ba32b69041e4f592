package socket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"leaderboard-watch/internal/domain"
	"github.com/gorilla/websocket"
)

// Handler receives the raw payload of a named push event.
type Handler func(data json.RawMessage)

// Options configure the push-channel connection.
type Options struct {
	URL               string
	ReconnectAttempts int
	ReconnectDelay    time.Duration
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Manager owns a single lazily-created connection to the push channel.
// It is session-scoped and injected into its consumers rather than held as
// package-level state, so teardown and tests stay deterministic.
type Manager struct {
	opts Options

	dialMu sync.Mutex // serializes Connect/redial

	mu       sync.RWMutex
	conn     *websocket.Conn
	state    domain.ConnState
	identity domain.Identity
	rooms    map[string]struct{}
	handlers map[string]map[int]Handler
	nextID   int
	closed   bool

	wmu sync.Mutex // gorilla connections allow one concurrent writer
}

func NewManager(opts Options) *Manager {
	if opts.ReconnectAttempts <= 0 {
		opts.ReconnectAttempts = 5
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = 2 * time.Second
	}
	return &Manager{
		opts:     opts,
		state:    domain.StateDisconnected,
		rooms:    make(map[string]struct{}),
		handlers: make(map[string]map[int]Handler),
	}
}

// Connect establishes the connection if none is open. Idempotent: concurrent
// calls share the same underlying connection. On success it authenticates the
// identity, joins the teacher room for teachers, and re-joins any rooms
// accumulated before a reconnect.
func (m *Manager) Connect(ctx context.Context, identity domain.Identity) error {
	m.dialMu.Lock()
	defer m.dialMu.Unlock()

	m.mu.Lock()
	if m.state == domain.StateConnected {
		m.mu.Unlock()
		return nil
	}
	m.identity = identity
	m.closed = false
	m.state = domain.StateConnecting
	m.mu.Unlock()

	return m.dial(ctx)
}

// dial must be called with dialMu held.
func (m *Manager) dial(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, m.opts.URL, nil)
	if err != nil {
		m.mu.Lock()
		m.state = domain.StateDisconnected
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.conn = conn
	m.state = domain.StateConnected
	identity := m.identity
	rooms := make([]string, 0, len(m.rooms))
	for room := range m.rooms {
		rooms = append(rooms, room)
	}
	m.mu.Unlock()

	go m.readLoop(conn)

	if identity.UserID != "" {
		m.emit(domain.EventAuthenticate, map[string]string{"userId": identity.UserID})
		if identity.Role == "teacher" {
			m.emit(domain.EventJoinTeacherRoom, struct{}{})
		}
	}
	for _, room := range rooms {
		m.emit(domain.EventJoinQuizRoom, map[string]string{"quizId": room})
	}
	return nil
}

// JoinRoom signals interest in a quiz room so scoped push events are
// delivered. Membership accumulates and survives reconnects; rooms are never
// explicitly left. Establishes the connection first when none is open.
func (m *Manager) JoinRoom(roomID string) {
	if roomID == "" {
		return
	}

	m.mu.Lock()
	_, already := m.rooms[roomID]
	m.rooms[roomID] = struct{}{}
	state := m.state
	identity := m.identity
	m.mu.Unlock()

	if state != domain.StateConnected {
		if err := m.Connect(context.Background(), identity); err != nil {
			log.Printf("socket: join room %s: %v", roomID, err)
		}
		// dial re-joins all recorded rooms, this one included
		return
	}
	if already {
		return
	}
	if err := m.emit(domain.EventJoinQuizRoom, map[string]string{"quizId": roomID}); err != nil {
		log.Printf("socket: join room %s: %v", roomID, err)
	}
}

// Subscribe registers a handler for a named push event and returns a function
// that removes exactly that handler. Subscriptions to the same event are
// additive.
func (m *Manager) Subscribe(event string, handler Handler) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handlers[event] == nil {
		m.handlers[event] = make(map[int]Handler)
	}
	id := m.nextID
	m.nextID++
	m.handlers[event][id] = handler

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.handlers[event], id)
	}
}

// Disconnect tears the connection down. Safe to call when already
// disconnected; a later Connect starts fresh.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.state = domain.StateDisconnected
}

// State reports the connection lifecycle state.
func (m *Manager) State() domain.ConnState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Rooms returns the accumulated room memberships.
func (m *Manager) Rooms() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rooms := make([]string, 0, len(m.rooms))
	for room := range m.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

func (m *Manager) emit(event string, data any) error {
	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()
	if conn == nil {
		log.Printf("socket: emit %s: %v", event, domain.ErrNotConnected)
		return domain.ErrNotConnected
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	m.wmu.Lock()
	defer m.wmu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(envelope{Event: event, Data: payload})
}

func (m *Manager) readLoop(conn *websocket.Conn) {
	for {
		var msg envelope
		if err := conn.ReadJSON(&msg); err != nil {
			m.mu.RLock()
			closed := m.closed
			m.mu.RUnlock()
			if !closed {
				log.Printf("socket: read: %v", err)
				m.reconnect()
			}
			return
		}
		m.dispatch(msg)
	}
}

func (m *Manager) dispatch(msg envelope) {
	m.mu.RLock()
	handlers := make([]Handler, 0, len(m.handlers[msg.Event]))
	for _, h := range m.handlers[msg.Event] {
		handlers = append(handlers, h)
	}
	m.mu.RUnlock()

	for _, h := range handlers {
		h(msg.Data)
	}
}

// reconnect retries with a fixed delay up to the configured attempt count.
// After the attempts are exhausted the manager stays disconnected until a
// fresh Connect.
func (m *Manager) reconnect() {
	m.mu.Lock()
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.state = domain.StateDisconnected
	m.mu.Unlock()

	for attempt := 1; attempt <= m.opts.ReconnectAttempts; attempt++ {
		time.Sleep(m.opts.ReconnectDelay)

		m.mu.RLock()
		closed := m.closed
		m.mu.RUnlock()
		if closed {
			return
		}

		m.dialMu.Lock()
		m.mu.Lock()
		connected := m.state == domain.StateConnected
		if !connected {
			m.state = domain.StateConnecting
		}
		m.mu.Unlock()
		if connected {
			m.dialMu.Unlock()
			return
		}
		err := m.dial(context.Background())
		m.dialMu.Unlock()
		if err == nil {
			log.Printf("socket: reconnected after %d attempt(s)", attempt)
			return
		}
		log.Printf("socket: reconnect attempt %d/%d: %v", attempt, m.opts.ReconnectAttempts, err)
	}
	log.Printf("socket: giving up after %d reconnect attempts", m.opts.ReconnectAttempts)
}
