package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"leaderboard-watch/internal/domain"
	"github.com/gorilla/websocket"
)

// pushServer is a minimal push-channel endpoint: it records emitted signals
// and lets tests push events down to the client.
type pushServer struct {
	upgrader websocket.Upgrader

	mu       sync.Mutex
	conns    []*websocket.Conn
	received []envelope
	dials    int
}

func newPushServer() *pushServer {
	return &pushServer{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

func (s *pushServer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conns = append(s.conns, conn)
	s.dials++
	s.mu.Unlock()

	go func() {
		for {
			var msg envelope
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			s.mu.Lock()
			s.received = append(s.received, msg)
			s.mu.Unlock()
		}
	}()
}

func (s *pushServer) push(t *testing.T, event string, data any) {
	t.Helper()
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal push: %v", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.conns) == 0 {
		t.Fatalf("no connection to push to")
	}
	conn := s.conns[len(s.conns)-1]
	if err := conn.WriteJSON(envelope{Event: event, Data: payload}); err != nil {
		t.Fatalf("push %s: %v", event, err)
	}
}

func (s *pushServer) waitForEvents(t *testing.T, want int) []envelope {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		if len(s.received) >= want {
			got := append([]envelope(nil), s.received...)
			s.mu.Unlock()
			return got
		}
		s.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.Fatalf("timed out waiting for %d events, got %d", want, len(s.received))
	return nil
}

func (s *pushServer) dialCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials
}

func startPushServer(t *testing.T) (*pushServer, *Manager, func()) {
	t.Helper()
	ps := newPushServer()
	server := httptest.NewServer(http.HandlerFunc(ps.handle))
	manager := NewManager(Options{
		URL:               "ws" + server.URL[len("http"):],
		ReconnectAttempts: 2,
		ReconnectDelay:    50 * time.Millisecond,
	})
	return ps, manager, func() {
		manager.Disconnect()
		server.Close()
	}
}

func TestConnectAuthenticatesTeacher(t *testing.T) {
	ps, manager, cleanup := startPushServer(t)
	defer cleanup()

	err := manager.Connect(context.Background(), domain.Identity{UserID: "t-1", Role: "teacher"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if manager.State() != domain.StateConnected {
		t.Fatalf("expected connected state, got %s", manager.State())
	}

	events := ps.waitForEvents(t, 2)
	if events[0].Event != domain.EventAuthenticate {
		t.Fatalf("expected authenticate first, got %s", events[0].Event)
	}
	var auth map[string]string
	if err := json.Unmarshal(events[0].Data, &auth); err != nil || auth["userId"] != "t-1" {
		t.Fatalf("expected authenticate with user id, got %s", events[0].Data)
	}
	if events[1].Event != domain.EventJoinTeacherRoom {
		t.Fatalf("expected teacher room join, got %s", events[1].Event)
	}
}

func TestConnectIsIdempotent(t *testing.T) {
	ps, manager, cleanup := startPushServer(t)
	defer cleanup()

	identity := domain.Identity{UserID: "u1"}
	if err := manager.Connect(context.Background(), identity); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := manager.Connect(context.Background(), identity); err != nil {
		t.Fatalf("second connect: %v", err)
	}
	if ps.dialCount() != 1 {
		t.Fatalf("expected a single underlying connection, got %d", ps.dialCount())
	}
}

func TestJoinRoomEmitsSignal(t *testing.T) {
	ps, manager, cleanup := startPushServer(t)
	defer cleanup()

	if err := manager.Connect(context.Background(), domain.Identity{UserID: "u1"}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	manager.JoinRoom("quiz-7")

	events := ps.waitForEvents(t, 2) // authenticate, then join
	last := events[len(events)-1]
	if last.Event != domain.EventJoinQuizRoom {
		t.Fatalf("expected join signal, got %s", last.Event)
	}
	var join map[string]string
	if err := json.Unmarshal(last.Data, &join); err != nil || join["quizId"] != "quiz-7" {
		t.Fatalf("expected quiz-7 join payload, got %s", last.Data)
	}
	if rooms := manager.Rooms(); len(rooms) != 1 || rooms[0] != "quiz-7" {
		t.Fatalf("expected membership recorded, got %v", rooms)
	}
}

func TestJoinRoomAutoConnects(t *testing.T) {
	ps, manager, cleanup := startPushServer(t)
	defer cleanup()

	manager.JoinRoom("quiz-7")

	if manager.State() != domain.StateConnected {
		t.Fatalf("expected auto-connect, state %s", manager.State())
	}
	events := ps.waitForEvents(t, 1)
	if events[len(events)-1].Event != domain.EventJoinQuizRoom {
		t.Fatalf("expected join signal after auto-connect, got %+v", events)
	}
}

func TestSubscribeDispatchAndUnsubscribe(t *testing.T) {
	ps, manager, cleanup := startPushServer(t)
	defer cleanup()

	if err := manager.Connect(context.Background(), domain.Identity{}); err != nil {
		t.Fatalf("connect: %v", err)
	}

	first := make(chan json.RawMessage, 4)
	second := make(chan json.RawMessage, 4)
	unsubFirst := manager.Subscribe(domain.EventSubmissionNotification, func(data json.RawMessage) {
		first <- data
	})
	unsubSecond := manager.Subscribe(domain.EventSubmissionNotification, func(data json.RawMessage) {
		second <- data
	})
	defer unsubSecond()

	ps.push(t, domain.EventSubmissionNotification, map[string]string{"quizId": "q1"})

	// Subscriptions are additive: both handlers see the event.
	for name, ch := range map[string]chan json.RawMessage{"first": first, "second": second} {
		select {
		case <-ch:
		case <-time.After(3 * time.Second):
			t.Fatalf("%s handler never called", name)
		}
	}

	// Unsubscribing removes exactly that handler.
	unsubFirst()
	ps.push(t, domain.EventSubmissionNotification, map[string]string{"quizId": "q2"})
	select {
	case <-second:
	case <-time.After(3 * time.Second):
		t.Fatalf("remaining handler never called")
	}
	select {
	case <-first:
		t.Fatalf("unsubscribed handler still called")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	_, manager, cleanup := startPushServer(t)
	defer cleanup()

	if err := manager.Connect(context.Background(), domain.Identity{}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	manager.Disconnect()
	manager.Disconnect() // no-op
	if manager.State() != domain.StateDisconnected {
		t.Fatalf("expected disconnected, got %s", manager.State())
	}
}

func TestReconnectRejoinsRooms(t *testing.T) {
	ps, manager, cleanup := startPushServer(t)
	defer cleanup()

	if err := manager.Connect(context.Background(), domain.Identity{UserID: "u1"}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	manager.JoinRoom("quiz-7")
	ps.waitForEvents(t, 2)

	// Drop the connection server-side; the manager should redial and
	// re-join the accumulated room.
	ps.mu.Lock()
	_ = ps.conns[0].Close()
	ps.mu.Unlock()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if ps.dialCount() >= 2 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if ps.dialCount() < 2 {
		t.Fatalf("expected reconnect, dials=%d", ps.dialCount())
	}

	events := ps.waitForEvents(t, 4) // auth, join, auth again, join again
	var rejoins int
	for _, ev := range events {
		if ev.Event == domain.EventJoinQuizRoom {
			rejoins++
		}
	}
	if rejoins < 2 {
		t.Fatalf("expected room re-join after reconnect, events=%+v", events)
	}
}
