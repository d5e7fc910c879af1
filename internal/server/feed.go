package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lucaspires-source/authdash/internal/directory"
	"github.com/lucaspires-source/authdash/internal/logger"
	"github.com/lucaspires-source/authdash/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// sessionEvent is pushed to every open tab of a profile whenever its
// session changes.
type sessionEvent struct {
	Authenticated bool                   `json:"authenticated"`
	User          *directory.UserProfile `json:"user,omitempty"`
}

func eventFor(s session.Session) sessionEvent {
	return sessionEvent{Authenticated: s.Authenticated(), User: s.User}
}

// latestEvent holds at most one pending event. A slow reader skips
// intermediate states but always sees the newest one.
type latestEvent struct {
	mu sync.Mutex
	ch chan sessionEvent
}

func newLatestEvent() *latestEvent {
	return &latestEvent{ch: make(chan sessionEvent, 1)}
}

func (l *latestEvent) publish(ev sessionEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	select {
	case <-l.ch:
	default:
	}
	l.ch <- ev
}

// handleSessionFeed streams the profile's session: the current value first,
// then its changes. Changes that pile up behind a slow reader collapse into
// the newest one.
func (a *App) handleSessionFeed(w http.ResponseWriter, r *http.Request) {
	m := managerFrom(r)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug("Session feed upgrade from %s failed: %v", remoteIP(r), err)
		return
	}

	events := newLatestEvent()
	unsubscribe := m.Subscribe(func(s session.Session) {
		events.publish(eventFor(s))
	})
	defer unsubscribe()
	events.publish(eventFor(m.Current()))

	done := make(chan struct{})
	go readFeed(conn, done)
	writeFeed(conn, events.ch, done)
}

// readFeed discards client messages and closes done when the peer goes away.
func readFeed(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("Session feed read error: %v", err)
			}
			return
		}
	}
}

func writeFeed(conn *websocket.Conn, events <-chan sessionEvent, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case ev := <-events:
			msg, err := json.Marshal(ev)
			if err != nil {
				logger.Error("Encoding session event failed: %v", err)
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
