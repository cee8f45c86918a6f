package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Kush2408/dredger-swiper-v4/gateway/internal/api"
	"github.com/Kush2408/dredger-swiper-v4/gateway/internal/feed"
	"github.com/Kush2408/dredger-swiper-v4/gateway/internal/metrics"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often ping frames are sent. Must be less
	// than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins — callers should apply CORS at the reverse-proxy level.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the JSON envelope sent to clients on every broadcast.
type Message struct {
	Event string            `json:"event"`
	Data  api.FeedsResponse `json:"data"`
}

// Hub fans the merged feed views out to connected dashboard clients.
//
// Channel ownership: a session's out channel is written to and closed
// only while mu is held. Sessions leave through detach — on read error,
// on a full buffer during a push, or at shutdown — never by closing
// their own channel.
type Hub struct {
	mgr      *feed.Manager
	interval time.Duration

	mu       sync.Mutex
	sessions map[*session]struct{}
}

// session is one connected dashboard client.
type session struct {
	conn *websocket.Conn
	out  chan []byte
}

// New creates a Hub that reads views through mgr and broadcasts every
// interval.
func New(mgr *feed.Manager, interval time.Duration) *Hub {
	return &Hub{
		mgr:      mgr,
		interval: interval,
		sessions: make(map[*session]struct{}),
	}
}

// Run starts the broadcast ticker loop. It blocks until ctx is cancelled,
// then closes all active connections.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case <-t.C:
			h.push()
		}
	}
}

// ServeHTTP upgrades the HTTP connection to WebSocket and serves the
// client. The current views are sent immediately on connect; afterwards
// the client receives every broadcast tick. Blocks until the connection
// closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	s := &session{
		conn: conn,
		out:  make(chan []byte, sendBufSize),
	}
	h.attach(s)
	defer h.detach(s)

	// Seed the UI without waiting for the next tick.
	if data, err := h.snapshot(); err == nil {
		h.mu.Lock()
		if _, live := h.sessions[s]; live {
			select {
			case s.out <- data:
			default:
			}
		}
		h.mu.Unlock()
	}

	go s.writeLoop()
	s.readLoop() // blocks until connection closes
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// --- internal ---------------------------------------------------------------

func (h *Hub) attach(s *session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	h.mu.Unlock()
	metrics.HubClients.Inc()
}

// detach removes the session and closes its out channel, waking its
// write loop. Safe to call more than once per session.
func (h *Hub) detach(s *session) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; ok {
		delete(h.sessions, s)
		close(s.out)
		metrics.HubClients.Dec()
	}
	h.mu.Unlock()
}

// push sends the current feed views to every session. Sessions that
// cannot keep up are detached.
func (h *Hub) push() {
	if h.Count() == 0 {
		return
	}

	data, err := h.snapshot()
	if err != nil {
		return
	}
	metrics.HubBroadcasts.Inc()

	var dead []*session
	h.mu.Lock()
	for s := range h.sessions {
		select {
		case s.out <- data:
		default:
			dead = append(dead, s)
		}
	}
	h.mu.Unlock()

	for _, s := range dead {
		h.detach(s)
	}
}

// snapshot marshals the current merged feed views into one broadcast frame.
func (h *Hub) snapshot() ([]byte, error) {
	return json.Marshal(Message{
		Event: "feeds",
		Data:  api.BuildFeeds(h.mgr),
	})
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.sessions {
		delete(h.sessions, s)
		close(s.out)
		metrics.HubClients.Dec()
	}
}

// writeLoop drains the session's out channel onto the connection and
// keeps it alive with periodic pings. Exits when the channel is closed
// by detach or a write fails; either way the connection is torn down,
// which in turn ends readLoop.
func (s *session) writeLoop() {
	pings := time.NewTicker(pingPeriod)
	defer pings.Stop()
	defer s.conn.Close()

	for {
		select {
		case msg, ok := <-s.out:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-pings.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop consumes control frames (pong, close) until the connection
// drops. Its return unblocks ServeHTTP, which detaches the session.
func (s *session) readLoop() {
	defer s.conn.Close()
	s.conn.SetReadLimit(512)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}
