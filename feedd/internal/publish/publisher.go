package publish

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Kush2408/dredger-swiper-v4/pkg/feedkey"
)

const (
	// writeTimeout is the deadline for a single write to a subscriber.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often ping frames are sent. Must be less
	// than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-subscriber outgoing message buffer depth.
	sendBufSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Publisher owns one subscriber set per registered feed. Feeds are
// registered at startup; afterwards the set is immutable.
type Publisher struct {
	mu    sync.RWMutex
	feeds map[feedkey.Key]*feedState
}

// feedState holds one feed's retained payload and live subscribers.
// A subscriber's send channel is only ever written to or closed while
// mu is held, so a fan-out can never race a disconnect closing the
// channel.
type feedState struct {
	mu       sync.RWMutex
	retained json.RawMessage
	subs     map[*subscriber]struct{}
}

// subscriber represents one connected feed consumer.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates an empty Publisher.
func New() *Publisher {
	return &Publisher{feeds: make(map[feedkey.Key]*feedState)}
}

// Register creates the subscriber set for key. Publishing to or
// connecting on an unregistered feed fails.
func (p *Publisher) Register(key feedkey.Key) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.feeds[key]; !ok {
		p.feeds[key] = &feedState{subs: make(map[*subscriber]struct{})}
	}
}

// Publish retains payload as the feed's latest snapshot and fans it out
// to every connected subscriber. Subscribers that cannot keep up are
// disconnected.
func (p *Publisher) Publish(key feedkey.Key, payload json.RawMessage) {
	p.mu.RLock()
	fs, ok := p.feeds[key]
	p.mu.RUnlock()
	if !ok {
		return
	}

	for _, s := range fs.push(payload) {
		fs.drop(s)
	}
}

// SubscriberCount returns the number of connected subscribers for key.
func (p *Publisher) SubscriberCount(key feedkey.Key) int {
	p.mu.RLock()
	fs, ok := p.feeds[key]
	p.mu.RUnlock()
	if !ok {
		return 0
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.subs)
}

// ServeHTTP handles GET /ws/feeds/{key}: it upgrades the connection and
// streams the feed until the client disconnects.
func (p *Publisher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutPrefix(r.URL.Path, "/ws/feeds/")
	if !ok || name == "" {
		http.NotFound(w, r)
		return
	}
	key, err := feedkey.Parse(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	p.mu.RLock()
	fs, registered := p.feeds[key]
	p.mu.RUnlock()
	if !registered {
		http.NotFound(w, r)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	s := &subscriber{
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}
	fs.add(s)
	defer fs.drop(s)

	// Seed the client with the retained snapshot, if one exists. The send
	// happens under the set lock; see feedState.
	fs.mu.RLock()
	if _, live := fs.subs[s]; live && fs.retained != nil {
		select {
		case s.send <- fs.retained:
		default:
		}
	}
	fs.mu.RUnlock()

	slog.Debug("publish: subscriber connected", "feed", key, "remote", r.RemoteAddr)

	go s.writePump()
	s.readPump() // blocks until connection closes
}

// Close disconnects every subscriber on every feed.
func (p *Publisher) Close() {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, fs := range p.feeds {
		fs.mu.Lock()
		for s := range fs.subs {
			close(s.send)
			delete(fs.subs, s)
		}
		fs.mu.Unlock()
	}
}

// push retains payload and forwards it to every subscriber while
// holding the set lock. Subscribers whose buffer is full are returned
// for the caller to drop.
func (fs *feedState) push(payload json.RawMessage) []*subscriber {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.retained = payload
	var dead []*subscriber
	for s := range fs.subs {
		select {
		case s.send <- payload:
		default:
			dead = append(dead, s)
		}
	}
	return dead
}

func (fs *feedState) add(s *subscriber) {
	fs.mu.Lock()
	fs.subs[s] = struct{}{}
	fs.mu.Unlock()
}

func (fs *feedState) drop(s *subscriber) {
	fs.mu.Lock()
	if _, ok := fs.subs[s]; ok {
		delete(fs.subs, s)
		close(s.send)
	}
	fs.mu.Unlock()
}

// writePump drains the subscriber's send channel and forwards payloads
// to the WebSocket connection. It also sends periodic ping frames. Runs
// in its own goroutine per subscriber.
func (s *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames from the connection to process control messages
// (pong, close) and detect disconnects. Blocks until the connection closes.
func (s *subscriber) readPump() {
	defer s.conn.Close()
	s.conn.SetReadLimit(512)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			break
		}
	}
}
