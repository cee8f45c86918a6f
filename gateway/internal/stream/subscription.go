package stream

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	backoffInitial    = 1 * time.Second
	backoffMax        = 60 * time.Second
	backoffMultiplier = 2.0
	handshakeTimeout  = 10 * time.Second
)

// Callbacks are invoked from the subscription's read goroutine, one at a
// time. Any field may be nil.
type Callbacks struct {
	// OnMessage receives each inbound message payload. The slice is owned
	// by the callee; the subscription never reuses it.
	OnMessage func(payload []byte)

	// OnError receives dial failures and transport errors. Errors are
	// non-fatal — the subscription keeps reconnecting until Close.
	OnError func(err error)

	// OnOpen fires after each successful (re)connect.
	OnOpen func()

	// OnClose fires when an established connection is lost.
	OnClose func()
}

// Subscription owns at most one live WebSocket connection to a feed URL.
type Subscription struct {
	url    string
	cb     Callbacks
	dialer *websocket.Dialer

	// cbMu serialises callback delivery. Close acquires it after flipping
	// closed, which blocks until any in-flight callback has returned.
	cbMu sync.Mutex

	mu         sync.Mutex
	conn       *websocket.Conn
	done       chan struct{} // closed to wake the run loop out of backoff
	gen        int           // connection generation; bumped by Close and Reconnect
	disabled   bool          // empty URL — never connects
	closed     bool
	connected  bool
	connecting bool
	gotMessage bool
	err        error

	// Backoff bounds, overridable in tests.
	boInitial time.Duration
	boMax     time.Duration
}

// Open starts a subscription to url with the given callbacks. If url is
// empty the subscription is a permanent no-op.
func Open(url string, cb Callbacks) *Subscription {
	return openWith(url, cb, backoffInitial, backoffMax)
}

// openWith is Open with explicit backoff bounds, split out so tests can
// reconnect quickly.
func openWith(url string, cb Callbacks, boInitial, boMax time.Duration) *Subscription {
	s := &Subscription{
		url:       url,
		cb:        cb,
		dialer:    &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		boInitial: boInitial,
		boMax:     boMax,
	}
	if url == "" {
		s.disabled = true
		return s
	}
	s.mu.Lock()
	s.connecting = true
	s.done = make(chan struct{})
	gen, done := s.gen, s.done
	s.mu.Unlock()
	go s.run(gen, done)
	return s
}

// URL returns the feed URL this subscription was opened with.
func (s *Subscription) URL() string { return s.url }

// IsConnected reports whether a connection is currently established.
func (s *Subscription) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// IsConnecting reports whether a dial or redial is in progress.
func (s *Subscription) IsConnecting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connecting
}

// Loading reports whether the subscription is active but has not yet
// delivered its first message.
func (s *Subscription) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.disabled && !s.closed && !s.gotMessage
}

// Err returns the most recent dial or transport error, or nil.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close terminates the connection and stops reconnection until Reconnect
// is called. When Close returns, no further callbacks will fire.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.disabled || s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.gen++
	conn := s.conn
	s.conn = nil
	s.connected = false
	s.connecting = false
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}

	// Wait out any callback already in flight so none outlives Close.
	s.cbMu.Lock()
	s.cbMu.Unlock() //nolint:staticcheck // lock/unlock pair is the barrier
}

// Reconnect drops the current connection, if any, and starts a fresh dial
// loop. It also re-arms a subscription that was previously closed.
func (s *Subscription) Reconnect() {
	s.mu.Lock()
	if s.disabled {
		s.mu.Unlock()
		return
	}
	s.gen++
	s.closed = false
	conn := s.conn
	s.conn = nil
	s.connected = false
	s.connecting = true
	s.gotMessage = false // Loading means "no message yet on this connection"
	s.err = nil
	if s.done != nil {
		close(s.done)
	}
	s.done = make(chan struct{})
	gen, done := s.gen, s.done
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	go s.run(gen, done)
}

// run dials, reads, and redials until the generation is superseded.
func (s *Subscription) run(gen int, done chan struct{}) {
	bo := &backoff{initial: s.boInitial, max: s.boMax, current: s.boInitial}

	for {
		if !s.current(gen) {
			return
		}

		conn, _, err := s.dialer.Dial(s.url, nil)
		if err != nil {
			s.mu.Lock()
			if s.closed || s.gen != gen {
				s.mu.Unlock()
				return
			}
			s.err = err
			s.mu.Unlock()

			s.dispatch(gen, func() {
				if s.cb.OnError != nil {
					s.cb.OnError(err)
				}
			})

			wait := bo.next()
			slog.Warn("stream: dial failed, will retry",
				"url", s.url, "err", err, "retry_in", wait)
			select {
			case <-done:
				return
			case <-time.After(wait):
			}
			continue
		}

		s.mu.Lock()
		if s.closed || s.gen != gen {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conn = conn
		s.connected = true
		s.connecting = false
		s.err = nil
		s.mu.Unlock()

		bo.reset()
		slog.Info("stream: connected", "url", s.url)
		s.dispatch(gen, func() {
			if s.cb.OnOpen != nil {
				s.cb.OnOpen()
			}
		})

		readErr := s.readLoop(gen, conn)
		conn.Close()

		s.mu.Lock()
		if s.closed || s.gen != gen {
			s.mu.Unlock()
			return
		}
		s.connected = false
		s.connecting = true
		s.conn = nil
		s.err = readErr
		s.mu.Unlock()

		s.dispatch(gen, func() {
			if s.cb.OnError != nil && readErr != nil {
				s.cb.OnError(readErr)
			}
			if s.cb.OnClose != nil {
				s.cb.OnClose()
			}
		})

		wait := bo.next()
		slog.Warn("stream: connection lost, will reconnect",
			"url", s.url, "err", readErr, "retry_in", wait)
		select {
		case <-done:
			return
		case <-time.After(wait):
		}
	}
}

// readLoop delivers inbound messages until the connection fails or the
// generation is superseded.
func (s *Subscription) readLoop(gen int, conn *websocket.Conn) error {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		s.mu.Lock()
		s.gotMessage = true
		s.mu.Unlock()

		if !s.dispatch(gen, func() {
			if s.cb.OnMessage != nil {
				s.cb.OnMessage(msg)
			}
		}) {
			return nil
		}
	}
}

// dispatch invokes fn under the delivery lock if gen is still the active
// generation. It returns false when the subscription has moved on.
func (s *Subscription) dispatch(gen int, fn func()) bool {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	if !s.current(gen) {
		return false
	}
	fn()
	return true
}

// current reports whether gen is the live, unclosed generation.
func (s *Subscription) current(gen int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.gen == gen
}

// backoff implements truncated exponential backoff with jitter.
type backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

// next returns the current backoff duration and advances the internal state.
func (b *backoff) next() time.Duration {
	d := b.current
	// Apply ±25 % jitter.
	jitter := time.Duration(float64(b.current) * 0.25 * (rand.Float64()*2 - 1)) //nolint:gosec // not crypto
	d += jitter
	if d < 0 {
		d = 0
	}

	b.current = time.Duration(float64(b.current) * backoffMultiplier)
	if b.current > b.max {
		b.current = b.max
	}
	return d
}

func (b *backoff) reset() {
	b.current = b.initial
}
