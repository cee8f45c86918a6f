package stream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

// wsURL converts an httptest server URL to a ws:// URL.
func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// fastOpen opens a subscription with a short backoff so reconnect tests
// stay quick.
func fastOpen(url string, cb Callbacks) *Subscription {
	return openWith(url, cb, 10*time.Millisecond, 50*time.Millisecond)
}

func TestDisabledSubscription(t *testing.T) {
	var called atomic.Int64
	s := Open("", Callbacks{
		OnMessage: func([]byte) { called.Add(1) },
		OnError:   func(error) { called.Add(1) },
		OnOpen:    func() { called.Add(1) },
	})

	if s.IsConnected() || s.IsConnecting() || s.Loading() {
		t.Error("disabled subscription reports activity")
	}

	// Close and Reconnect are no-ops and must not panic or connect.
	s.Close()
	s.Reconnect()
	time.Sleep(20 * time.Millisecond)

	if s.IsConnecting() {
		t.Error("Reconnect on disabled subscription started connecting")
	}
	if called.Load() != 0 {
		t.Errorf("disabled subscription fired %d callbacks", called.Load())
	}
}

func TestReceivesMessages(t *testing.T) {
	send := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for msg := range send {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
	}))
	defer srv.Close()
	defer close(send)

	var opened atomic.Int64
	got := make(chan string, 4)
	s := fastOpen(wsURL(srv), Callbacks{
		OnOpen:    func() { opened.Add(1) },
		OnMessage: func(p []byte) { got <- string(p) },
	})
	defer s.Close()

	waitFor(t, 2*time.Second, s.IsConnected, "connect")
	if opened.Load() != 1 {
		t.Errorf("OnOpen fired %d times, want 1", opened.Load())
	}
	if !s.Loading() {
		t.Error("Loading before first message: got false, want true")
	}

	send <- `{"temp":72}`
	select {
	case msg := <-got:
		if msg != `{"temp":72}` {
			t.Errorf("OnMessage: got %s", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}

	if s.Loading() {
		t.Error("Loading after first message: got true, want false")
	}
	if s.Err() != nil {
		t.Errorf("Err: got %v, want nil", s.Err())
	}
}

func TestCloseStopsCallbacks(t *testing.T) {
	// Server floods messages as fast as it can.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(`{}`)); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	var delivered atomic.Int64
	s := fastOpen(wsURL(srv), Callbacks{
		OnMessage: func([]byte) { delivered.Add(1) },
		OnError:   func(error) { delivered.Add(1) },
		OnClose:   func() { delivered.Add(1) },
	})

	waitFor(t, 2*time.Second, func() bool { return delivered.Load() > 0 }, "first message")

	s.Close()
	after := delivered.Load()
	time.Sleep(100 * time.Millisecond)

	if got := delivered.Load(); got != after {
		t.Errorf("callbacks after Close: %d fired", got-after)
	}
	if s.IsConnected() || s.IsConnecting() || s.Loading() {
		t.Error("closed subscription reports activity")
	}
}

func TestReconnectsAfterDrop(t *testing.T) {
	var dials atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		n := dials.Add(1)
		if n == 1 {
			// Drop the first connection immediately to force a redial.
			conn.Close()
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`{"after":"reconnect"}`)) //nolint:errcheck
		// Hold the second connection open.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	var closes atomic.Int64
	got := make(chan string, 1)
	s := fastOpen(wsURL(srv), Callbacks{
		OnClose:   func() { closes.Add(1) },
		OnMessage: func(p []byte) { got <- string(p) },
	})
	defer s.Close()

	select {
	case msg := <-got:
		if msg != `{"after":"reconnect"}` {
			t.Errorf("message after reconnect: got %s", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for post-reconnect message")
	}

	if dials.Load() < 2 {
		t.Errorf("dials: got %d, want >= 2", dials.Load())
	}
	if closes.Load() < 1 {
		t.Errorf("OnClose fired %d times, want >= 1", closes.Load())
	}
}

func TestReconnectRearmsAfterClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	s := fastOpen(wsURL(srv), Callbacks{})
	waitFor(t, 2*time.Second, s.IsConnected, "first connect")

	s.Close()
	if s.IsConnected() {
		t.Fatal("IsConnected after Close: got true")
	}

	s.Reconnect()
	waitFor(t, 2*time.Second, s.IsConnected, "reconnect after Close")
	s.Close()
}

func TestReconnectResetsLoading(t *testing.T) {
	// Server holds connections open but never sends anything after the
	// first message.
	first := make(chan string, 1)
	first <- `{"n":1}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		select {
		case msg := <-first:
			conn.WriteMessage(websocket.TextMessage, []byte(msg)) //nolint:errcheck
		default:
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	got := make(chan string, 1)
	s := fastOpen(wsURL(srv), Callbacks{
		OnMessage: func(p []byte) { got <- string(p) },
	})
	defer s.Close()

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first message")
	}
	if s.Loading() {
		t.Fatal("Loading after first message: got true, want false")
	}

	// The fresh connection has not delivered anything yet, so the
	// subscription is loading again.
	s.Reconnect()
	if !s.Loading() {
		t.Error("Loading after Reconnect: got false, want true")
	}
	waitFor(t, 2*time.Second, s.IsConnected, "reconnect")
	if !s.Loading() {
		t.Error("Loading on silent reconnected stream: got false, want true")
	}
}

func TestDialErrorSurfacesAndRetries(t *testing.T) {
	var errs atomic.Int64
	// Nothing listens on this port — every dial fails fast.
	s := fastOpen("ws://127.0.0.1:1/feed", Callbacks{
		OnError: func(error) { errs.Add(1) },
	})
	defer s.Close()

	waitFor(t, 2*time.Second, func() bool { return errs.Load() >= 2 }, "repeated dial errors")

	if !s.IsConnecting() {
		t.Error("IsConnecting during retry loop: got false, want true")
	}
	if s.Err() == nil {
		t.Error("Err during retry loop: got nil")
	}
}
