// Package stream manages one live WebSocket connection per feed URL.
//
// Open(url, callbacks) starts a subscription that dials the feed endpoint,
// delivers every inbound message to OnMessage, and surfaces lifecycle
// events through OnOpen, OnError, and OnClose. Lost connections are
// redialed automatically with truncated exponential backoff and jitter;
// IsConnecting reports true while a redial is in progress.
//
// An empty URL produces a permanently disabled subscription that never
// connects — the representation of "feed disabled".
//
// Close terminates the connection and stops reconnection. Once Close
// returns, no further callbacks fire for this subscription: each dial
// belongs to a connection generation, and delivery re-checks the current
// generation under the dispatch lock before invoking a callback.
// Callbacks must not call Close or Reconnect on their own subscription.
package stream
