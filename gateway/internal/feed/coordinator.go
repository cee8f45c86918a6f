package feed

import (
	"encoding/json"
	"sync"

	"github.com/Kush2408/dredger-swiper-v4/gateway/internal/cache"
	"github.com/Kush2408/dredger-swiper-v4/gateway/internal/metrics"
	"github.com/Kush2408/dredger-swiper-v4/gateway/internal/stream"
	"github.com/Kush2408/dredger-swiper-v4/pkg/feedkey"
)

// subscription is the slice of stream.Subscription the coordinator needs.
// Abstracted so tests can inject a fake and drive callbacks directly.
type subscription interface {
	IsConnected() bool
	IsConnecting() bool
	Loading() bool
	Err() error
	Reconnect()
	Close()
}

// openStream dials a feed endpoint. Swapped out in tests.
var openStream = func(url string, cb stream.Callbacks) subscription {
	return stream.Open(url, cb)
}

// Options carries optional per-feed callbacks and behaviour flags.
// Callbacks are forwarded from the underlying subscription after the
// coordinator has done its own bookkeeping.
type Options struct {
	OnMessage func(payload json.RawMessage)
	OnError   func(err error)
	OnOpen    func()
	OnClose   func()

	// ForceRefresh discards any cached entry for the key before the first
	// connect, so the feed starts cold.
	ForceRefresh bool
}

// View is the merged per-feed state the presentation layer renders from.
// It is recomputed on every call — never stored.
type View struct {
	Key        feedkey.Key
	Data       json.RawMessage
	Err        error
	Connected  bool
	Connecting bool
	Loading    bool
	IsCached   bool
	IsStale    bool
}

// Coordinator composes one stream subscription with the shared snapshot
// cache for a single feed.
type Coordinator struct {
	key   feedkey.Key
	url   string
	cache *cache.Cache
	opts  Options

	mu            sync.Mutex
	sub           subscription
	live          json.RawMessage // latest inbound message, nil until one arrives
	firstLoadDone bool
	refreshing    bool // force-refresh in flight: hide data until a fresh message
	lastErr       error
}

// NewCoordinator wires a feed to the cache and opens its subscription.
// An empty url leaves the feed disabled: the view then serves cache only
// and never reports loading.
func NewCoordinator(c *cache.Cache, key feedkey.Key, url string, opts Options) *Coordinator {
	co := &Coordinator{
		key:   key,
		url:   url,
		cache: c,
		opts:  opts,
	}
	if opts.ForceRefresh {
		c.Clear(string(key))
		co.refreshing = url != ""
	}
	co.sub = openStream(url, stream.Callbacks{
		OnMessage: co.handleMessage,
		OnError:   co.handleError,
		OnOpen:    co.handleOpen,
		OnClose:   co.handleClose,
	})
	return co
}

// Key returns the feed key this coordinator serves.
func (co *Coordinator) Key() feedkey.Key { return co.key }

// View computes the current merged view.
//
// Data resolution: the latest live message wins; otherwise the cached
// payload; absent while a force-refresh is in flight or nothing is known.
func (co *Coordinator) View() View {
	co.mu.Lock()
	live := co.live
	firstLoadDone := co.firstLoadDone
	refreshing := co.refreshing
	lastErr := co.lastErr
	sub := co.sub
	co.mu.Unlock()

	key := string(co.key)
	v := View{
		Key:        co.key,
		Err:        lastErr,
		Connected:  sub.IsConnected(),
		Connecting: sub.IsConnecting(),
	}

	// Get applies lazy expiry and stale-marking as a side effect.
	cached, haveCached := co.cache.Get(key)
	staleCached := haveCached && co.cache.IsStale(key)

	switch {
	case refreshing:
		// Cold: nothing until a fresh message lands.
	case live != nil:
		v.Data = live
		v.IsCached = haveCached
		v.IsStale = false
	case haveCached:
		v.Data = cached
		v.IsCached = true
		v.IsStale = staleCached
	}

	switch {
	case co.url == "":
		v.Loading = false
	case refreshing:
		v.Loading = true
	case !firstLoadDone && !haveCached:
		v.Loading = true
	case haveCached && staleCached && v.Connecting:
		v.Loading = true
	case haveCached && !staleCached:
		v.Loading = false
	default:
		v.Loading = sub.Loading()
	}
	return v
}

// RefreshData marks the cached entry stale and re-arms initial-load
// tracking without clearing data: the last value keeps rendering (with
// its staleness flag) until the stream delivers a replacement.
func (co *Coordinator) RefreshData() {
	co.cache.MarkStale(string(co.key))
	co.mu.Lock()
	co.live = nil
	co.firstLoadDone = false
	co.mu.Unlock()
}

// ForceRefresh clears the cached entry and the live value, then
// reconnects — the feed goes cold and reports loading until a fresh
// message arrives.
func (co *Coordinator) ForceRefresh() {
	co.cache.Clear(string(co.key))
	co.mu.Lock()
	co.live = nil
	co.firstLoadDone = false
	co.refreshing = co.url != ""
	sub := co.sub
	co.mu.Unlock()
	sub.Reconnect()
}

// Reconnect redials the underlying subscription. Cached data is untouched.
func (co *Coordinator) Reconnect() {
	co.mu.Lock()
	sub := co.sub
	co.mu.Unlock()
	sub.Reconnect()
}

// Close terminates the underlying subscription. Cached data survives so a
// later Reconnect resumes from the last snapshot.
func (co *Coordinator) Close() {
	co.mu.Lock()
	sub := co.sub
	co.mu.Unlock()
	sub.Close()
}

// handleMessage is the write-through path: cache first, then local state,
// then the caller's callback. Last write wins; no message is dropped.
func (co *Coordinator) handleMessage(payload []byte) {
	co.cache.Set(string(co.key), payload)

	co.mu.Lock()
	co.live = payload
	co.firstLoadDone = true
	co.refreshing = false
	co.lastErr = nil
	cb := co.opts.OnMessage
	co.mu.Unlock()

	metrics.FeedMessages.WithLabelValues(string(co.key)).Inc()
	if cb != nil {
		cb(payload)
	}
}

// handleError records the error and forwards it. Cached data is never
// cleared on error — the view degrades to the last good snapshot.
func (co *Coordinator) handleError(err error) {
	co.mu.Lock()
	co.lastErr = err
	cb := co.opts.OnError
	co.mu.Unlock()

	metrics.FeedErrors.WithLabelValues(string(co.key)).Inc()
	if cb != nil {
		cb(err)
	}
}

func (co *Coordinator) handleOpen() {
	co.mu.Lock()
	cb := co.opts.OnOpen
	co.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (co *Coordinator) handleClose() {
	co.mu.Lock()
	cb := co.opts.OnClose
	co.mu.Unlock()

	metrics.FeedDisconnects.WithLabelValues(string(co.key)).Inc()
	if cb != nil {
		cb()
	}
}
