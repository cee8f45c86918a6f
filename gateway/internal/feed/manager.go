package feed

import (
	"fmt"
	"log/slog"

	"github.com/Kush2408/dredger-swiper-v4/gateway/internal/cache"
	"github.com/Kush2408/dredger-swiper-v4/pkg/feedkey"
)

// Manager owns one coordinator per configured feed and is the single
// handle the hub and API read views through. Registration happens at
// startup; afterwards the coordinator set is immutable.
type Manager struct {
	cache  *cache.Cache
	coords map[feedkey.Key]*Coordinator
	order  []feedkey.Key
}

// NewManager creates an empty Manager over the shared cache.
func NewManager(c *cache.Cache) *Manager {
	return &Manager{
		cache:  c,
		coords: make(map[feedkey.Key]*Coordinator),
	}
}

// Register creates the coordinator for key and opens its stream. It
// rejects unknown keys and duplicate registrations.
func (m *Manager) Register(key feedkey.Key, url string, opts Options) (*Coordinator, error) {
	if !feedkey.Valid(key) {
		return nil, fmt.Errorf("feed: unknown key %q", key)
	}
	if _, ok := m.coords[key]; ok {
		return nil, fmt.Errorf("feed: %q already registered", key)
	}
	co := NewCoordinator(m.cache, key, url, opts)
	m.coords[key] = co
	m.order = append(m.order, key)
	slog.Info("feed: registered", "key", key, "url", url, "disabled", url == "")
	return co, nil
}

// Get returns the coordinator for key, if registered.
func (m *Manager) Get(key feedkey.Key) (*Coordinator, bool) {
	co, ok := m.coords[key]
	return co, ok
}

// Views returns the current merged view of every registered feed, in
// registration order.
func (m *Manager) Views() []View {
	out := make([]View, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, m.coords[key].View())
	}
	return out
}

// Cache returns the shared snapshot cache, for diagnostics endpoints.
func (m *Manager) Cache() *cache.Cache { return m.cache }

// Close shuts down every coordinator's subscription.
func (m *Manager) Close() {
	for _, key := range m.order {
		m.coords[key].Close()
	}
}
