package cache

import (
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// Default thresholds. Staleness must come before expiry so a feed can be
// observed in the stale-but-usable window; the gateway config may override
// both but validation keeps the ordering.
const (
	DefaultStaleAfter  = 30 * time.Minute
	DefaultExpireAfter = 2 * time.Hour
)

// Entry is a cached payload together with the time it was captured.
type Entry struct {
	// Payload is owned by the cache once stored. Callers must treat it as
	// a read-only snapshot.
	Payload    json.RawMessage
	CapturedAt time.Time
	Stale      bool
}

// Cache is a thread-safe keyed snapshot store. One entry per key; Set
// fully replaces the previous entry. The zero value is not usable — use New.
type Cache struct {
	mu          sync.Mutex
	entries     map[string]*Entry
	staleAfter  time.Duration
	expireAfter time.Duration
	now         func() time.Time // injectable for deterministic tests
}

// New creates a Cache with the given staleness and expiry thresholds.
// Non-positive values fall back to the defaults.
func New(staleAfter, expireAfter time.Duration) *Cache {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	if expireAfter <= 0 {
		expireAfter = DefaultExpireAfter
	}
	return &Cache{
		entries:     make(map[string]*Entry),
		staleAfter:  staleAfter,
		expireAfter: expireAfter,
		now:         time.Now,
	}
}

// Set stores payload under key with the current timestamp and a cleared
// staleness flag, replacing any existing entry.
// Callers must not modify payload after calling Set.
func (c *Cache) Set(key string, payload json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &Entry{
		Payload:    payload,
		CapturedAt: c.now(),
	}
}

// Get returns the payload for key and whether one is present.
//
// Reading is where lifecycle transitions happen: an entry past the expiry
// threshold is deleted and reported absent; an entry past the staleness
// threshold has its Stale flag set but is still returned.
func (c *Cache) Get(key string) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	now := c.now()
	if expired(now, e.CapturedAt, c.expireAfter) {
		delete(c.entries, key)
		return nil, false
	}
	if staleByAge(now, e.CapturedAt, c.staleAfter) {
		e.Stale = true
	}
	return e.Payload, true
}

// Has reports whether a non-expired entry exists for key. It never
// mutates or deletes.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	return !expired(c.now(), e.CapturedAt, c.expireAfter)
}

// IsStale reports whether the entry for key is stale, either by age or
// because MarkStale forced it. False if the key is absent. It never
// mutates or deletes.
func (c *Cache) IsStale(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	return e.Stale || staleByAge(c.now(), e.CapturedAt, c.staleAfter)
}

// MarkStale forces the entry for key stale without waiting for age.
// No-op if the key is absent — it never creates an entry.
func (c *Cache) MarkStale(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.Stale = true
	}
}

// Clear removes the entry for key, if any.
func (c *Cache) Clear(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// ClearAll removes every entry.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry)
}

// Stats is a read-only diagnostic snapshot of the cache contents.
type Stats struct {
	Size    int          `json:"size"`
	Keys    []string     `json:"keys"`
	Entries []EntryStats `json:"entries"`
}

// EntryStats describes one cached entry for diagnostics.
type EntryStats struct {
	Key        string  `json:"key"`
	AgeSeconds float64 `json:"age_seconds"`
	IsStale    bool    `json:"is_stale"`
}

// Stats returns a diagnostic snapshot: entry count, keys, and per-entry
// age and staleness. Keys are sorted for stable output. It never mutates
// or deletes, so entries past expiry still appear until a Get removes them.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	st := Stats{
		Size:    len(c.entries),
		Keys:    make([]string, 0, len(c.entries)),
		Entries: make([]EntryStats, 0, len(c.entries)),
	}
	for key := range c.entries {
		st.Keys = append(st.Keys, key)
	}
	sort.Strings(st.Keys)
	for _, key := range st.Keys {
		e := c.entries[key]
		st.Entries = append(st.Entries, EntryStats{
			Key:        key,
			AgeSeconds: now.Sub(e.CapturedAt).Seconds(),
			IsStale:    e.Stale || staleByAge(now, e.CapturedAt, c.staleAfter),
		})
	}
	return st
}

// expired reports whether an entry captured at capturedAt has passed the
// expiry threshold at time now.
func expired(now, capturedAt time.Time, expireAfter time.Duration) bool {
	return now.Sub(capturedAt) > expireAfter
}

// staleByAge reports whether an entry captured at capturedAt has passed
// the staleness threshold at time now.
func staleByAge(now, capturedAt time.Time, staleAfter time.Duration) bool {
	return now.Sub(capturedAt) > staleAfter
}
