package api

import "encoding/json"

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	State           string `json:"state"` // ok | degraded | stale
	FeedCount       int    `json:"feed_count"`
	ConnectedCount  int    `json:"connected_count"`
	ConnectingCount int    `json:"connecting_count"`
	StaleCount      int    `json:"stale_count"`
	LoadingCount    int    `json:"loading_count"`
}

// FeedResponse is one feed's merged view in GET /api/v1/feeds or
// GET /api/v1/feeds/{key}.
type FeedResponse struct {
	Key        string          `json:"key"`
	Data       json.RawMessage `json:"data,omitempty"`
	Error      string          `json:"error,omitempty"`
	Connected  bool            `json:"connected"`
	Connecting bool            `json:"connecting"`
	Loading    bool            `json:"loading"`
	IsCached   bool            `json:"is_cached"`
	IsStale    bool            `json:"is_stale"`
}

// FeedsResponse is the payload for GET /api/v1/feeds, and the body of
// every hub broadcast.
type FeedsResponse struct {
	Feeds       []FeedResponse `json:"feeds"`
	GeneratedAt string         `json:"generated_at"` // RFC3339
}

// CacheResponse is the payload for GET /api/v1/cache.
type CacheResponse struct {
	Size    int                  `json:"size"`
	Keys    []string             `json:"keys"`
	Entries []CacheEntryResponse `json:"entries"`
}

// CacheEntryResponse describes one cached entry.
type CacheEntryResponse struct {
	Key        string  `json:"key"`
	AgeSeconds float64 `json:"age_seconds"`
	IsStale    bool    `json:"is_stale"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
