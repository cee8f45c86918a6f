package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Kush2408/dredger-swiper-v4/gateway/internal/feed"
	"github.com/Kush2408/dredger-swiper-v4/pkg/feedkey"
)

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	mgr *feed.Manager
	mux *http.ServeMux
}

// New creates a Handler wired to the given feed manager and registers all
// routes.
func New(mgr *feed.Manager) http.Handler {
	h := &Handler{mgr: mgr, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/feeds", h.listFeeds)
	h.mux.HandleFunc("/api/v1/feeds/", h.getFeed) // subtree — extracts {key}
	h.mux.HandleFunc("/api/v1/cache", h.cacheStats)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// BuildFeeds assembles the merged view of every registered feed. Shared
// with the WebSocket hub so broadcasts and GET /api/v1/feeds carry the
// same schema.
func BuildFeeds(mgr *feed.Manager) FeedsResponse {
	views := mgr.Views()
	out := make([]FeedResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toFeedResponse(v))
	}
	return FeedsResponse{
		Feeds:       out,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health — feed connectivity and staleness counts.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	views := h.mgr.Views()
	resp := HealthResponse{FeedCount: len(views)}
	for _, v := range views {
		if v.Connected {
			resp.ConnectedCount++
		}
		if v.Connecting {
			resp.ConnectingCount++
		}
		if v.IsStale {
			resp.StaleCount++
		}
		if v.Loading {
			resp.LoadingCount++
		}
	}

	switch {
	case resp.StaleCount > 0:
		resp.State = "stale"
	case resp.ConnectingCount > 0 || resp.LoadingCount > 0:
		resp.State = "degraded"
	default:
		resp.State = "ok"
	}
	jsonResp(w, http.StatusOK, resp)
}

// listFeeds returns GET /api/v1/feeds — the merged view of every feed.
func (h *Handler) listFeeds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, BuildFeeds(h.mgr))
}

// getFeed returns GET /api/v1/feeds/{key} — a single feed's merged view.
// POST /api/v1/feeds/{key}/refresh marks the feed for optimistic refresh;
// POST /api/v1/feeds/{key}/force-refresh clears it and reconnects cold.
func (h *Handler) getFeed(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/feeds/")
	if rest == "" {
		h.listFeeds(w, r)
		return
	}

	name, action, _ := strings.Cut(rest, "/")
	key, err := feedkey.Parse(name)
	if err != nil {
		jsonErr(w, http.StatusNotFound, "unknown feed key")
		return
	}
	co, ok := h.mgr.Get(key)
	if !ok {
		jsonErr(w, http.StatusNotFound, "feed not registered")
		return
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		jsonResp(w, http.StatusOK, toFeedResponse(co.View()))

	case "refresh":
		if r.Method != http.MethodPost {
			jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		co.RefreshData()
		jsonResp(w, http.StatusAccepted, toFeedResponse(co.View()))

	case "force-refresh":
		if r.Method != http.MethodPost {
			jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		co.ForceRefresh()
		jsonResp(w, http.StatusAccepted, toFeedResponse(co.View()))

	default:
		jsonErr(w, http.StatusNotFound, "unknown feed action")
	}
}

// cacheStats returns GET /api/v1/cache — a diagnostic snapshot of the
// snapshot cache.
func (h *Handler) cacheStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	st := h.mgr.Cache().Stats()
	resp := CacheResponse{
		Size:    st.Size,
		Keys:    st.Keys,
		Entries: make([]CacheEntryResponse, 0, len(st.Entries)),
	}
	for _, e := range st.Entries {
		resp.Entries = append(resp.Entries, CacheEntryResponse{
			Key:        e.Key,
			AgeSeconds: e.AgeSeconds,
			IsStale:    e.IsStale,
		})
	}
	jsonResp(w, http.StatusOK, resp)
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// toFeedResponse maps a feed.View to its JSON representation.
func toFeedResponse(v feed.View) FeedResponse {
	resp := FeedResponse{
		Key:        string(v.Key),
		Data:       v.Data,
		Connected:  v.Connected,
		Connecting: v.Connecting,
		Loading:    v.Loading,
		IsCached:   v.IsCached,
		IsStale:    v.IsStale,
	}
	if v.Err != nil {
		resp.Error = v.Err.Error()
	}
	return resp
}
