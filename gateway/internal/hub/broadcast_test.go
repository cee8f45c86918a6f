package hub

import (
	"sync"
	"testing"
	"time"

	"github.com/Kush2408/dredger-swiper-v4/gateway/internal/cache"
	"github.com/Kush2408/dredger-swiper-v4/gateway/internal/feed"
)

// A push fanning out while clients disconnect must never send on a
// closed channel. Tiny buffers force the slow-client drop path as well.
func TestPushSurvivesConcurrentDetach(t *testing.T) {
	mgr := feed.NewManager(cache.New(30*time.Minute, 2*time.Hour))
	h := New(mgr, time.Hour)

	for round := 0; round < 50; round++ {
		sessions := make([]*session, 64)
		for i := range sessions {
			sessions[i] = &session{out: make(chan []byte, 1)}
			h.attach(sessions[i])
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 4; i++ {
				h.push()
			}
		}()
		go func() {
			defer wg.Done()
			for _, s := range sessions {
				h.detach(s)
			}
		}()
		wg.Wait()
	}

	if h.Count() != 0 {
		t.Fatalf("Count after rounds: got %d, want 0", h.Count())
	}
}
