package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dredger_gateway"

var (
	// FeedMessages counts inbound stream messages written through to the
	// cache, per feed key.
	FeedMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_messages_total",
		Help:      "Inbound feed messages written through to the snapshot cache.",
	}, []string{"feed"})

	// FeedErrors counts dial and transport errors, per feed key.
	FeedErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_errors_total",
		Help:      "Stream dial and transport errors.",
	}, []string{"feed"})

	// FeedDisconnects counts lost connections, per feed key.
	FeedDisconnects = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_disconnects_total",
		Help:      "Established stream connections that were lost.",
	}, []string{"feed"})

	// HubClients tracks currently connected dashboard WebSocket clients.
	HubClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "hub_clients",
		Help:      "Currently connected dashboard WebSocket clients.",
	})

	// HubBroadcasts counts hub broadcast ticks that reached at least one client.
	HubBroadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hub_broadcasts_total",
		Help:      "Feed-view broadcasts sent to dashboard clients.",
	})
)

// RegisterCacheSize exposes the current snapshot cache entry count as a
// gauge. Called once from main after the cache is constructed.
func RegisterCacheSize(size func() int) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cache_entries",
		Help:      "Entries currently held in the snapshot cache.",
	}, func() float64 { return float64(size()) }))
}
