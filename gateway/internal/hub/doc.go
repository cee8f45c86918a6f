// Package hub implements the browser-facing WebSocket fan-out.
//
// Hub broadcasts the merged feed views to every connected dashboard
// client on a configurable interval, and immediately on connect so the
// UI has data right away. Slow clients whose send buffer fills are
// disconnected rather than allowed to stall the broadcast.
//
// Message format sent to clients:
//
//	{
//	  "event": "feeds",
//	  "data":  { /* same schema as GET /api/v1/feeds */ }
//	}
//
// The upgrader accepts all origins — apply CORS restrictions at the
// reverse proxy. The endpoint is mounted at /ws/stream by the gateway.
package hub
