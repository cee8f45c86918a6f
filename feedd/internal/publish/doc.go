// Package publish serves per-feed WebSocket endpoints and fans each
// published payload out to the feed's subscribers. New subscribers
// immediately receive the last retained payload, so a client never has
// to wait a full publish interval for its first frame.
package publish
