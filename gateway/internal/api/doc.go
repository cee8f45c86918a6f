// Package api implements the gateway's HTTP JSON endpoints. It reads
// merged feed views from the feed manager and cache diagnostics from the
// snapshot cache; it never touches the stream layer directly.
package api
