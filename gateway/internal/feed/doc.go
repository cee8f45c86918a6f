// Package feed merges the snapshot cache with the live stream for each
// dashboard feed, so presentation code never reasons about the two
// sources separately.
//
// A Coordinator owns one stream subscription for a feed key + URL pair.
// Every inbound message is written through to the cache, then the merged
// View — data, loading, cached/stale flags — is recomputed on demand.
// A cached entry present at startup is served immediately without waiting
// for the stream; stream errors degrade the view to the last good cached
// snapshot instead of clearing it.
package feed
