// Package cache implements the in-memory snapshot cache that backs every
// dashboard feed. It maps a feed key to the most recent payload together
// with its capture time and a staleness flag.
//
// Staleness and expiry are two independent thresholds, both evaluated
// lazily on read — there is no background eviction timer. An entry past
// the staleness threshold is still served (the UI shows it with a
// staleness indicator); an entry past the expiry threshold is deleted on
// Get and reported absent. Has and IsStale never mutate or delete, so a
// long-expired entry can linger until the next Get touches it. That is a
// deliberate trade: no background work for feeds nobody is looking at.
package cache
