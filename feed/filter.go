package feed

import "time"

// Fresh reports whether an entry timestamp falls within window of now. The
// caller keeps window >= the poll interval, or true new entries can be missed
// between polls; that invariant is not checked here.
func Fresh(timestamp, now int64, window time.Duration) bool {
	return now-timestamp < int64(window/time.Second)
}

// Dedup collapses repeated entries for the same (username, game name) pair
// within one batch, keeping the first occurrence and preserving order. It has
// no memory across poll cycles.
//
// Keyed by display name rather than game URL: two different games with the
// same display name collide. Matching the observed upstream behavior; change
// only with real feed data in hand.
func Dedup(entries []RawEntry) []RawEntry {
	type key struct {
		username string
		gameName string
	}
	seen := make(map[key]struct{}, len(entries))
	out := make([]RawEntry, 0, len(entries))
	for _, e := range entries {
		k := key{e.Username, e.GameName}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return out
}
