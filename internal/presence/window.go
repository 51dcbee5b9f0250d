// Package presence holds the time-windowed liveness rules for typing and
// online state. Liveness is decided at read time against these windows; rows
// are never purged when they go stale.
package presence

import "time"

const (
	// TypingWindow is how long a typing pulse stays live.
	TypingWindow = 3 * time.Second
	// OnlineWindow is how long a heartbeat keeps a user in the online list.
	OnlineWindow = 30 * time.Second
)

// LiveAt reports whether a liveness timestamp is still inside the window at
// the given instant.
func LiveAt(updatedAt, now time.Time, window time.Duration) bool {
	return now.Sub(updatedAt) < window
}

// TypingLive reports whether a typing pulse is still live.
func TypingLive(updatedAt, now time.Time) bool {
	return LiveAt(updatedAt, now, TypingWindow)
}

// OnlineLive reports whether a heartbeat is recent enough for the user to
// count as online. A user with no recorded heartbeat is never online, even if
// an is_online flag is still set.
func OnlineLive(lastSeen *time.Time, now time.Time) bool {
	return lastSeen != nil && LiveAt(*lastSeen, now, OnlineWindow)
}
