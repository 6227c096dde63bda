// Package expiry decides entry liveness and normalizes relative TTLs to
// absolute deadlines, so every backend behaves identically with respect to
// time-to-live.
package expiry

import "time"

// Policy carries the store-level default TTL and the clock source. The zero
// value has no default TTL and uses the wall clock.
type Policy struct {
	DefaultTTL time.Duration
	Now        func() time.Time
}

func (p Policy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Deadline converts a per-call TTL into an absolute deadline computed from
// the current time. A non-positive TTL falls back to the default; if neither
// is set the entry never expires. Deadlines are absolute because a relative
// TTL would drift under repeated clock reads.
func (p Policy) Deadline(ttl time.Duration) *time.Time {
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}
	if ttl <= 0 {
		return nil
	}

	deadline := p.now().Add(ttl)
	return &deadline
}

// Expired reports whether a deadline has passed. A nil deadline is always
// live; a deadline at or before now is dead.
func (p Policy) Expired(deadline *time.Time) bool {
	if deadline == nil {
		return false
	}
	return !p.now().Before(*deadline)
}
