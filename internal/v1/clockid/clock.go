// Package clockid provides the two pure-ish leaf dependencies pure
// transitions are never allowed to reach for themselves: the clock and the
// random identifier source (spec.md §2.1). Both are injected into the actor
// so transitions stay deterministic given `now`.
package clockid

import "time"

// Clock returns the current time as a millisecond epoch, the internal
// representation spec.md §3 uses for every timestamp field. Production code
// uses SystemClock; tests use a FixedClock or a manually-advanced one so
// round-timer behaviour is deterministic.
type Clock interface {
	NowMillis() int64
}

// SystemClock is the production Clock, backed by the wall clock.
type SystemClock struct{}

func (SystemClock) NowMillis() int64 {
	return time.Now().UnixMilli()
}

// FixedClock is a test Clock pinned to one instant until advanced.
type FixedClock struct {
	ms int64
}

func NewFixedClock(startMs int64) *FixedClock {
	return &FixedClock{ms: startMs}
}

func (c *FixedClock) NowMillis() int64 {
	return c.ms
}

// Advance moves the fixed clock forward by d and returns the new value.
func (c *FixedClock) Advance(d time.Duration) int64 {
	c.ms += d.Milliseconds()
	return c.ms
}

// MillisToRFC3339 renders an internal millisecond epoch as the RFC3339 UTC
// string every outbound JSON payload uses (spec.md §2.1: "ISO-8601 UTC
// strings for external representation, millisecond epoch internally").
func MillisToRFC3339(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
}
