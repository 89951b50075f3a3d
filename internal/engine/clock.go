package engine

import "sync/atomic"

// Clock is the monotonic logical clock that orders trace events.
//
// Every trace event is stamped with a strictly increasing seq from this
// clock, never with wall-clock time, so two runs of the same scenario
// produce the same journal.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// In practice only the engine's cycle goroutine calls Next.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific sequence number.
// Used to resume numbering after the last event already in a journal.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
