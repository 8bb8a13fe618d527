package engine

import "sync/atomic"

// SeqSource hands out run sequence numbers. Implemented by Clock and by
// testutil.DeterministicClock.
type SeqSource interface {
	Next() int64
}

// Clock is the logical clock that orders runs in the log.
//
// Runs are ordered by seq, never by wall time, so listing and replaying a
// log gives the same order on every machine. Safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose first Next returns start+1. Used to
// continue an existing log.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
