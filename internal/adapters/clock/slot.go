// Package clock supplies wall-clock time and a slot-height round counter.
package clock

import (
	"sync"
	"time"
)

// SlotClock derives the round from the number of fixed-length slots elapsed
// since genesis. The round never decreases, even if the wall clock steps back.
type SlotClock struct {
	genesis time.Time
	slot    time.Duration
	now     func() time.Time

	mu        sync.Mutex
	lastRound uint64
}

// NewSlotClock returns a clock whose round 0 starts at genesis.
// A non-positive slot duration falls back to 400ms.
func NewSlotClock(genesis time.Time, slot time.Duration) *SlotClock {
	if slot <= 0 {
		slot = 400 * time.Millisecond
	}
	return &SlotClock{genesis: genesis, slot: slot, now: time.Now}
}

// WithNow replaces the time source. Used by tests.
func (c *SlotClock) WithNow(now func() time.Time) *SlotClock {
	c.now = now
	return c
}

func (c *SlotClock) Now() int64 {
	return c.now().Unix()
}

func (c *SlotClock) Round() uint64 {
	var r uint64
	if elapsed := c.now().Sub(c.genesis); elapsed > 0 {
		r = uint64(elapsed / c.slot)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if r < c.lastRound {
		return c.lastRound
	}
	c.lastRound = r
	return r
}
