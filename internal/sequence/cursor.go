package sequence

import "time"

// Cursor walks a cyclic list of timed steps against a millisecond clock.
// It measures from the moment the current step began, so irregular calls to
// Advance never shift the schedule.
type Cursor[T any] struct {
	steps  []Step[T]
	total  uint64
	idx    int
	start  uint64
	cycles uint64
}

// NewCursor positions a cursor on step 0 at time now.
func NewCursor[T any](steps []Step[T], now uint64) *Cursor[T] {
	c := &Cursor[T]{steps: steps, start: now}
	for i := range steps {
		c.total += c.ms(i)
	}
	return c
}

func (c *Cursor[T]) ms(i int) uint64 {
	d := c.steps[i].Duration
	if d <= 0 {
		return 0
	}
	return uint64(d / time.Millisecond)
}

func (c *Cursor[T]) Len() int { return len(c.steps) }

func (c *Cursor[T]) Index() int { return c.idx }

// Cycles counts how many times the cursor has wrapped back to step 0.
func (c *Cursor[T]) Cycles() uint64 { return c.cycles }

// Value is the current step's value. It panics on an empty cursor.
func (c *Cursor[T]) Value() T { return c.steps[c.idx].Value }

// Advance moves to the step active at now and reports whether the step changed.
// A cursor whose steps add up to zero stays on step 0.
func (c *Cursor[T]) Advance(now uint64) bool {
	if len(c.steps) == 0 || c.total == 0 || now < c.start {
		return false
	}
	prev := c.idx
	if skip := (now - c.start) / c.total; skip > 0 {
		c.start += skip * c.total
		c.cycles += skip
	}
	for {
		d := c.ms(c.idx)
		if now-c.start < d {
			break
		}
		c.start += d
		c.idx++
		if c.idx == len(c.steps) {
			c.idx = 0
			c.cycles++
		}
	}
	return c.idx != prev
}
